package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Direction tags a logged message as inbound or outbound.
type Direction string

const (
	DirectionReceived Direction = "received"
	DirectionSent     Direction = "sent"
)

// Message is one logged WhatsApp message.
type Message struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone"`
	Body      string    `json:"message"`
	Direction Direction `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LogStore records conversation traffic for the attendant view. Writes are
// best-effort: the webhook logs failures and moves on.
type LogStore struct {
	db DB
}

// NewLogStore creates a message log store.
func NewLogStore(db DB) *LogStore {
	return &LogStore{db: db}
}

// Record appends one message to the log.
func (s *LogStore) Record(ctx context.Context, phone, body string, direction Direction) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO messages (phone, message, type) VALUES ($1, $2, $3)`,
		phone, body, string(direction))
	if err != nil {
		return fmt.Errorf("messaging: record message: %w", err)
	}
	return nil
}

// History returns the most recent messages for a phone, newest first.
func (s *LogStore) History(ctx context.Context, phone string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, phone, message, type, created_at
		FROM messages WHERE phone = $1
		ORDER BY created_at DESC LIMIT $2`, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("messaging: load history: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var direction string
		if err := rows.Scan(&m.ID, &m.Phone, &m.Body, &direction, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("messaging: scan message: %w", err)
		}
		m.Direction = Direction(direction)
		out = append(out, m)
	}
	return out, rows.Err()
}
