package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

// sessionTTL bounds how long an idle conversation survives in the cache.
const sessionTTL = 24 * time.Hour

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists sessions in redis with a postgres fallback, so a cache
// flush does not drop a customer mid-booking. Load never fails: any storage
// problem degrades to a fresh menu session.
type Store struct {
	redis  *redis.Client
	db     DB
	logger *logging.Logger
}

// NewStore creates a session store.
func NewStore(rdb *redis.Client, db DB, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{redis: rdb, db: db, logger: logger}
}

func sessionKey(phone string) string {
	return fmt.Sprintf("session:%s", phone)
}

// Load returns the session for the phone, checking redis first and falling
// back to postgres. A missing or unreadable session yields a fresh one.
func (s *Store) Load(ctx context.Context, phone string) *Session {
	data, err := s.redis.Get(ctx, sessionKey(phone)).Bytes()
	if err == nil {
		var sess Session
		if err := json.Unmarshal(data, &sess); err == nil && sess.State.Valid() {
			return &sess
		}
		s.logger.Warn("session: corrupt cached session, discarding", "phone", phone)
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("session: cache read failed", "phone", phone, "error", err)
	}

	sess, err := s.loadFromDB(ctx, phone)
	if err != nil {
		s.logger.Warn("session: database read failed, starting fresh", "phone", phone, "error", err)
		return New(phone)
	}
	if sess == nil {
		return New(phone)
	}

	// Backfill the cache so the next message skips postgres.
	if data, err := json.Marshal(sess); err == nil {
		if err := s.redis.Set(ctx, sessionKey(phone), data, sessionTTL).Err(); err != nil {
			s.logger.Warn("session: cache backfill failed", "phone", phone, "error", err)
		}
	}
	return sess
}

// Save writes the session to both redis and postgres. Partial failures are
// reported but the conversation continues on whichever store succeeded.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal session: %w", err)
	}

	var cacheErr, dbErr error
	if err := s.redis.Set(ctx, sessionKey(sess.Phone), data, sessionTTL).Err(); err != nil {
		cacheErr = fmt.Errorf("session: cache write: %w", err)
	}

	temp, err := json.Marshal(sess.Temp)
	if err != nil {
		return fmt.Errorf("session: marshal temp data: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO chat_sessions (phone, state, temp_data, paused_until, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (phone) DO UPDATE SET
			state = EXCLUDED.state,
			temp_data = EXCLUDED.temp_data,
			paused_until = EXCLUDED.paused_until,
			updated_at = EXCLUDED.updated_at`,
		sess.Phone, string(sess.State), temp, sess.PausedUntil, sess.UpdatedAt)
	if err != nil {
		dbErr = fmt.Errorf("session: database write: %w", err)
	}

	return errors.Join(cacheErr, dbErr)
}

// Delete removes the session from both stores.
func (s *Store) Delete(ctx context.Context, phone string) error {
	var cacheErr, dbErr error
	if err := s.redis.Del(ctx, sessionKey(phone)).Err(); err != nil {
		cacheErr = fmt.Errorf("session: cache delete: %w", err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM chat_sessions WHERE phone = $1`, phone); err != nil {
		dbErr = fmt.Errorf("session: database delete: %w", err)
	}
	return errors.Join(cacheErr, dbErr)
}

func (s *Store) loadFromDB(ctx context.Context, phone string) (*Session, error) {
	var (
		state       string
		temp        []byte
		pausedUntil *time.Time
		updatedAt   time.Time
	)
	err := s.db.QueryRow(ctx, `
		SELECT state, temp_data, paused_until, updated_at
		FROM chat_sessions WHERE phone = $1`, phone).
		Scan(&state, &temp, &pausedUntil, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: load session: %w", err)
	}

	sess := &Session{
		Phone:       phone,
		State:       State(state),
		PausedUntil: pausedUntil,
		UpdatedAt:   updatedAt,
	}
	if !sess.State.Valid() {
		s.logger.Warn("session: unknown persisted state, resetting", "phone", phone, "state", state)
		sess.Reset()
		return sess, nil
	}
	if len(temp) > 0 {
		if err := json.Unmarshal(temp, &sess.Temp); err != nil {
			s.logger.Warn("session: corrupt temp data, resetting", "phone", phone, "error", err)
			sess.Reset()
		}
	}
	return sess, nil
}
