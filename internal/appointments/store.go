package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSlotTaken reports that the requested slot gained a conflicting confirmed
// appointment between listing and confirmation.
var ErrSlotTaken = errors.New("appointments: slot already taken")

// DefaultDurationMinutes is assumed whenever a service row cannot be resolved.
const DefaultDurationMinutes = 60

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store provides persistence for appointments.
type Store struct {
	db DB
}

// NewStore creates an appointment store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// CreateConfirmed inserts a confirmed appointment after re-validating that no
// confirmed appointment overlaps it. The check and the insert run in one
// transaction under a per-(professional, date) advisory lock, so two
// customers confirming the same slot cannot both succeed.
func (s *Store) CreateConfirmed(ctx context.Context, a *Appointment, durationMinutes int) (int64, error) {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	startMin, err := clockToMinutes(a.Time)
	if err != nil {
		return 0, fmt.Errorf("appointments: create confirmed: %w", err)
	}
	endMin := startMin + durationMinutes

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("appointments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serializes confirmations for one professional's day without locking
	// unrelated rows.
	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`,
		fmt.Sprintf("appointments:%d:%s", a.ProfessionalID, a.Date))
	if err != nil {
		return 0, fmt.Errorf("appointments: advisory lock: %w", err)
	}

	booked, err := bookedIntervals(ctx, tx, a.Date, a.ProfessionalID)
	if err != nil {
		return 0, err
	}
	for _, b := range booked {
		if startMin < b.EndMinutes && endMin > b.StartMinutes {
			return 0, ErrSlotTaken
		}
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (pet_name, owner_name, phone, service, date, time, status, professional_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		a.PetName, a.OwnerName, a.Phone, a.Service, a.Date, a.Time, string(StatusConfirmed), a.ProfessionalID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("appointments: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("appointments: commit: %w", err)
	}
	a.ID = id
	a.Status = StatusConfirmed
	return id, nil
}

// BookedIntervals returns the occupied [start, end) minute intervals of every
// confirmed appointment for the professional on the given date. Durations come
// from the services table, defaulting when the service row is gone.
func (s *Store) BookedIntervals(ctx context.Context, date string, professionalID int64) ([]BookedInterval, error) {
	return bookedIntervals(ctx, s.db, date, professionalID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func bookedIntervals(ctx context.Context, q querier, date string, professionalID int64) ([]BookedInterval, error) {
	rows, err := q.Query(ctx, `
		SELECT a.time, COALESCE(s.duration, $3)
		FROM appointments a
		LEFT JOIN services s ON s.name = a.service
		WHERE a.date = $1 AND a.professional_id = $2 AND a.status = 'confirmed'
		ORDER BY a.time`, date, professionalID, DefaultDurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("appointments: booked intervals: %w", err)
	}
	defer rows.Close()

	var intervals []BookedInterval
	for rows.Next() {
		var clock string
		var duration int
		if err := rows.Scan(&clock, &duration); err != nil {
			return nil, fmt.Errorf("appointments: scan interval: %w", err)
		}
		start, err := clockToMinutes(clock)
		if err != nil {
			return nil, fmt.Errorf("appointments: booked intervals: %w", err)
		}
		if duration <= 0 {
			duration = DefaultDurationMinutes
		}
		intervals = append(intervals, BookedInterval{StartMinutes: start, EndMinutes: start + duration})
	}
	return intervals, rows.Err()
}

// ListFutureByPhone returns the phone's pending and confirmed appointments on
// or after the given date, ordered chronologically.
func (s *Store) ListFutureByPhone(ctx context.Context, phone, fromDate string) ([]Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, pet_name, owner_name, phone, service, date, time, status, professional_id, reminder_sent, reminder_sent_at, created_at
		FROM appointments
		WHERE phone = $1 AND status IN ('pending', 'confirmed') AND date >= $2
		ORDER BY date, time`, phone, fromDate)
	if err != nil {
		return nil, fmt.Errorf("appointments: list future by phone: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// GetByID returns the appointment or nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, pet_name, owner_name, phone, service, date, time, status, professional_id, reminder_sent, reminder_sent_at, created_at
		FROM appointments
		WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("appointments: get by id: %w", err)
	}
	defer rows.Close()
	appts, err := scanAppointments(rows)
	if err != nil {
		return nil, err
	}
	if len(appts) == 0 {
		return nil, nil
	}
	return &appts[0], nil
}

// Cancel marks the appointment canceled when it belongs to the phone.
func (s *Store) Cancel(ctx context.Context, id int64, phone string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET status = 'canceled'
		WHERE id = $1 AND phone = $2`, id, phone)
	if err != nil {
		return fmt.Errorf("appointments: cancel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("appointments: cancel: appointment %d not found for phone", id)
	}
	return nil
}

// ListUnremindedForDay returns confirmed, not-yet-reminded appointments on the
// given date ordered by time.
func (s *Store) ListUnremindedForDay(ctx context.Context, date string) ([]Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, pet_name, owner_name, phone, service, date, time, status, professional_id, reminder_sent, reminder_sent_at, created_at
		FROM appointments
		WHERE date = $1 AND status = 'confirmed' AND reminder_sent = false
		ORDER BY time`, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: list unreminded: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// MarkReminderSent flags the appointment so the next worker pass skips it.
func (s *Store) MarkReminderSent(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET reminder_sent = true, reminder_sent_at = CURRENT_TIMESTAMP
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: mark reminder sent: %w", err)
	}
	return nil
}

// Stats aggregates appointment counts for the admin dashboard.
type Stats struct {
	Today   int `json:"today"`
	Total   int `json:"total"`
	Pending int `json:"pending"`
}

// CountStats returns confirmed-today, confirmed-total and pending counts.
func (s *Store) CountStats(ctx context.Context, today string) (Stats, error) {
	var st Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE date = $1 AND status = 'confirmed'),
			COUNT(*) FILTER (WHERE status = 'confirmed'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM appointments`, today).Scan(&st.Today, &st.Total, &st.Pending)
	if err != nil {
		return Stats{}, fmt.Errorf("appointments: count stats: %w", err)
	}
	return st, nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	var appts []Appointment
	for rows.Next() {
		var a Appointment
		var status string
		var sentAt *time.Time
		err := rows.Scan(
			&a.ID, &a.PetName, &a.OwnerName, &a.Phone, &a.Service,
			&a.Date, &a.Time, &status, &a.ProfessionalID,
			&a.ReminderSent, &sentAt, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		a.Status = Status(status)
		a.ReminderSentAt = sentAt
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// clockToMinutes converts "HH:MM" to minutes from midnight.
func clockToMinutes(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
