package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultReminderIntervalHours applies when no reminder_settings row exists.
const DefaultReminderIntervalHours = 24

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SettingsStore reads the singleton scheduling settings rows.
type SettingsStore struct {
	db DB
}

// NewSettingsStore creates a settings store.
func NewSettingsStore(db DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// DateConfig loads the date_settings row. A missing row yields the default
// config rather than an error.
func (s *SettingsStore) DateConfig(ctx context.Context) (DateConfig, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT config FROM date_settings WHERE id = 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DefaultDateConfig(), nil
		}
		return DefaultDateConfig(), fmt.Errorf("schedule: load date settings: %w", err)
	}

	cfg := DefaultDateConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return DefaultDateConfig(), fmt.Errorf("schedule: decode date settings: %w", err)
	}
	if cfg.DaysToShow < 1 {
		cfg.DaysToShow = DefaultDateConfig().DaysToShow
	}
	return cfg, nil
}

// WeeklyHours loads the time_settings row. A missing row yields nil, which
// the engine treats as "closed every day".
func (s *SettingsStore) WeeklyHours(ctx context.Context) (WeeklyHours, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT config FROM time_settings WHERE id = 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("schedule: load time settings: %w", err)
	}

	var hours WeeklyHours
	if err := json.Unmarshal(raw, &hours); err != nil {
		return nil, fmt.Errorf("schedule: decode time settings: %w", err)
	}
	return hours, nil
}

// ReminderIntervalHours loads how many hours before an appointment the
// reminder fires, defaulting when unset.
func (s *SettingsStore) ReminderIntervalHours(ctx context.Context) (int, error) {
	var hours int
	err := s.db.QueryRow(ctx, `SELECT reminder_interval FROM reminder_settings WHERE id = 1`).Scan(&hours)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DefaultReminderIntervalHours, nil
		}
		return DefaultReminderIntervalHours, fmt.Errorf("schedule: load reminder settings: %w", err)
	}
	if hours <= 0 {
		return DefaultReminderIntervalHours, nil
	}
	return hours, nil
}
