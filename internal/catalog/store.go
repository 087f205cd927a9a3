package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides read access to the service and professional catalogs.
type Store struct {
	db DB
}

// NewStore creates a catalog store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// ListServices returns every service ordered by id.
func (s *Store) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, price, duration
		FROM services
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var svc Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Price, &svc.DurationMinutes); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

// GetServiceByID returns the service or nil when it does not exist.
func (s *Store) GetServiceByID(ctx context.Context, id int64) (*Service, error) {
	var svc Service
	err := s.db.QueryRow(ctx, `
		SELECT id, name, price, duration
		FROM services
		WHERE id = $1`, id).Scan(&svc.ID, &svc.Name, &svc.Price, &svc.DurationMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: get service by id: %w", err)
	}
	return &svc, nil
}

// GetServiceByName returns the service or nil when it does not exist.
// Appointments reference services by name, so availability lookups go
// through here.
func (s *Store) GetServiceByName(ctx context.Context, name string) (*Service, error) {
	var svc Service
	err := s.db.QueryRow(ctx, `
		SELECT id, name, price, duration
		FROM services
		WHERE name = $1`, name).Scan(&svc.ID, &svc.Name, &svc.Price, &svc.DurationMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: get service by name: %w", err)
	}
	return &svc, nil
}

// ListProfessionals returns every professional ordered by id.
func (s *Store) ListProfessionals(ctx context.Context) ([]Professional, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name
		FROM professionals
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list professionals: %w", err)
	}
	defer rows.Close()

	var professionals []Professional
	for rows.Next() {
		var p Professional
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("catalog: scan professional: %w", err)
		}
		professionals = append(professionals, p)
	}
	return professionals, rows.Err()
}

// GetProfessionalByID returns the professional or nil when it does not exist.
func (s *Store) GetProfessionalByID(ctx context.Context, id int64) (*Professional, error) {
	var p Professional
	err := s.db.QueryRow(ctx, `
		SELECT id, name
		FROM professionals
		WHERE id = $1`, id).Scan(&p.ID, &p.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: get professional by id: %w", err)
	}
	return &p, nil
}
