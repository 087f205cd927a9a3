package customers

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

// Store provides CRUD operations for customers and their pets.
type Store struct {
	db DB
}

// NewStore creates a customer store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// GetByPhone returns the customer or nil when the phone is unknown.
func (s *Store) GetByPhone(ctx context.Context, phone string) (*Customer, error) {
	var c Customer
	err := s.db.QueryRow(ctx, `
		SELECT id, phone, owner_name
		FROM customers
		WHERE phone = $1`, phone).Scan(&c.ID, &c.Phone, &c.OwnerName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("customers: get by phone: %w", err)
	}
	return &c, nil
}

// Create inserts a customer and returns its id. Two messages racing on the
// same new phone can both reach the insert; the loser falls back to the
// winner's row instead of failing the dialogue.
func (s *Store) Create(ctx context.Context, phone, ownerName string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO customers (phone, owner_name)
		VALUES ($1, $2)
		ON CONFLICT (phone) DO UPDATE SET owner_name = EXCLUDED.owner_name
		RETURNING id`, phone, ownerName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("customers: create: %w", err)
	}
	return id, nil
}

// ListPets returns the customer's pets ordered by id.
func (s *Store) ListPets(ctx context.Context, customerID int64) ([]Pet, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, customer_id, name
		FROM pets
		WHERE customer_id = $1
		ORDER BY id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("customers: list pets: %w", err)
	}
	defer rows.Close()

	var pets []Pet
	for rows.Next() {
		var p Pet
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Name); err != nil {
			return nil, fmt.Errorf("customers: scan pet: %w", err)
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

// CreatePet inserts a pet and returns its id.
func (s *Store) CreatePet(ctx context.Context, customerID int64, name string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO pets (customer_id, name)
		VALUES ($1, $2)
		RETURNING id`, customerID, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("customers: create pet: %w", err)
	}
	return id, nil
}
