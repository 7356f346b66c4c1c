package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acme/lead-dialer/internal/domain"
	"github.com/acme/lead-dialer/internal/repository"
)

// LeadRepository implements repository.LeadDirectory using PostgreSQL. It is
// read-only; lead management belongs to the CRM application proper.
type LeadRepository struct {
	db *sqlx.DB
}

// NewLeadRepository constructs a new repository.
func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

type leadRecord struct {
	ID          uuid.UUID `db:"id"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	PhoneNumber string    `db:"phone_number"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r leadRecord) toDomain() domain.Lead {
	return domain.Lead{
		ID:          r.ID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		PhoneNumber: r.PhoneNumber,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
	}
}

// Get fetches a lead by id.
func (r *LeadRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	q := `SELECT id, first_name, last_name, phone_number, status, created_at
	  FROM leads WHERE id = $1`

	row := r.db.QueryRowxContext(ctx, q, id)
	var record leadRecord
	if err := row.StructScan(&record); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("lead repo: get: %w", err)
	}

	lead := record.toDomain()
	return &lead, nil
}

// GetByPhone fetches a lead by phone number, used to label inbound calls.
func (r *LeadRepository) GetByPhone(ctx context.Context, phone string) (*domain.Lead, error) {
	q := `SELECT id, first_name, last_name, phone_number, status, created_at
	  FROM leads WHERE phone_number = $1 ORDER BY created_at DESC LIMIT 1`

	row := r.db.QueryRowxContext(ctx, q, phone)
	var record leadRecord
	if err := row.StructScan(&record); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("lead repo: get by phone: %w", err)
	}

	lead := record.toDomain()
	return &lead, nil
}
