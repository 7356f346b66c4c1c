package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/acme/lead-dialer/internal/domain"
	apperrors "github.com/acme/lead-dialer/pkg/errors"
)

var (
	// ErrNotFound indicates the entity was not located.
	ErrNotFound = apperrors.ErrNotFound
)

// LeadDirectory provides read-only access to CRM leads. The dialer only
// needs enough to prefill the destination field; lead CRUD lives elsewhere.
type LeadDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Lead, error)
}

// CallLogStore durably persists finished-call records.
type CallLogStore interface {
	Append(ctx context.Context, record CallLogRecord) error
	ListByLead(ctx context.Context, leadID uuid.UUID, limit int, pagingState []byte) ([]CallLogRecord, []byte, error)
}

// CallLogRecord is the storage representation of a finished call.
type CallLogRecord struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	UserID          uuid.UUID
	CallTime        time.Time
	DurationSeconds int64
	Outcome         string
	Notes           string
	CreatedAt       time.Time
}
