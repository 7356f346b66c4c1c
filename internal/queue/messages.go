package queue

import (
	"time"

	"github.com/google/uuid"
)

// CallLogMessage is the wire form of a finished-call record.
type CallLogMessage struct {
	RecordID        uuid.UUID `json:"record_id"`
	LeadID          uuid.UUID `json:"lead_id"`
	UserID          uuid.UUID `json:"user_id"`
	CallTime        time.Time `json:"call_time"`
	DurationSeconds int64     `json:"duration_seconds"`
	Outcome         string    `json:"outcome"`
	Notes           string    `json:"notes,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
}
