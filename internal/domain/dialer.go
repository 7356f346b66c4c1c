package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the discrete status signal consumed by presentation code.
type SessionStatus string

const (
	SessionStatusIdle       SessionStatus = ""
	SessionStatusConnecting SessionStatus = "connecting"
	SessionStatusInProgress SessionStatus = "in-progress"
	SessionStatusIncoming   SessionStatus = "incoming"
	SessionStatusEnded      SessionStatus = "ended"
)

// CallDirection distinguishes outbound and inbound calls.
type CallDirection string

const (
	CallDirectionOutbound CallDirection = "outbound"
	CallDirectionInbound  CallDirection = "inbound"
)

// CallOutcome enumerates the loggable results of a finished call.
type CallOutcome string

const (
	OutcomeAnswered    CallOutcome = "answered"
	OutcomeVoicemail   CallOutcome = "voicemail"
	OutcomeNoAnswer    CallOutcome = "no_answer"
	OutcomeWrongNumber CallOutcome = "wrong_number"
)

// ValidOutcome reports whether the outcome is one of the known values.
func ValidOutcome(o CallOutcome) bool {
	switch o {
	case OutcomeAnswered, OutcomeVoicemail, OutcomeNoAnswer, OutcomeWrongNumber:
		return true
	}
	return false
}

// Credential is a short-lived telephony access token bound to a caller
// identity. A call may only be placed while a non-expired credential is held.
type Credential struct {
	Token      string
	FromNumber string
	Identity   string
	ExpiresAt  time.Time
}

// Expired reports whether the credential has passed its expiry.
func (c *Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ActiveCall tracks the single in-flight call of a session.
type ActiveCall struct {
	RemoteNumber string
	Direction    CallDirection
	ConnectedAt  time.Time
	Muted        bool
}

// OutcomeDraft holds the post-call logging form data assembled after a call
// ends. It is cleared on submit or when the dialog is cancelled.
type OutcomeDraft struct {
	CallTime time.Time
	Duration time.Duration
	Outcome  CallOutcome
	Notes    string
}

// CallLogRecord is the finished-call record emitted to the rest of the
// application.
type CallLogRecord struct {
	ID       uuid.UUID
	LeadID   uuid.UUID
	UserID   uuid.UUID
	CallTime time.Time
	Duration time.Duration
	Outcome  CallOutcome
	Notes    string
}

// Lead is the read-only slice of a CRM lead the dialer needs: a display name
// and a phone number to prefill the destination field.
type Lead struct {
	ID          uuid.UUID
	FirstName   string
	LastName    string
	PhoneNumber string
	Status      string
	CreatedAt   time.Time
}
