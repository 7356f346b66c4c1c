package dialer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/lead-dialer/internal/domain"
	"github.com/acme/lead-dialer/internal/telephony"
	apperrors "github.com/acme/lead-dialer/pkg/errors"
	"github.com/acme/lead-dialer/pkg/logger"
)

// CredentialSupplier fetches a telephony credential for a caller identity.
type CredentialSupplier interface {
	Fetch(ctx context.Context, userID uuid.UUID) (*domain.Credential, error)
}

// LeadDirectory resolves leads for destination prefill.
type LeadDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
}

// Manager owns one controller per open dialer dialog.
type Manager struct {
	log         *logger.Logger
	factory     telephony.Factory
	submitter   Submitter
	credentials CredentialSupplier
	leads       LeadDirectory
	settings    Settings

	mu       sync.Mutex
	sessions map[uuid.UUID]*Controller
}

// NewManager constructs a session manager.
func NewManager(
	log *logger.Logger,
	factory telephony.Factory,
	submitter Submitter,
	credentials CredentialSupplier,
	leads LeadDirectory,
	settings Settings,
) *Manager {
	return &Manager{
		log:         log,
		factory:     factory,
		submitter:   submitter,
		credentials: credentials,
		leads:       leads,
		settings:    settings,
		sessions:    make(map[uuid.UUID]*Controller),
	}
}

// OpenInput are the arguments for opening a dialog session.
type OpenInput struct {
	UserID uuid.UUID
	LeadID uuid.UUID
	// Force opens the session even when the credential fetch fails. The
	// resulting session is degraded and call placement will most likely be
	// rejected, but the user is not blocked from the dialog.
	Force bool
}

// Open creates a session: the lead is resolved for prefill, a credential is
// fetched once, and device initialization starts. Initialization failures are
// recoverable and do not fail the open.
func (m *Manager) Open(ctx context.Context, input OpenInput) (uuid.UUID, *Controller, error) {
	if input.UserID == uuid.Nil {
		return uuid.Nil, nil, fmt.Errorf("%w: user id is required", apperrors.ErrValidation)
	}

	ctrl := NewController(Options{
		Logger:    m.log,
		Factory:   m.factory,
		Submitter: m.submitter,
		Settings:  m.settings,
		UserID:    input.UserID,
		LeadID:    input.LeadID,
	})

	if input.LeadID != uuid.Nil && m.leads != nil {
		lead, err := m.leads.Get(ctx, input.LeadID)
		if err != nil {
			m.log.Warn("lead lookup failed, opening without prefill",
				zap.String("lead_id", input.LeadID.String()), zap.Error(err))
		} else if lead.PhoneNumber != "" {
			ctrl.PrefillNumber(lead.PhoneNumber)
		}
	}

	cred, err := m.credentials.Fetch(ctx, input.UserID)
	if err != nil {
		if !input.Force {
			return uuid.Nil, nil, fmt.Errorf("dialer: fetch credential: %w", err)
		}
		m.log.Warn("credential fetch failed, opening degraded session",
			zap.String("user_id", input.UserID.String()), zap.Error(err))
	} else {
		ctrl.SetCredential(cred)
		if initErr := ctrl.Initialize(); initErr != nil {
			m.log.Warn("initial device registration failed",
				zap.String("user_id", input.UserID.String()), zap.Error(initErr))
		}
	}

	id := uuid.New()
	m.mu.Lock()
	m.sessions[id] = ctrl
	m.mu.Unlock()

	return id, ctrl, nil
}

// Get returns the controller for a session id.
func (m *Manager) Get(id uuid.UUID) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, id)
	}
	return ctrl, nil
}

// Close ends a session and removes it from the manager. Closing is subject
// to the controller's own guards; the session is only reaped when the
// controller agrees to close.
func (m *Manager) Close(id uuid.UUID, cancel bool) error {
	ctrl, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := ctrl.Close(cancel); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Shutdown tears down every open session unconditionally.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Controller, 0, len(m.sessions))
	for id, ctrl := range m.sessions {
		sessions = append(sessions, ctrl)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for _, ctrl := range sessions {
			ctrl.Teardown()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.log.Warn("session teardown timed out", zap.Int("sessions", len(sessions)))
	case <-time.After(10 * time.Second):
		m.log.Warn("session teardown timed out", zap.Int("sessions", len(sessions)))
	}
}
