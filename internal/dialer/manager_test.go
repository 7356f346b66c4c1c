package dialer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/acme/lead-dialer/internal/domain"
	apperrors "github.com/acme/lead-dialer/pkg/errors"
)

type fakeCredentialSupplier struct {
	mu      sync.Mutex
	cred    *domain.Credential
	err     error
	fetches int
}

func (s *fakeCredentialSupplier) Fetch(ctx context.Context, userID uuid.UUID) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return s.cred, nil
}

type fakeLeadDirectory struct {
	leads map[uuid.UUID]*domain.Lead
	err   error
}

func (d *fakeLeadDirectory) Get(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	if d.err != nil {
		return nil, d.err
	}
	lead, ok := d.leads[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return lead, nil
}

func newTestManager(factory *fakeFactory, creds CredentialSupplier, leads LeadDirectory) *Manager {
	return NewManager(testLogger(), factory, &fakeSubmitter{}, creds, leads, testSettings())
}

func TestManagerOpenPrefillsAndInitializes(t *testing.T) {
	leadID := uuid.New()
	factory := &fakeFactory{}
	creds := &fakeCredentialSupplier{cred: testCredential()}
	leads := &fakeLeadDirectory{leads: map[uuid.UUID]*domain.Lead{
		leadID: {ID: leadID, FirstName: "Dana", PhoneNumber: "5551234567"},
	}}
	m := newTestManager(factory, creds, leads)

	id, ctrl, err := m.Open(context.Background(), OpenInput{UserID: uuid.New(), LeadID: leadID})
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	defer ctrl.Teardown()

	if creds.fetches != 1 {
		t.Fatalf("credential fetches = %d, want 1", creds.fetches)
	}
	if got := factory.calls(); got != 1 {
		t.Fatalf("factory calls = %d, want 1", got)
	}
	if snap := ctrl.Snapshot(); snap.Number != "5551234567" {
		t.Fatalf("prefilled number = %q, want the lead phone", snap.Number)
	}

	got, err := m.Get(id)
	if err != nil || got != ctrl {
		t.Fatalf("Get(%s) = %v, %v; want the opened controller", id, got, err)
	}
}

func TestManagerOpenRequiresUser(t *testing.T) {
	m := newTestManager(&fakeFactory{}, &fakeCredentialSupplier{cred: testCredential()}, nil)

	_, _, err := m.Open(context.Background(), OpenInput{})
	if !apperrors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("Open without user = %v, want validation error", err)
	}
}

func TestManagerOpenCredentialFailure(t *testing.T) {
	factory := &fakeFactory{}
	creds := &fakeCredentialSupplier{err: errors.New("token endpoint down")}
	m := newTestManager(factory, creds, nil)

	if _, _, err := m.Open(context.Background(), OpenInput{UserID: uuid.New()}); err == nil {
		t.Fatal("Open succeeded despite credential failure")
	}

	// Force opens a degraded session with no device registered; the lack of
	// a credential surfaces on the first call attempt instead.
	_, ctrl, err := m.Open(context.Background(), OpenInput{UserID: uuid.New(), Force: true})
	if err != nil {
		t.Fatalf("forced Open() = %v", err)
	}
	defer ctrl.Teardown()
	if got := factory.calls(); got != 0 {
		t.Fatalf("factory calls = %d, want 0", got)
	}
	if err := ctrl.PlaceCall(context.Background(), "5551234567"); !apperrors.Is(err, apperrors.ErrUnavailable) {
		t.Fatalf("PlaceCall on degraded session = %v, want unavailable error", err)
	}
}

func TestManagerOpenSurvivesLeadLookupFailure(t *testing.T) {
	factory := &fakeFactory{}
	creds := &fakeCredentialSupplier{cred: testCredential()}
	leads := &fakeLeadDirectory{err: errors.New("directory offline")}
	m := newTestManager(factory, creds, leads)

	_, ctrl, err := m.Open(context.Background(), OpenInput{UserID: uuid.New(), LeadID: uuid.New()})
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	defer ctrl.Teardown()
	if snap := ctrl.Snapshot(); snap.Number != "" {
		t.Fatalf("prefilled number = %q, want empty", snap.Number)
	}
}

func TestManagerCloseReapsOnlyWhenAllowed(t *testing.T) {
	factory := &fakeFactory{}
	creds := &fakeCredentialSupplier{cred: testCredential()}
	m := newTestManager(factory, creds, nil)

	id, ctrl, err := m.Open(context.Background(), OpenInput{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	factory.deviceEvents(0).OnReady()

	if err := ctrl.PlaceCall(context.Background(), "5551234567"); err != nil {
		t.Fatalf("PlaceCall() = %v", err)
	}
	factory.deviceEvents(0).OnAccept()

	if err := m.Close(id, false); !apperrors.Is(err, apperrors.ErrCallActive) {
		t.Fatalf("Close during call = %v, want call-active error", err)
	}
	if _, err := m.Get(id); err != nil {
		t.Fatalf("session was reaped despite rejected close: %v", err)
	}

	if err := ctrl.HangUp(); err != nil {
		t.Fatalf("HangUp() = %v", err)
	}
	if err := m.Close(id, true); err != nil {
		t.Fatalf("Close(cancel) = %v", err)
	}
	if _, err := m.Get(id); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Get after close = %v, want not-found error", err)
	}
}

func TestManagerShutdownTearsDownAll(t *testing.T) {
	factory := &fakeFactory{}
	creds := &fakeCredentialSupplier{cred: testCredential()}
	m := newTestManager(factory, creds, nil)

	for i := 0; i < 3; i++ {
		if _, _, err := m.Open(context.Background(), OpenInput{UserID: uuid.New()}); err != nil {
			t.Fatalf("Open() = %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Shutdown(ctx)

	for i := 0; i < 3; i++ {
		dev := factory.device(i)
		dev.mu.Lock()
		destroyed := dev.destroyed
		dev.mu.Unlock()
		if !destroyed {
			t.Errorf("device %d was not destroyed on shutdown", i)
		}
	}
}
