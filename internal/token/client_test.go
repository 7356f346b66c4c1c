package token

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/acme/lead-dialer/internal/config"
	apperrors "github.com/acme/lead-dialer/pkg/errors"
)

func TestFetchParsesCredential(t *testing.T) {
	userID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("identity"); got != userID.String() {
			t.Errorf("identity query = %q, want %q", got, userID)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"token": "jwt-abc",
			"from_number": "+15550000001",
			"identity": "agent-1",
			"expires_at": "2026-09-01T12:00:00Z"
		}`))
	}))
	defer srv.Close()

	client := NewClient(config.TokenConfig{Endpoint: srv.URL, RequestTimeout: time.Second})
	cred, err := client.Fetch(context.Background(), userID)
	if err != nil {
		t.Fatalf("Fetch() = %v", err)
	}
	if cred.Token != "jwt-abc" || cred.FromNumber != "+15550000001" || cred.Identity != "agent-1" {
		t.Fatalf("credential = %+v", cred)
	}
	if cred.ExpiresAt.IsZero() {
		t.Fatal("expiry was not parsed")
	}
}

func TestFetchRejectsErrorResponses(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"empty token", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"token": ""}`))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			client := NewClient(config.TokenConfig{Endpoint: srv.URL})
			if _, err := client.Fetch(context.Background(), uuid.New()); !apperrors.Is(err, apperrors.ErrUnavailable) {
				t.Fatalf("Fetch() = %v, want unavailable error", err)
			}
		})
	}
}
