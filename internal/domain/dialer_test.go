package domain

import (
	"testing"
	"time"
)

func TestValidOutcome(t *testing.T) {
	for _, o := range []CallOutcome{OutcomeAnswered, OutcomeVoicemail, OutcomeNoAnswer, OutcomeWrongNumber} {
		if !ValidOutcome(o) {
			t.Errorf("ValidOutcome(%q) = false, want true", o)
		}
	}
	for _, o := range []CallOutcome{"", "busy", "ANSWERED"} {
		if ValidOutcome(o) {
			t.Errorf("ValidOutcome(%q) = true, want false", o)
		}
	}
}

func TestCredentialExpired(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	// A credential without an expiry never expires.
	open := &Credential{Token: "t"}
	if open.Expired(now) {
		t.Error("zero-expiry credential reported expired")
	}

	live := &Credential{Token: "t", ExpiresAt: now.Add(time.Hour)}
	if live.Expired(now) {
		t.Error("live credential reported expired")
	}

	stale := &Credential{Token: "t", ExpiresAt: now.Add(-time.Minute)}
	if !stale.Expired(now) {
		t.Error("stale credential reported live")
	}
}
