package telephony

import (
	"errors"
	"testing"
)

func TestIsTransientCode(t *testing.T) {
	for _, code := range []int{CodeConnectionTimeout, CodeConnectionError, CodeTransportError} {
		if !IsTransientCode(code) {
			t.Errorf("IsTransientCode(%d) = false, want true", code)
		}
	}
	for _, code := range []int{0, 31000, 31002, 20003} {
		if IsTransientCode(code) {
			t.Errorf("IsTransientCode(%d) = true, want false", code)
		}
	}
}

func TestErrorCode(t *testing.T) {
	err := &CodeError{Code: CodeConnectionError, Message: "socket dropped"}
	if got := ErrorCode(err); got != CodeConnectionError {
		t.Fatalf("ErrorCode() = %d, want %d", got, CodeConnectionError)
	}
	if got := ErrorCode(errors.New("plain")); got != 0 {
		t.Fatalf("ErrorCode(plain) = %d, want 0", got)
	}
}
