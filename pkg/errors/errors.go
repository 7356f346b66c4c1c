package errors

import "errors"

// Sentinels for domain errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("service unavailable")

	// ErrCallActive signals an operation rejected while a call is in progress.
	ErrCallActive = errors.New("call active")
	// ErrNoDevice signals that no telephony device is registered for the session.
	ErrNoDevice = errors.New("no telephony device")
	// ErrLogPending signals a call outcome that has not been logged yet.
	ErrLogPending = errors.New("call log pending")
)

// Is reports whether err is one of the sentinels.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Wrap adds context to an error.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Join(errors.New(message), err)
}
