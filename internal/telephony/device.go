package telephony

import (
	"fmt"

	"github.com/acme/lead-dialer/internal/domain"
)

// DeviceOptions is the minimal option set passed to device construction.
// Excess configuration is observed to destabilize client registration, so
// nothing beyond these three knobs is exposed.
type DeviceOptions struct {
	AllowIncomingWhileBusy bool
	CloseProtection        bool
	Sounds                 bool
}

// ConnectParams are the parameters of an outbound connect attempt.
type ConnectParams struct {
	To   string
	From string
}

// Events is the event-emission contract of a device. Handlers are invoked
// asynchronously by the underlying client and may interleave with
// user-initiated operations.
type Events struct {
	OnReady      func()
	OnError      func(code int, message string)
	OnAccept     func()
	OnDisconnect func()
	OnIncoming   func(from string)
}

// Device is the narrow interface wrapping the third-party telephony client.
type Device interface {
	Connect(params ConnectParams) error
	Disconnect() error
	Mute(muted bool) error
	SendDigits(digits string) error
	Destroy() error
}

// Factory constructs devices from a credential. Exactly one live device may
// exist per dialer session; callers release the previous device before
// requesting a new one.
type Factory interface {
	NewDevice(cred *domain.Credential, opts DeviceOptions, events Events) (Device, error)
}

// Transient connection error codes reported by the client. Errors in this
// class are worth retrying; anything else is terminal for the attempt.
const (
	CodeConnectionTimeout = 31003
	CodeConnectionError   = 31005
	CodeTransportError    = 31009
)

// IsTransientCode reports whether the error code belongs to the
// transient-connection class.
func IsTransientCode(code int) bool {
	switch code {
	case CodeConnectionTimeout, CodeConnectionError, CodeTransportError:
		return true
	}
	return false
}

// CodeError is an adapter error carrying a client error code.
type CodeError struct {
	Code    int
	Message string
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("telephony error %d: %s", e.Code, e.Message)
}

// ErrorCode extracts the client error code from err, or 0 when err carries
// none.
func ErrorCode(err error) int {
	if ce, ok := err.(*CodeError); ok {
		return ce.Code
	}
	return 0
}
