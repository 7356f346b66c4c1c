package dialer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/lead-dialer/internal/domain"
	"github.com/acme/lead-dialer/internal/telephony"
	apperrors "github.com/acme/lead-dialer/pkg/errors"
	"github.com/acme/lead-dialer/pkg/logger"
)

// State enumerates the controller lifecycle states.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateReady
	StateConnecting
	StateInCall
	StatePostCallLogging
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateConnecting:
		return "connecting"
	case StateInCall:
		return "in_call"
	case StatePostCallLogging:
		return "post_call_logging"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Submitter is the accept/reject contract of the call-log sink.
type Submitter interface {
	Submit(ctx context.Context, record domain.CallLogRecord) error
}

// Settings carries the controller timing and retry constants. The values are
// tuned by observation of the telephony client, not mandated by any protocol.
type Settings struct {
	ReadyTimeout      time.Duration
	ReinitSettle      time.Duration
	ConnectBackoff    time.Duration
	MaxInitAttempts   int
	MaxConnectRetries int
	TickInterval      time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.ReadyTimeout <= 0 {
		s.ReadyTimeout = 5 * time.Second
	}
	if s.ReinitSettle <= 0 {
		s.ReinitSettle = 2 * time.Second
	}
	if s.ConnectBackoff <= 0 {
		s.ConnectBackoff = 1500 * time.Millisecond
	}
	if s.MaxInitAttempts <= 0 {
		s.MaxInitAttempts = 3
	}
	if s.MaxConnectRetries <= 0 {
		s.MaxConnectRetries = 2
	}
	if s.TickInterval <= 0 {
		s.TickInterval = time.Second
	}
	return s
}

// Options bundles the dependencies of a controller.
type Options struct {
	Logger    *logger.Logger
	Factory   telephony.Factory
	Submitter Submitter
	Settings  Settings
	Clock     func() time.Time
	UserID    uuid.UUID
	LeadID    uuid.UUID
}

// Controller drives one dialer dialog session: device registration, outbound
// call placement, mid-call control, reconnection on transient failure, and
// teardown. All adapter events and user actions are serialized through a
// single mutex; the device handle and active call are single-slot fields so
// the one-at-a-time invariants are structural.
type Controller struct {
	log       *logger.Logger
	factory   telephony.Factory
	submitter Submitter
	settings  Settings
	policy    RetryPolicy
	now       func() time.Time

	userID uuid.UUID
	leadID uuid.UUID

	mu             sync.Mutex
	state          State
	closed         bool
	lastError      string
	confirmedReady bool

	credential *domain.Credential
	device     telephony.Device

	initAttempts int
	initializing bool
	readyTimer   *time.Timer
	retryTimer   *time.Timer

	pendingNumber string
	reconnects    int
	call          *domain.ActiveCall
	timer         *CallTimer

	numberBuffer string
	muted        bool
	speaker      bool
	incomingFrom string
	draft        *domain.OutcomeDraft
}

// NewController constructs a controller in the Idle state.
func NewController(opts Options) *Controller {
	settings := opts.Settings.withDefaults()
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	c := &Controller{
		log:       opts.Logger,
		factory:   opts.Factory,
		submitter: opts.Submitter,
		settings:  settings,
		now:       clock,
		userID:    opts.UserID,
		leadID:    opts.LeadID,
		policy: RetryPolicy{
			MaxRetries: settings.MaxConnectRetries,
			Backoff:    settings.ConnectBackoff,
			Retryable:  telephony.IsTransientCode,
		},
	}
	c.timer = NewCallTimer(clock, settings.TickInterval, nil)
	return c
}

func deviceOptions() telephony.DeviceOptions {
	return telephony.DeviceOptions{
		AllowIncomingWhileBusy: true,
		CloseProtection:        true,
		Sounds:                 true,
	}
}

// SetCredential installs the telephony credential for this session.
func (c *Controller) SetCredential(cred *domain.Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = cred
}

// PrefillNumber seeds the destination field, typically from the lead record.
func (c *Controller) PrefillNumber(number string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.numberBuffer = number
}

// Initialize constructs the telephony device for the held credential. Calling
// it while a previous initialization is in flight is a no-op, so re-fired
// open events never register a second device. Attempts are counted per
// session; once the ceiling is reached the controller proceeds unconfirmed
// instead of looping.
func (c *Controller) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initializeLocked()
}

func (c *Controller) initializeLocked() error {
	if c.closed {
		return fmt.Errorf("dialer: session closed")
	}
	if c.initializing {
		return nil
	}
	if c.credential == nil {
		c.lastError = "no telephony credential available"
		return fmt.Errorf("%w: no credential held", apperrors.ErrNoDevice)
	}
	if c.initAttempts >= c.settings.MaxInitAttempts {
		c.confirmedReady = false
		c.state = StateReady
		c.log.Warn("initialization attempts exhausted, proceeding unconfirmed",
			zap.Int("attempts", c.initAttempts))
		return nil
	}

	c.initAttempts++
	c.initializing = true
	c.state = StateInitializing
	c.releaseDeviceLocked()

	dev, err := c.factory.NewDevice(c.credential, deviceOptions(), telephony.Events{
		OnReady:      c.handleReady,
		OnError:      c.handleDeviceError,
		OnAccept:     c.handleAccept,
		OnDisconnect: c.handleDisconnect,
		OnIncoming:   c.handleIncoming,
	})
	if err != nil {
		c.initializing = false
		c.state = StateError
		c.lastError = "could not start the phone client"
		c.log.Error("device construction failed",
			zap.Int("attempt", c.initAttempts), zap.Error(err))
		return fmt.Errorf("dialer: construct device: %w", err)
	}

	c.device = dev
	// Ready is advisory: if the client never confirms, proceed anyway so a
	// slow registration does not block the dialog forever.
	c.readyTimer = time.AfterFunc(c.settings.ReadyTimeout, c.onReadyTimeout)
	return nil
}

func (c *Controller) handleReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopReadyTimerLocked()
	c.initializing = false
	c.initAttempts = 0
	c.confirmedReady = true
	c.lastError = ""
	if c.state == StateInitializing || c.state == StateError {
		c.state = StateReady
	}
}

func (c *Controller) onReadyTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.initializing {
		return
	}
	c.initializing = false
	c.confirmedReady = false
	if c.state == StateInitializing {
		c.state = StateReady
	}
	c.log.Warn("device never confirmed ready, proceeding unconfirmed",
		zap.Duration("timeout", c.settings.ReadyTimeout))
}

func (c *Controller) handleDeviceError(code int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	switch c.state {
	case StateConnecting:
		c.handleCallErrorLocked(code, message)
	case StateInCall:
		c.lastError = message
		c.finishCallLocked()
	default:
		// Registration failure: mark initialization finished rather than
		// stuck, release the broken device, and let the next call attempt
		// re-initialize just in time.
		c.stopReadyTimerLocked()
		c.initializing = false
		c.releaseDeviceLocked()
		c.state = StateError
		c.lastError = message
		c.log.Warn("device registration error",
			zap.Int("code", code), zap.String("message", message))
	}
}

// PlaceCall normalizes the destination and starts an outbound connect
// attempt. When no live device exists but a credential does, a new device is
// built inline and given a short settle period; this is best effort, and a
// subsequent connect failure is handled by ordinary call-error policy.
//
// Connect failures do not surface as a returned error: every attempt that
// reaches Connecting routes to post-call logging so the user can record an
// outcome.
func (c *Controller) PlaceCall(ctx context.Context, raw string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("dialer: session closed")
	}
	switch c.state {
	case StateConnecting, StateInCall:
		c.mu.Unlock()
		return fmt.Errorf("%w: a call is already in progress", apperrors.ErrCallActive)
	case StatePostCallLogging:
		c.mu.Unlock()
		return fmt.Errorf("%w: log the previous call first", apperrors.ErrLogPending)
	case StateInitializing:
		c.mu.Unlock()
		return fmt.Errorf("%w: still registering the phone client", apperrors.ErrUnavailable)
	}
	if raw == "" {
		raw = c.numberBuffer
	}
	to := NormalizeNumber(raw)
	if to == "" {
		c.mu.Unlock()
		return fmt.Errorf("%w: destination number is required", apperrors.ErrValidation)
	}
	if c.credential == nil || c.credential.Expired(c.now()) {
		c.mu.Unlock()
		return fmt.Errorf("%w: telephony credential missing or expired", apperrors.ErrUnavailable)
	}
	c.numberBuffer = to

	needSettle := false
	if c.device == nil {
		if err := c.initializeLocked(); err != nil {
			c.mu.Unlock()
			return err
		}
		needSettle = c.device != nil
	}
	c.mu.Unlock()

	if needSettle {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.settings.ReinitSettle):
		}
	}

	c.mu.Lock()
	if c.closed || c.device == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: phone client unavailable", apperrors.ErrNoDevice)
	}
	c.pendingNumber = to
	c.reconnects = 0
	c.incomingFrom = ""
	c.state = StateConnecting
	dev := c.device
	params := telephony.ConnectParams{To: to, From: c.credential.FromNumber}
	c.mu.Unlock()

	c.connect(dev, params)
	return nil
}

// connect issues the connect operation outside the lock; adapter event
// callbacks re-enter the controller through their own locking.
func (c *Controller) connect(dev telephony.Device, params telephony.ConnectParams) {
	err := dev.Connect(params)
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateConnecting {
		c.handleCallErrorLocked(telephony.ErrorCode(err), err.Error())
	}
}

func (c *Controller) handleCallErrorLocked(code int, message string) {
	if c.device != nil && c.policy.ShouldRetry(code, c.reconnects) {
		c.reconnects++
		c.log.Warn("transient call error, scheduling reconnect",
			zap.Int("code", code), zap.Int("reconnect", c.reconnects))
		c.retryTimer = time.AfterFunc(c.policy.Backoff, c.retryConnect)
		return
	}
	c.lastError = message
	c.log.Warn("call failed",
		zap.Int("code", code), zap.String("message", message))
	c.finishCallLocked()
}

func (c *Controller) retryConnect() {
	c.mu.Lock()
	// The session may have been torn down while the backoff timer was
	// pending; acting on released state is not allowed.
	if c.closed || c.device == nil || c.state != StateConnecting {
		c.mu.Unlock()
		return
	}
	dev := c.device
	params := telephony.ConnectParams{To: c.pendingNumber, From: c.credential.FromNumber}
	c.mu.Unlock()

	c.connect(dev, params)
}

func (c *Controller) handleAccept() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StateConnecting {
		return
	}
	now := c.now()
	c.call = &domain.ActiveCall{
		RemoteNumber: c.pendingNumber,
		Direction:    domain.CallDirectionOutbound,
		ConnectedAt:  now,
	}
	c.muted = false
	c.timer.Start(now)
	c.reconnects = 0
	c.incomingFrom = ""
	c.state = StateInCall
}

func (c *Controller) handleDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.state == StateInCall || c.state == StateConnecting {
		c.finishCallLocked()
	}
}

func (c *Controller) handleIncoming(from string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.state == StateReady {
		c.incomingFrom = from
	}
}

// finishCallLocked routes any terminal outcome of a connect attempt to the
// post-call logging form. Every attempt that reached Connecting produces a
// duration and a chance to record an outcome.
func (c *Controller) finishCallLocked() {
	duration := c.timer.Stop()
	callTime := c.now()
	if c.call != nil {
		callTime = c.call.ConnectedAt
	}
	c.call = nil
	c.pendingNumber = ""
	c.stopRetryTimerLocked()
	c.draft = &domain.OutcomeDraft{CallTime: callTime, Duration: duration}
	c.state = StatePostCallLogging
}

// HangUp ends the current call. The adapter is asked to disconnect first, but
// a disconnect failure never blocks the transition; the call is being torn
// down either way.
func (c *Controller) HangUp() error {
	c.mu.Lock()
	if c.state != StateInCall && c.state != StateConnecting {
		c.mu.Unlock()
		return fmt.Errorf("%w: no active call", apperrors.ErrValidation)
	}
	dev := c.device
	c.mu.Unlock()

	if dev != nil {
		if err := dev.Disconnect(); err != nil {
			c.log.Warn("disconnect failed during hangup", zap.Error(err))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateInCall || c.state == StateConnecting {
		c.finishCallLocked()
	}
	return nil
}

// ToggleMute flips the mute flag. The local flag flips before the adapter
// result comes back; muting is best effort and a failed request is logged,
// not surfaced.
func (c *Controller) ToggleMute() error {
	c.mu.Lock()
	if c.call == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: no active call", apperrors.ErrValidation)
	}
	c.call.Muted = !c.call.Muted
	c.muted = c.call.Muted
	target := c.muted
	dev := c.device
	c.mu.Unlock()

	if dev != nil {
		if err := dev.Mute(target); err != nil {
			c.log.Warn("mute request failed", zap.Bool("muted", target), zap.Error(err))
		}
	}
	return nil
}

// ToggleSpeaker flips the speaker flag. Audio routing is a display-side
// affordance, so no adapter call is involved.
func (c *Controller) ToggleSpeaker() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speaker = !c.speaker
}

// PressDigit records a keypad press. The digit always lands in the visible
// number field, which doubles as a dial pad before a call and a digit log
// during one; during an active call it is also sent as DTMF.
func (c *Controller) PressDigit(digit string) error {
	if len(digit) != 1 || !strings.ContainsAny(digit, "0123456789*#") {
		return fmt.Errorf("%w: invalid dial pad digit %q", apperrors.ErrValidation, digit)
	}

	c.mu.Lock()
	c.numberBuffer += digit
	inCall := c.state == StateInCall
	dev := c.device
	c.mu.Unlock()

	if inCall && dev != nil {
		if err := dev.SendDigits(digit); err != nil {
			c.log.Warn("dtmf send failed", zap.String("digit", digit), zap.Error(err))
		}
	}
	return nil
}

// SubmitOutcome emits the call-log record for the finished call and returns
// the session to Idle. The draft is retained when the sink rejects the
// record, so submission can be retried.
func (c *Controller) SubmitOutcome(ctx context.Context, outcome domain.CallOutcome, notes string) (*domain.CallLogRecord, error) {
	c.mu.Lock()
	if c.state != StatePostCallLogging || c.draft == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: no finished call to log", apperrors.ErrValidation)
	}
	if !domain.ValidOutcome(outcome) {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: unknown outcome %q", apperrors.ErrValidation, outcome)
	}
	record := domain.CallLogRecord{
		ID:       uuid.New(),
		LeadID:   c.leadID,
		UserID:   c.userID,
		CallTime: c.draft.CallTime,
		Duration: c.draft.Duration,
		Outcome:  outcome,
		Notes:    notes,
	}
	c.mu.Unlock()

	if err := c.submitter.Submit(ctx, record); err != nil {
		return nil, fmt.Errorf("dialer: submit call log: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = nil
	c.lastError = ""
	c.state = StateIdle
	return &record, nil
}

// CancelPostCall abandons a pending outcome draft.
func (c *Controller) CancelPostCall() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePostCallLogging {
		return fmt.Errorf("%w: no pending call log", apperrors.ErrValidation)
	}
	c.draft = nil
	c.state = StateIdle
	return nil
}

// Close ends the dialog session. Closing is rejected while a call is active
// and while an outcome is pending unless cancel is set.
func (c *Controller) Close(cancel bool) error {
	c.mu.Lock()
	if c.state == StateInCall || c.state == StateConnecting {
		c.mu.Unlock()
		return fmt.Errorf("%w: end the call before closing", apperrors.ErrCallActive)
	}
	if c.state == StatePostCallLogging && !cancel {
		c.mu.Unlock()
		return fmt.Errorf("%w: submit or cancel the call log first", apperrors.ErrLogPending)
	}
	c.mu.Unlock()

	c.Teardown()
	return nil
}

// Teardown unconditionally releases session resources: pending timers are
// cancelled, any active call is disconnected, and the device is destroyed.
// Adapter misbehaviour is logged and swallowed; resource release must never
// be blocked by it.
func (c *Controller) Teardown() {
	c.mu.Lock()
	c.closed = true
	c.stopReadyTimerLocked()
	c.stopRetryTimerLocked()
	c.timer.Stop()
	dev := c.device
	c.device = nil
	c.call = nil
	c.draft = nil
	c.credential = nil
	c.pendingNumber = ""
	c.state = StateIdle
	c.mu.Unlock()

	if dev == nil {
		return
	}
	if err := dev.Disconnect(); err != nil {
		c.log.Warn("teardown disconnect failed", zap.Error(err))
	}
	if err := dev.Destroy(); err != nil {
		c.log.Warn("teardown destroy failed", zap.Error(err))
	}
}

// releaseDeviceLocked disposes of the previous device handle before a new
// one is created, so a session never holds duplicate registrations.
func (c *Controller) releaseDeviceLocked() {
	dev := c.device
	if dev == nil {
		return
	}
	c.device = nil
	go func() {
		if err := dev.Disconnect(); err != nil {
			c.log.Warn("release disconnect failed", zap.Error(err))
		}
		if err := dev.Destroy(); err != nil {
			c.log.Warn("release destroy failed", zap.Error(err))
		}
	}()
}

func (c *Controller) stopReadyTimerLocked() {
	if c.readyTimer != nil {
		c.readyTimer.Stop()
		c.readyTimer = nil
	}
}

func (c *Controller) stopRetryTimerLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

// Snapshot is the UI-facing view of a session.
type Snapshot struct {
	State          State                `json:"state"`
	Status         domain.SessionStatus `json:"status"`
	Number         string               `json:"number"`
	ElapsedSeconds int64                `json:"elapsed_seconds"`
	Muted          bool                 `json:"muted"`
	Speaker        bool                 `json:"speaker"`
	ConfirmedReady bool                 `json:"confirmed_ready"`
	IncomingFrom   string               `json:"incoming_from,omitempty"`
	LastError      string               `json:"last_error,omitempty"`
	PendingOutcome bool                 `json:"pending_outcome"`
}

// Snapshot reports the current UI-facing state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:          c.state,
		Number:         c.numberBuffer,
		Muted:          c.muted,
		Speaker:        c.speaker,
		ConfirmedReady: c.confirmedReady,
		IncomingFrom:   c.incomingFrom,
		LastError:      c.lastError,
		PendingOutcome: c.draft != nil,
	}

	switch c.state {
	case StateConnecting:
		snap.Status = domain.SessionStatusConnecting
	case StateInCall:
		snap.Status = domain.SessionStatusInProgress
		snap.ElapsedSeconds = int64(c.timer.Elapsed().Seconds())
	case StatePostCallLogging:
		snap.Status = domain.SessionStatusEnded
		if c.draft != nil {
			snap.ElapsedSeconds = int64(c.draft.Duration.Seconds())
		}
	default:
		if c.incomingFrom != "" {
			snap.Status = domain.SessionStatusIncoming
		} else {
			snap.Status = domain.SessionStatusIdle
		}
	}
	return snap
}

func (s State) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}
