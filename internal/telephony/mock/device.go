package mock

import (
	"math/rand"
	"sync"
	"time"

	"github.com/acme/lead-dialer/internal/domain"
	"github.com/acme/lead-dialer/internal/telephony"
)

// Factory builds simulated devices. It stands in for the real telephony
// client in development environments.
type Factory struct {
	successRate float64
	rng         *rand.Rand
	mu          sync.Mutex
}

// NewFactory constructs a mock factory with deterministic randomness.
func NewFactory() *Factory {
	return &Factory{
		successRate: 0.9,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewDevice creates a simulated device that signals ready shortly after
// construction.
func (f *Factory) NewDevice(cred *domain.Credential, opts telephony.DeviceOptions, events telephony.Events) (telephony.Device, error) {
	d := &Device{factory: f, events: events, from: cred.FromNumber}
	go func() {
		time.Sleep(f.jitter(50, 200))
		if events.OnReady != nil {
			events.OnReady()
		}
	}()
	return d, nil
}

func (f *Factory) jitter(minMs, maxMs int) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return time.Duration(minMs+f.rng.Intn(maxMs-minMs)) * time.Millisecond
}

func (f *Factory) roll() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Float64()
}

// Device simulates a registered telephony client.
type Device struct {
	factory *Factory
	events  telephony.Events
	from    string

	mu        sync.Mutex
	connected bool
	destroyed bool
}

// Connect simulates placing a call. Most attempts are accepted after a short
// dial delay; the remainder fail with a transient connection error.
func (d *Device) Connect(params telephony.ConnectParams) error {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return &telephony.CodeError{Code: telephony.CodeConnectionError, Message: "device destroyed"}
	}
	d.mu.Unlock()

	go func() {
		time.Sleep(d.factory.jitter(100, 500))
		if d.factory.roll() <= d.factory.successRate {
			d.mu.Lock()
			d.connected = true
			d.mu.Unlock()
			if d.events.OnAccept != nil {
				d.events.OnAccept()
			}
			return
		}
		if d.events.OnError != nil {
			d.events.OnError(telephony.CodeConnectionError, "simulated connection failure")
		}
	}()
	return nil
}

// Disconnect ends the simulated call and emits a disconnect event.
func (d *Device) Disconnect() error {
	d.mu.Lock()
	wasConnected := d.connected
	d.connected = false
	d.mu.Unlock()

	if wasConnected && d.events.OnDisconnect != nil {
		go d.events.OnDisconnect()
	}
	return nil
}

// Mute toggles the simulated mute state.
func (d *Device) Mute(muted bool) error {
	return nil
}

// SendDigits accepts DTMF digits.
func (d *Device) SendDigits(digits string) error {
	return nil
}

// Destroy releases the simulated device.
func (d *Device) Destroy() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = true
	d.connected = false
	return nil
}
