package ble

import (
	"sync"

	"github.com/sweeney/midi-button/internal/logic"
)

// FakeTransport is a test double for Peripheral. Connect and Disconnect
// post to the mailbox the way the Bluetooth stack's callback does.
type FakeTransport struct {
	mu sync.Mutex

	mailbox *logic.Mailbox

	// Advertising counts StartAdvertising calls.
	Advertising int

	// Sent contains delivered payloads.
	Sent [][]byte

	// Dropped contains payloads rejected because no peer was connected.
	Dropped [][]byte

	// AdvertiseError, if set, is returned by StartAdvertising.
	AdvertiseError error

	connected bool
}

// NewFakeTransport creates a disconnected FakeTransport.
func NewFakeTransport(mailbox *logic.Mailbox) *FakeTransport {
	return &FakeTransport{mailbox: mailbox}
}

// StartAdvertising records the call.
func (f *FakeTransport) StartAdvertising() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AdvertiseError != nil {
		return f.AdvertiseError
	}
	f.Advertising++
	return nil
}

// Send records the payload, or drops it when disconnected.
func (f *FakeTransport) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := append([]byte(nil), payload...)
	if !f.connected {
		f.Dropped = append(f.Dropped, p)
		return logic.ErrNotReady
	}
	f.Sent = append(f.Sent, p)
	return nil
}

// Connect simulates a central connecting.
func (f *FakeTransport) Connect() {
	f.setConnected(true)
	f.mailbox.Post(logic.Connected)
}

// Disconnect simulates the central going away.
func (f *FakeTransport) Disconnect() {
	f.setConnected(false)
	f.mailbox.Post(logic.Disconnected)
}

// IsConnected reports the simulated link state.
func (f *FakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *FakeTransport) setConnected(c bool) {
	f.mu.Lock()
	f.connected = c
	f.mu.Unlock()
}
