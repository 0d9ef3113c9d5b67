package ble

import (
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"tinygo.org/x/bluetooth"

	"github.com/sweeney/midi-button/internal/logic"
)

// advertiser is the part of bluetooth.Advertisement the peripheral drives.
type advertiser interface {
	Start() error
	Stop() error
}

// notifier is the part of bluetooth.Characteristic the peripheral drives.
type notifier interface {
	Write(p []byte) (int, error)
}

// Peripheral is a GATT server offering the BLE MIDI service. Connection
// changes are posted to the mailbox from the BlueZ watcher's goroutine.
type Peripheral struct {
	name    string
	adv     advertiser
	char    notifier
	mailbox *logic.Mailbox
	watcher io.Closer

	links linkSet

	mu          sync.Mutex
	advertising bool

	// sending is set while Send writes the characteristic. BlueZ reports
	// local writes through the same callback as remote ones.
	sending atomic.Bool
}

func newPeripheral(name string, mailbox *logic.Mailbox, adv advertiser, char notifier) *Peripheral {
	return &Peripheral{name: name, adv: adv, char: char, mailbox: mailbox}
}

// NewPeripheral enables the default adapter, registers the MIDI service,
// configures (but does not start) advertising and starts watching BlueZ for
// connections.
func NewPeripheral(name string, mailbox *logic.Mailbox) (*Peripheral, error) {
	serviceUUID, err := bluetooth.ParseUUID(ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("parse service uuid: %w", err)
	}
	charUUID, err := bluetooth.ParseUUID(CharacteristicUUID)
	if err != nil {
		return nil, fmt.Errorf("parse characteristic uuid: %w", err)
	}

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable adapter: %w", err)
	}

	var char bluetooth.Characteristic
	adv := adapter.DefaultAdvertisement()
	p := newPeripheral(name, mailbox, adv, &char)

	err = adapter.AddService(&bluetooth.Service{
		UUID: serviceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &char,
				UUID:   charUUID,
				Value:  []byte{},
				Flags: bluetooth.CharacteristicReadPermission |
					bluetooth.CharacteristicWritePermission |
					bluetooth.CharacteristicWriteWithoutResponsePermission |
					bluetooth.CharacteristicNotifyPermission,
				WriteEvent: p.handleWrite,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("add midi service: %w", err)
	}

	err = adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    name,
		ServiceUUIDs: []bluetooth.UUID{serviceUUID},
	})
	if err != nil {
		return nil, fmt.Errorf("configure advertisement: %w", err)
	}

	w, err := watchConnections(defaultAdapterPath, p.handleDevice)
	if err != nil {
		return nil, fmt.Errorf("watch connections: %w", err)
	}
	p.watcher = w

	log.Printf("ble: midi service registered as %q", name)
	return p, nil
}

// StartAdvertising (re)starts advertising. BlueZ keeps the advertisement
// registered across connections, so it is always unregistered first; an
// error from that is expected when nothing was registered.
func (p *Peripheral) StartAdvertising() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.adv.Stop(); err != nil && p.advertising {
		log.Printf("ble: stop advertising: %v", err)
	}
	p.advertising = false

	if err := p.adv.Start(); err != nil {
		return fmt.Errorf("start advertising: %w", err)
	}
	p.advertising = true
	log.Printf("ble: advertising as %q", p.name)
	return nil
}

// Send notifies the connected peer. Returns logic.ErrNotReady when no peer
// is connected.
func (p *Peripheral) Send(payload []byte) error {
	if !p.IsConnected() {
		return logic.ErrNotReady
	}
	p.sending.Store(true)
	_, err := p.char.Write(payload)
	p.sending.Store(false)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// IsConnected reports whether a central is connected.
func (p *Peripheral) IsConnected() bool {
	return p.links.any()
}

// Close stops watching for connections and stops advertising.
func (p *Peripheral) Close() error {
	var errs []error
	if p.watcher != nil {
		if err := p.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close watcher: %w", err))
		}
		p.watcher = nil
	}

	p.mu.Lock()
	if p.advertising {
		p.advertising = false
		if err := p.adv.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop advertising: %w", err))
		}
	}
	p.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// handleDevice posts to the mailbox when the first central connects or the
// last one leaves.
func (p *Peripheral) handleDevice(device string, connected bool) {
	changed, up := p.links.update(device, connected)
	if !changed {
		return
	}
	if up {
		log.Printf("ble: midi connected (%s)", device)
		p.mailbox.Post(logic.Connected)
		return
	}
	log.Printf("ble: midi disconnected (%s)", device)
	p.mailbox.Post(logic.Disconnected)
}

// handleWrite logs inbound MIDI. The device has no MIDI input.
func (p *Peripheral) handleWrite(client bluetooth.Connection, offset int, value []byte) {
	if p.sending.Load() {
		return
	}
	log.Printf("ble: ignoring %d-byte write: % X", len(value), value)
}
