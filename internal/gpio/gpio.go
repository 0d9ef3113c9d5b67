// Package gpio provides the switch inputs, status LED and suspend with
// hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/midi-button/internal/logic"

// Reader reads the switch inputs.
type Reader interface {
	// Read returns the logical states of the trigger and mode switches.
	// The switches are active low: raw 0 = pressed.
	Read() (trigger, mode bool, err error)

	// Close releases GPIO resources.
	Close() error
}

// Board is everything the controller needs from the hardware.
type Board interface {
	Reader
	logic.Indicator
	logic.Suspender
}

// Default pin definitions (BCM numbering).
const (
	DefaultChip       = "gpiochip0"
	DefaultPinTrigger = 17 // footswitch
	DefaultPinMode    = 27 // pairing button
	DefaultPinLED     = 22 // status LED
)

// Pins selects the lines used on a chip.
type Pins struct {
	Chip    string
	Trigger int
	Mode    int
	LED     int
}

// DefaultPins returns the stock wiring.
func DefaultPins() Pins {
	return Pins{
		Chip:    DefaultChip,
		Trigger: DefaultPinTrigger,
		Mode:    DefaultPinMode,
		LED:     DefaultPinLED,
	}
}

// Offset returns the line offset for a wake line.
func (p Pins) Offset(line logic.WakeLine) (int, bool) {
	switch line {
	case logic.WakeTrigger:
		return p.Trigger, true
	case logic.WakeMode:
		return p.Mode, true
	}
	return 0, false
}
