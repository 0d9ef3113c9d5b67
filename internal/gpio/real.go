//go:build linux

package gpio

import (
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/midi-button/internal/logic"
)

const consumer = "midi-button"

// sysPowerState is the kernel interface used to enter system sleep.
var sysPowerState = "/sys/power/state"

// RealBoard drives the switches and LED through the Linux GPIO character
// device.
type RealBoard struct {
	chip       *gpiocdev.Chip
	pins       Pins
	trigger    *gpiocdev.Line
	mode       *gpiocdev.Line
	led        *gpiocdev.Line
	powerState string
}

// NewRealBoard requests the trigger and mode lines as pulled-up inputs and
// the LED line as an output driven low. powerState is written to
// /sys/power/state on Suspend ("mem", "freeze"); empty means only wait for a
// wake edge.
func NewRealBoard(pins Pins, powerState string) (*RealBoard, error) {
	chip, err := gpiocdev.NewChip(pins.Chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", pins.Chip, err)
	}

	b := &RealBoard{chip: chip, pins: pins, powerState: powerState}

	// Switches short to ground, so the lines idle high through the pull-up.
	b.trigger, err = chip.RequestLine(pins.Trigger, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request trigger pin %d: %w", pins.Trigger, err)
	}

	b.mode, err = chip.RequestLine(pins.Mode, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request mode pin %d: %w", pins.Mode, err)
	}

	b.led, err = chip.RequestLine(pins.LED, gpiocdev.AsOutput(0))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", pins.LED, err)
	}

	return b, nil
}

// Read returns the logical states of the trigger and mode switches.
// Inverts raw GPIO: raw 0 = pressed.
func (b *RealBoard) Read() (bool, bool, error) {
	triggerRaw, err := b.trigger.Value()
	if err != nil {
		return false, false, fmt.Errorf("read trigger pin: %w", err)
	}

	modeRaw, err := b.mode.Value()
	if err != nil {
		return false, false, fmt.Errorf("read mode pin: %w", err)
	}

	return triggerRaw == 0, modeRaw == 0, nil
}

// Set drives the status LED.
func (b *RealBoard) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := b.led.SetValue(v); err != nil {
		return fmt.Errorf("set LED pin: %w", err)
	}
	return nil
}

// Suspend arms edge detection on the wake lines, optionally puts the system
// to sleep, and once woken re-executes the process so it starts from
// scratch. It only returns on failure.
func (b *RealBoard) Suspend(wake []logic.WakeSource) error {
	// The switch lines are re-requested with edge detection below.
	if err := b.closeInputs(); err != nil {
		return err
	}

	woken := make(chan int, 1)
	handler := func(evt gpiocdev.LineEvent) {
		select {
		case woken <- evt.Offset:
		default:
		}
	}

	for _, ws := range wake {
		offset, ok := b.pins.Offset(ws.Line)
		if !ok {
			return fmt.Errorf("unknown wake line %q", ws.Line)
		}
		bias, edge := gpiocdev.WithPullUp, gpiocdev.WithFallingEdge
		if !ws.ActiveLow {
			bias, edge = gpiocdev.WithPullDown, gpiocdev.WithRisingEdge
		}
		l, err := b.chip.RequestLine(offset, gpiocdev.AsInput, bias, edge, gpiocdev.WithEventHandler(handler))
		if err != nil {
			return fmt.Errorf("arm wake line %s (pin %d): %w", ws.Line, offset, err)
		}
		defer l.Close()
	}

	if b.powerState != "" {
		log.Printf("gpio: writing %q to %s", b.powerState, sysPowerState)
		// Returns once the system has resumed.
		if err := os.WriteFile(sysPowerState, []byte(b.powerState), 0); err != nil {
			return fmt.Errorf("enter %s: %w", b.powerState, err)
		}
	} else {
		offset := <-woken
		log.Printf("gpio: woken by pin %d", offset)
	}

	if err := b.Close(); err != nil {
		log.Printf("gpio: close before restart: %v", err)
	}
	return restart()
}

// restart replaces the process image with a fresh copy of itself.
func restart() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	log.Printf("gpio: restarting %s", exe)
	if err := syscall.Exec(exe, os.Args, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", exe, err)
	}
	return nil
}

func (b *RealBoard) closeInputs() error {
	var errs []error
	if b.trigger != nil {
		if err := b.trigger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trigger pin: %w", err))
		}
		b.trigger = nil
	}
	if b.mode != nil {
		if err := b.mode.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close mode pin: %w", err))
		}
		b.mode = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// Close releases GPIO resources.
// The LED is switched off and returned to an input before closing so the
// line does not stay driven after the process exits.
func (b *RealBoard) Close() error {
	var errs []error

	if err := b.closeInputs(); err != nil {
		errs = append(errs, err)
	}
	if b.led != nil {
		if err := b.led.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear LED pin: %w", err))
		}
		if err := b.led.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure LED pin: %w", err))
		}
		if err := b.led.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED pin: %w", err))
		}
		b.led = nil
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		b.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
