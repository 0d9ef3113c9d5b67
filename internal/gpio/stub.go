//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/midi-button/internal/logic"
)

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(pins Pins, powerState string) (*RealBoard, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (b *RealBoard) Read() (bool, bool, error) {
	return false, false, errors.New("gpio: not supported")
}

// Set is not implemented on non-Linux platforms.
func (b *RealBoard) Set(on bool) error {
	return errors.New("gpio: not supported")
}

// Suspend is not implemented on non-Linux platforms.
func (b *RealBoard) Suspend(wake []logic.WakeSource) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *RealBoard) Close() error {
	return nil
}
