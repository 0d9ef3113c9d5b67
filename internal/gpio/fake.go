package gpio

import (
	"errors"

	"github.com/sweeney/midi-button/internal/logic"
)

// FakeReader is a test double that returns scripted switch values.
type FakeReader struct {
	// Samples contains scripted values to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// Sample represents a single reading (already in logical form).
type Sample struct {
	Trigger bool // true = pressed
	Mode    bool // true = pressed
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (bool, bool, error) {
	if f.ReadError != nil {
		return false, false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample.Trigger, sample.Mode, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeIndicator records LED writes.
type FakeIndicator struct {
	Levels   []bool
	SetError error
}

// Set records the level.
func (f *FakeIndicator) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Levels = append(f.Levels, on)
	return nil
}

// On reports the last written level.
func (f *FakeIndicator) On() bool {
	return len(f.Levels) > 0 && f.Levels[len(f.Levels)-1]
}

// FakeSuspender records suspend requests and returns immediately.
type FakeSuspender struct {
	Calls        [][]logic.WakeSource
	SuspendError error

	// OnSuspend, if set, runs before Suspend returns.
	OnSuspend func()
}

// Suspend records the wake sources.
func (f *FakeSuspender) Suspend(wake []logic.WakeSource) error {
	f.Calls = append(f.Calls, wake)
	if f.OnSuspend != nil {
		f.OnSuspend()
	}
	return f.SuspendError
}
