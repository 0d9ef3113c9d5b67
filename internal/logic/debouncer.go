package logic

import "time"

// Debouncer filters a raw level stream into stable press/release edges.
type Debouncer struct {
	quiet      time.Duration
	primed     bool
	lastRaw    bool
	lastChange time.Time
	stable     bool
}

// NewDebouncer creates a debouncer that accepts a level once it has been
// unchanged for quiet.
func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet}
}

// Observe takes a raw sample and returns an edge once the level has been
// stable for the quiet period and differs from the last accepted level.
// The first sample starts the quiet period, so a switch already held at boot
// is reported only after it elapses.
func (d *Debouncer) Observe(raw bool, now time.Time) (DebouncedEdge, bool) {
	if !d.primed {
		d.primed = true
		d.lastRaw = raw
		d.lastChange = now
	}

	if raw != d.lastRaw {
		d.lastRaw = raw
		d.lastChange = now
	}

	if now.Sub(d.lastChange) < d.quiet || raw == d.stable {
		return DebouncedEdge{}, false
	}

	d.stable = raw
	edge := Fell
	if raw {
		edge = Rose
	}
	return DebouncedEdge{Edge: edge, Time: now}, true
}
