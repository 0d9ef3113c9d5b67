package logic

import "time"

// LongPressDetector reports how long the mode input was held each time it is
// released. Deciding what counts as "long" is left to the caller.
type LongPressDetector struct {
	pressed    bool
	pressStart time.Time
}

// NewLongPressDetector creates an idle detector.
func NewLongPressDetector() *LongPressDetector {
	return &LongPressDetector{}
}

// Observe takes a raw sample of the mode input.
func (l *LongPressDetector) Observe(raw bool, now time.Time) (LongPressEvent, bool) {
	switch {
	case raw && !l.pressed:
		l.pressed = true
		l.pressStart = now
	case !raw && l.pressed:
		l.pressed = false
		return LongPressEvent{Held: now.Sub(l.pressStart), Time: now}, true
	}
	return LongPressEvent{}, false
}

// Pressed reports whether the mode input is currently held.
func (l *LongPressDetector) Pressed() bool {
	return l.pressed
}
