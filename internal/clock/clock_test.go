package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeSleepAdvances(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)

	f.Sleep(100 * time.Millisecond)
	f.Sleep(100 * time.Millisecond)

	assert.Equal(t, start.Add(200*time.Millisecond), f.Now())
	total, n := f.Slept()
	assert.Equal(t, 200*time.Millisecond, total)
	assert.Equal(t, 2, n)
}

func TestFakeAdvanceDoesNotCountAsSleep(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)

	f.Advance(time.Second)

	assert.Equal(t, start.Add(time.Second), f.Now())
	_, n := f.Slept()
	assert.Zero(t, n)
}

func TestSystemNowIsMonotonic(t *testing.T) {
	var c System
	a := c.Now()
	b := c.Now()
	assert.False(t, b.Before(a))
}
