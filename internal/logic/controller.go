package logic

import (
	"errors"
	"fmt"
	"time"
)

const (
	// Pairing animation: blinkCycles on/off pairs of blinkInterval each.
	blinkCycles   = 6
	blinkInterval = 100 * time.Millisecond

	// Half period of the 1 Hz "not connected" blink.
	idleBlinkHalfPeriod = 500 * time.Millisecond
)

// Deps are the capabilities driven by the Controller.
type Deps struct {
	Clock     Clock
	Inputs    Inputs
	Indicator Indicator
	Transport Transport
	Mailbox   *Mailbox
	Suspender Suspender
	Encoder   Encoder

	// OnEvent, if set, receives every lifecycle event synchronously.
	OnEvent func(Event)
}

func (d Deps) validate() error {
	switch {
	case d.Clock == nil:
		return errors.New("missing clock")
	case d.Inputs == nil:
		return errors.New("missing inputs")
	case d.Indicator == nil:
		return errors.New("missing indicator")
	case d.Transport == nil:
		return errors.New("missing transport")
	case d.Mailbox == nil:
		return errors.New("missing mailbox")
	case d.Suspender == nil:
		return errors.New("missing suspender")
	case d.Encoder == nil:
		return errors.New("missing encoder")
	}
	return nil
}

// Controller owns the device lifecycle. It is driven by calling Tick at a
// fixed rate from a single goroutine.
type Controller struct {
	cfg  Config
	deps Deps

	debouncer *Debouncer
	longPress *LongPressDetector

	power  PowerState
	conn   ConnectionState
	button ButtonState

	startTime     time.Time
	lastActivity  time.Time
	lastHeartbeat time.Time

	indicatorKnown bool
	indicatorLevel bool

	counts EventCounts
}

// NewController validates cfg and deps and returns a controller in the
// Pairing state. Call Start before the first Tick.
func NewController(cfg Config, deps Deps) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("invalid deps: %w", err)
	}

	now := deps.Clock.Now()
	return &Controller{
		cfg:           cfg,
		deps:          deps,
		debouncer:     NewDebouncer(cfg.Debounce),
		longPress:     NewLongPressDetector(),
		power:         PowerPairing,
		conn:          Disconnected,
		button:        ButtonIdle,
		startTime:     now,
		lastActivity:  now,
		lastHeartbeat: now,
	}, nil
}

// Start runs the boot-time pairing action.
func (c *Controller) Start() error {
	return c.enterPairing()
}

// Tick runs one pass of the lifecycle. Once the controller is sleeping it
// does nothing. Errors are hardware faults and should be treated as fatal.
func (c *Controller) Tick() error {
	if c.power == PowerSleeping {
		return nil
	}

	// Connection changes posted during the previous tick are seen here and
	// nowhere else.
	posted, hasPosted := c.deps.Mailbox.Take()

	now := c.deps.Clock.Now()
	trigger, mode, err := c.deps.Inputs.Read()
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}

	if lp, ok := c.longPress.Observe(mode, now); ok {
		c.counts.LongPresses++
		c.emit(Event{Timestamp: now, Type: EventLongPress, Held: lp.Held})
		if lp.Held >= c.cfg.LongPress {
			if err := c.enterPairing(); err != nil {
				return err
			}
			now = c.deps.Clock.Now()
		}
	}

	if hasPosted {
		if err := c.applyConnection(posted, now); err != nil {
			return err
		}
	}

	if edge, ok := c.debouncer.Observe(trigger, now); ok {
		c.applyEdge(edge)
	}

	if c.conn == Disconnected && now.Sub(c.lastActivity) >= c.cfg.SleepTimeout {
		return c.enterSleep(now)
	}

	return c.refreshIndicator(now)
}

func (c *Controller) enterPairing() error {
	c.power = PowerPairing

	if err := c.deps.Transport.StartAdvertising(); err != nil {
		return fmt.Errorf("start advertising: %w", err)
	}

	for i := 0; i < blinkCycles; i++ {
		if err := c.writeIndicator(true); err != nil {
			return err
		}
		c.deps.Clock.Sleep(blinkInterval)
		if err := c.writeIndicator(false); err != nil {
			return err
		}
		c.deps.Clock.Sleep(blinkInterval)
	}

	now := c.deps.Clock.Now()
	c.lastActivity = now
	c.counts.Pairings++
	c.emit(Event{Timestamp: now, Type: EventPairing})
	c.power = PowerActive
	return nil
}

func (c *Controller) applyConnection(state ConnectionState, now time.Time) error {
	if state == c.conn {
		return nil
	}
	c.conn = state
	c.lastActivity = now

	if state == Connected {
		c.counts.Connects++
		c.emit(Event{Timestamp: now, Type: EventConnected})
		return nil
	}

	c.counts.Disconnects++
	c.emit(Event{Timestamp: now, Type: EventDisconnected})
	if err := c.deps.Transport.StartAdvertising(); err != nil {
		return fmt.Errorf("restart advertising: %w", err)
	}
	return nil
}

func (c *Controller) applyEdge(edge DebouncedEdge) {
	c.lastActivity = edge.Time
	if edge.Edge == Rose {
		c.button = ButtonPressed
		c.counts.Presses++
		c.send(true, EventPress, edge.Time)
		return
	}
	c.button = ButtonIdle
	c.counts.Releases++
	c.send(false, EventRelease, edge.Time)
}

// send hands an encoded value to the transport. A failed send is dropped and
// reported through the event's Delivered flag.
func (c *Controller) send(on bool, typ EventType, now time.Time) {
	payload := c.deps.Encoder.Encode(on)
	err := c.deps.Transport.Send(payload[:])
	if err != nil {
		c.counts.Dropped++
	}
	c.emit(Event{
		Timestamp: now,
		Type:      typ,
		Payload:   payload[:],
		Delivered: err == nil,
	})
}

func (c *Controller) enterSleep(now time.Time) error {
	c.power = PowerSleeping

	// A held note must not survive a sleep cycle.
	if c.button == ButtonPressed {
		c.button = ButtonIdle
		c.counts.Releases++
		c.send(false, EventRelease, now)
	}

	if err := c.writeIndicator(false); err != nil {
		return err
	}

	c.emit(Event{Timestamp: now, Type: EventSleep})

	wake := []WakeSource{
		{Line: WakeMode, ActiveLow: true},
		{Line: WakeTrigger, ActiveLow: true},
	}
	if err := c.deps.Suspender.Suspend(wake); err != nil {
		return fmt.Errorf("suspend: %w", err)
	}
	return nil
}

// refreshIndicator shows solid on while connected and a 1 Hz blink
// otherwise. The LED is only written when its level changes.
func (c *Controller) refreshIndicator(now time.Time) error {
	level := c.conn == Connected || (now.Sub(c.startTime)/idleBlinkHalfPeriod)%2 == 1
	if c.indicatorKnown && level == c.indicatorLevel {
		return nil
	}
	return c.writeIndicator(level)
}

func (c *Controller) writeIndicator(level bool) error {
	if err := c.deps.Indicator.Set(level); err != nil {
		return fmt.Errorf("set indicator: %w", err)
	}
	c.indicatorKnown = true
	c.indicatorLevel = level
	return nil
}

func (c *Controller) emit(e Event) {
	if c.deps.OnEvent == nil {
		return
	}
	e.Power = c.power
	e.Connection = c.conn
	e.Button = c.button
	c.deps.OnEvent(e)
}

// Power returns the current power state.
func (c *Controller) Power() PowerState {
	return c.power
}

// Snapshot returns the controller's current state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Power:        c.power,
		Connection:   c.conn,
		Button:       c.button,
		ModeHeld:     c.longPress.Pressed(),
		LastActivity: c.lastActivity,
		Counts:       c.counts,
	}
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil while sleeping or if interval is
// <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if c.power == PowerSleeping {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}
	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}
