// Package config loads the device profile from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/midi-button/internal/ble"
	"github.com/sweeney/midi-button/internal/gpio"
	"github.com/sweeney/midi-button/internal/logic"
	"github.com/sweeney/midi-button/internal/midi"
)

// Config is the on-disk device profile. Durations are in milliseconds.
type Config struct {
	MIDI   MIDIConfig   `yaml:"midi"`
	Timing TimingConfig `yaml:"timing"`
	Pins   PinsConfig   `yaml:"pins"`
	BLE    BLEConfig    `yaml:"ble"`
	Power  PowerConfig  `yaml:"power"`
}

// MIDIConfig selects the Control Change sent by the trigger.
type MIDIConfig struct {
	Channel          int `yaml:"channel"`
	ControllerNumber int `yaml:"controller_number"`
}

// TimingConfig holds the lifecycle timings.
type TimingConfig struct {
	DebounceMs     int64 `yaml:"debounce_ms"`
	LongPressMs    int64 `yaml:"long_press_ms"`
	SleepTimeoutMs int64 `yaml:"sleep_timeout_ms"`
}

// PinsConfig is the GPIO wiring (BCM numbering).
type PinsConfig struct {
	Chip    string `yaml:"chip"`
	Trigger int    `yaml:"trigger"`
	Mode    int    `yaml:"mode"`
	LED     int    `yaml:"led"`
}

// BLEConfig controls advertising.
type BLEConfig struct {
	Name string `yaml:"name"`
}

// PowerConfig controls what suspend does.
type PowerConfig struct {
	// SystemState is written to /sys/power/state when sleeping; empty only
	// waits for a wake edge.
	SystemState string `yaml:"system_state"`
}

// Default returns the stock profile: channel 1, CC 102, 50ms debounce,
// 5s long press, 30s sleep.
func Default() Config {
	pins := gpio.DefaultPins()
	return Config{
		MIDI: MIDIConfig{Channel: 1, ControllerNumber: 102},
		Timing: TimingConfig{
			DebounceMs:     50,
			LongPressMs:    5000,
			SleepTimeoutMs: 30000,
		},
		Pins: PinsConfig{
			Chip:    pins.Chip,
			Trigger: pins.Trigger,
			Mode:    pins.Mode,
			LED:     pins.LED,
		},
		BLE: BLEConfig{Name: ble.DefaultName},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every option.
func (c Config) Validate() error {
	if _, err := c.Encoder(); err != nil {
		return err
	}
	if err := c.Logic().Validate(); err != nil {
		return err
	}
	if c.Pins.Chip == "" {
		return fmt.Errorf("pins.chip must be set")
	}
	pins := []struct {
		name string
		pin  int
	}{
		{"trigger", c.Pins.Trigger},
		{"mode", c.Pins.Mode},
		{"led", c.Pins.LED},
	}
	seen := map[int]string{}
	for _, p := range pins {
		if p.pin < 0 {
			return fmt.Errorf("pins.%s must be >= 0, got %d", p.name, p.pin)
		}
		if other, ok := seen[p.pin]; ok {
			return fmt.Errorf("pins.%s and pins.%s both use pin %d", other, p.name, p.pin)
		}
		seen[p.pin] = p.name
	}
	if c.BLE.Name == "" {
		return fmt.Errorf("ble.name must be set")
	}
	switch c.Power.SystemState {
	case "", "mem", "freeze", "standby":
	default:
		return fmt.Errorf("power.system_state %q not one of mem, freeze, standby", c.Power.SystemState)
	}
	return nil
}

// Encoder builds the MIDI encoder for this profile.
func (c Config) Encoder() (midi.Encoder, error) {
	return midi.NewEncoder(c.MIDI.Channel, c.MIDI.ControllerNumber)
}

// Logic returns the controller timings.
func (c Config) Logic() logic.Config {
	return logic.Config{
		Debounce:     time.Duration(c.Timing.DebounceMs) * time.Millisecond,
		LongPress:    time.Duration(c.Timing.LongPressMs) * time.Millisecond,
		SleepTimeout: time.Duration(c.Timing.SleepTimeoutMs) * time.Millisecond,
	}
}

// GPIOPins returns the wiring for the gpio package.
func (c Config) GPIOPins() gpio.Pins {
	return gpio.Pins{
		Chip:    c.Pins.Chip,
		Trigger: c.Pins.Trigger,
		Mode:    c.Pins.Mode,
		LED:     c.Pins.LED,
	}
}
