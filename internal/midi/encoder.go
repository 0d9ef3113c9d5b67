// Package midi builds the BLE MIDI packets sent for the trigger switch.
package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// PacketSize is the length of every packet: header, timestamp and one
// three-byte Control Change.
const PacketSize = 5

const (
	header       = 0x80 // high bit set, timestamp-high zero
	timestampLow = 0x80 // high bit set, timestamp-low zero

	valueOn  = 127
	valueOff = 0
)

// Encoder produces Control Change packets for a fixed channel and
// controller number.
type Encoder struct {
	channel    uint8 // 1..16
	controller uint8 // 0..127
}

// NewEncoder validates channel (1-16) and controller (0-127).
func NewEncoder(channel, controller int) (Encoder, error) {
	if channel < 1 || channel > 16 {
		return Encoder{}, fmt.Errorf("midi channel must be 1-16, got %d", channel)
	}
	if controller < 0 || controller > 127 {
		return Encoder{}, fmt.Errorf("controller number must be 0-127, got %d", controller)
	}
	return Encoder{channel: uint8(channel), controller: uint8(controller)}, nil
}

// Channel returns the 1-based MIDI channel.
func (e Encoder) Channel() int { return int(e.channel) }

// Controller returns the controller number.
func (e Encoder) Controller() int { return int(e.controller) }

// Encode returns the packet for on (value 127) or off (value 0).
func (e Encoder) Encode(on bool) [PacketSize]byte {
	value := uint8(valueOff)
	if on {
		value = valueOn
	}
	msg := gomidi.ControlChange((e.channel-1)&0x0F, e.controller&0x7F, value&0x7F)
	return [PacketSize]byte{header, timestampLow, msg[0], msg[1], msg[2]}
}

// Describe renders a packet for logs, e.g. "MIDI CC: Ch1 CC#102 Value=127".
func Describe(packet []byte) string {
	if len(packet) != PacketSize || packet[0]&0x80 == 0 || packet[1]&0x80 == 0 {
		return fmt.Sprintf("malformed packet % X", packet)
	}
	var ch, cc, val uint8
	msg := gomidi.Message(packet[2:])
	if !msg.GetControlChange(&ch, &cc, &val) {
		return msg.String()
	}
	return fmt.Sprintf("MIDI CC: Ch%d CC#%d Value=%d", ch+1, cc, val)
}
