// Package ble exposes the device as a BLE MIDI peripheral.
package ble

// Standard BLE MIDI service and its single I/O characteristic.
const (
	ServiceUUID        = "03b80e5a-ede8-4b33-a751-6ce34ec4c700"
	CharacteristicUUID = "7772e5db-3868-4112-a1a9-f2669d106bf3"
)

// DefaultName is the advertised local name.
const DefaultName = "Mini MIDI Ctrl"
