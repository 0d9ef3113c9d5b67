package ble

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func propertiesSignal(iface string, changed map[string]dbus.Variant) *dbus.Signal {
	return &dbus.Signal{
		Path: "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF",
		Name: propertiesChanged,
		Body: []interface{}{iface, changed, []string{}},
	}
}

func TestDeviceConnected(t *testing.T) {
	tests := []struct {
		name          string
		sig           *dbus.Signal
		wantConnected bool
		wantOK        bool
	}{
		{
			name:          "connected",
			sig:           propertiesSignal(deviceInterface, map[string]dbus.Variant{"Connected": dbus.MakeVariant(true)}),
			wantConnected: true,
			wantOK:        true,
		},
		{
			name:   "disconnected",
			sig:    propertiesSignal(deviceInterface, map[string]dbus.Variant{"Connected": dbus.MakeVariant(false), "RSSI": dbus.MakeVariant(int16(-60))}),
			wantOK: true,
		},
		{
			name: "other interface",
			sig:  propertiesSignal("org.bluez.Adapter1", map[string]dbus.Variant{"Connected": dbus.MakeVariant(true)}),
		},
		{
			name: "other property",
			sig:  propertiesSignal(deviceInterface, map[string]dbus.Variant{"RSSI": dbus.MakeVariant(int16(-60))}),
		},
		{
			name: "not a bool",
			sig:  propertiesSignal(deviceInterface, map[string]dbus.Variant{"Connected": dbus.MakeVariant("yes")}),
		},
		{
			name: "other signal",
			sig:  &dbus.Signal{Name: "org.freedesktop.DBus.ObjectManager.InterfacesAdded"},
		},
		{
			name: "short body",
			sig:  &dbus.Signal{Name: propertiesChanged, Body: []interface{}{deviceInterface}},
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connected, ok := deviceConnected(tt.sig)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantConnected, connected)
		})
	}
}

func TestLinkSetUpdate(t *testing.T) {
	var s linkSet

	changed, up := s.update("a", true)
	assert.True(t, changed)
	assert.True(t, up)

	changed, up = s.update("a", true)
	assert.False(t, changed)
	assert.True(t, up)

	changed, up = s.update("a", false)
	assert.True(t, changed)
	assert.False(t, up)
	assert.False(t, s.any())
}
