package ble

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	propertiesInterface = "org.freedesktop.DBus.Properties"
	propertiesChanged   = propertiesInterface + ".PropertiesChanged"
	deviceInterface     = "org.bluez.Device1"

	// defaultAdapterPath is the object path of bluetooth.DefaultAdapter.
	defaultAdapterPath dbus.ObjectPath = "/org/bluez/hci0"
)

// connectionWatcher follows org.bluez.Device1.Connected for devices under an
// adapter. The Bluetooth library only reports connections on bare-metal
// targets, so BlueZ is watched directly.
type connectionWatcher struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	done    chan struct{}
}

// watchConnections calls onChange from its own goroutine each time a device
// under adapterPath connects or disconnects.
func watchConnections(adapterPath dbus.ObjectPath, onChange func(device string, connected bool)) (*connectionWatcher, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}

	err = conn.AddMatchSignal(
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchPathNamespace(adapterPath),
		dbus.WithMatchArg(0, deviceInterface),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("watch device properties: %w", err)
	}

	w := &connectionWatcher{
		conn:    conn,
		signals: make(chan *dbus.Signal, 16),
		done:    make(chan struct{}),
	}
	conn.Signal(w.signals)
	go w.run(onChange)
	return w, nil
}

func (w *connectionWatcher) run(onChange func(device string, connected bool)) {
	defer close(w.done)
	for sig := range w.signals {
		if connected, ok := deviceConnected(sig); ok {
			onChange(string(sig.Path), connected)
		}
	}
}

// Close disconnects from the bus and waits for the watcher to stop.
// Closing the connection closes the signal channel.
func (w *connectionWatcher) Close() error {
	err := w.conn.Close()
	<-w.done
	return err
}

// deviceConnected extracts Device1.Connected from a PropertiesChanged
// signal. ok is false for any other signal or property.
func deviceConnected(sig *dbus.Signal) (connected, ok bool) {
	if sig == nil || sig.Name != propertiesChanged || len(sig.Body) < 2 {
		return false, false
	}
	if iface, _ := sig.Body[0].(string); iface != deviceInterface {
		return false, false
	}
	changed, _ := sig.Body[1].(map[string]dbus.Variant)
	v, found := changed["Connected"]
	if !found {
		return false, false
	}
	connected, ok = v.Value().(bool)
	return connected, ok
}

// linkSet tracks which centrals are connected. The peripheral counts as
// connected while any of them is.
type linkSet struct {
	mu    sync.Mutex
	links map[string]bool
}

// update records a device change and reports whether the aggregate state
// flipped, along with the new state.
func (s *linkSet) update(device string, connected bool) (changed, up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.links == nil {
		s.links = make(map[string]bool)
	}
	before := len(s.links) > 0
	if connected {
		s.links[device] = true
	} else {
		delete(s.links, device)
	}
	after := len(s.links) > 0
	return before != after, after
}

func (s *linkSet) any() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links) > 0
}
