package ble

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/midi-button/internal/logic"
)

var errNotStarted = errors.New("advertisement is not started")

// fakeAdvertiser behaves like BlueZ: Start fails while registered and Stop
// fails while not registered.
type fakeAdvertiser struct {
	started bool
	starts  int
}

func (a *fakeAdvertiser) Start() error {
	if a.started {
		return errors.New("advertisement already started")
	}
	a.started = true
	a.starts++
	return nil
}

func (a *fakeAdvertiser) Stop() error {
	if !a.started {
		return errNotStarted
	}
	a.started = false
	return nil
}

// fakeChar records writes and, like BlueZ, reports them to the write
// handler.
type fakeChar struct {
	written [][]byte
	onWrite func([]byte)
}

func (c *fakeChar) Write(p []byte) (int, error) {
	c.written = append(c.written, append([]byte(nil), p...))
	if c.onWrite != nil {
		c.onWrite(p)
	}
	return len(p), nil
}

func newTestPeripheral(t *testing.T) (*Peripheral, *logic.Mailbox, *fakeAdvertiser, *fakeChar) {
	t.Helper()
	mb := logic.NewMailbox()
	adv := &fakeAdvertiser{}
	char := &fakeChar{}
	p := newPeripheral("test", mb, adv, char)
	char.onWrite = func(v []byte) { p.handleWrite(0, 0, v) }
	return p, mb, adv, char
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestPeripheralConnectThenSend(t *testing.T) {
	p, mb, _, char := newTestPeripheral(t)

	err := p.Send([]byte{0x80})
	assert.True(t, errors.Is(err, logic.ErrNotReady))

	p.handleDevice("/org/bluez/hci0/dev_AA", true)
	state, ok := mb.Take()
	require.True(t, ok)
	assert.Equal(t, logic.Connected, state)
	assert.True(t, p.IsConnected())

	payload := []byte{0x80, 0x80, 0xB0, 0x66, 0x7F}
	require.NoError(t, p.Send(payload))
	require.Len(t, char.written, 1)
	assert.Equal(t, payload, char.written[0])

	p.handleDevice("/org/bluez/hci0/dev_AA", false)
	state, ok = mb.Take()
	require.True(t, ok)
	assert.Equal(t, logic.Disconnected, state)
	assert.True(t, errors.Is(p.Send(payload), logic.ErrNotReady))
	assert.Len(t, char.written, 1)
}

func TestPeripheralPostsOnlyAggregateChanges(t *testing.T) {
	p, mb, _, _ := newTestPeripheral(t)

	p.handleDevice("/org/bluez/hci0/dev_AA", true)
	_, _ = mb.Take()

	p.handleDevice("/org/bluez/hci0/dev_BB", true)
	_, ok := mb.Take()
	assert.False(t, ok, "second central must not post")

	p.handleDevice("/org/bluez/hci0/dev_AA", false)
	_, ok = mb.Take()
	assert.False(t, ok, "one central remains")
	assert.True(t, p.IsConnected())

	p.handleDevice("/org/bluez/hci0/dev_BB", false)
	state, ok := mb.Take()
	require.True(t, ok)
	assert.Equal(t, logic.Disconnected, state)

	p.handleDevice("/org/bluez/hci0/dev_BB", false)
	_, ok = mb.Take()
	assert.False(t, ok, "repeated disconnect must not post")
}

func TestPeripheralReadvertisesAfterDisconnect(t *testing.T) {
	p, _, adv, _ := newTestPeripheral(t)

	require.NoError(t, p.StartAdvertising())
	p.handleDevice("/org/bluez/hci0/dev_AA", true)
	p.handleDevice("/org/bluez/hci0/dev_AA", false)

	require.NoError(t, p.StartAdvertising())
	require.NoError(t, p.StartAdvertising())
	assert.Equal(t, 3, adv.starts)
	assert.True(t, adv.started)

	require.NoError(t, p.Close())
	assert.False(t, adv.started)
}

func TestPeripheralIgnoresOwnWrites(t *testing.T) {
	p, _, _, _ := newTestPeripheral(t)
	buf := captureLog(t)

	p.handleDevice("/org/bluez/hci0/dev_AA", true)
	buf.Reset()
	require.NoError(t, p.Send([]byte{0x80, 0x80, 0xB0, 0x66, 0x7F}))
	assert.NotContains(t, buf.String(), "ignoring")

	p.handleWrite(0, 0, []byte{0x80, 0x80, 0x90, 0x3C, 0x40})
	assert.Contains(t, buf.String(), "ble: ignoring 5-byte write")
}
