package logic

// Mailbox is a single-slot hand-off for connection changes. Transport
// callbacks Post from their own goroutine; the controller Takes at the start
// of each tick. A newer post replaces one that has not been taken yet.
type Mailbox struct {
	slot chan ConnectionState
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{slot: make(chan ConnectionState, 1)}
}

// Post stores state, replacing any pending value. It never blocks.
func (m *Mailbox) Post(state ConnectionState) {
	for {
		select {
		case m.slot <- state:
			return
		default:
		}
		select {
		case <-m.slot:
		default:
		}
	}
}

// Take removes and returns the pending state, if any.
func (m *Mailbox) Take() (ConnectionState, bool) {
	select {
	case s := <-m.slot:
		return s, true
	default:
		return "", false
	}
}
