package mqtt

import (
	"fmt"
	"testing"
)

func pushN(rb *ringBuffer, from, to int) {
	for i := from; i < to; i++ {
		rb.push(bufferedMsg{topic: "midi-button/events", payload: []byte{byte(i)}})
	}
}

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(4)
	if got := rb.drainAll(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferOrder(t *testing.T) {
	tests := []struct {
		capacity int
		pushed   int
		want     []byte
	}{
		{capacity: 4, pushed: 2, want: []byte{0, 1}},
		{capacity: 4, pushed: 4, want: []byte{0, 1, 2, 3}},
		{capacity: 4, pushed: 7, want: []byte{3, 4, 5, 6}},
		{capacity: 1, pushed: 3, want: []byte{2}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("cap%d_push%d", tt.capacity, tt.pushed), func(t *testing.T) {
			rb := newRingBuffer(tt.capacity)
			pushN(rb, 0, tt.pushed)

			got := rb.drainAll()
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d items, got %d", len(tt.want), len(got))
			}
			for i, msg := range got {
				if msg.payload[0] != tt.want[i] {
					t.Errorf("item %d: expected %d, got %d", i, tt.want[i], msg.payload[0])
				}
			}
			if rb.len() != 0 {
				t.Errorf("expected empty after drain, got %d", rb.len())
			}
		})
	}
}

func TestRingBufferReusableAfterOverflow(t *testing.T) {
	rb := newRingBuffer(3)
	pushN(rb, 0, 5)
	rb.drainAll()

	if rb.overflow {
		t.Error("overflow flag should reset on drain")
	}

	pushN(rb, 10, 12)
	got := rb.drainAll()
	if len(got) != 2 || got[0].payload[0] != 10 || got[1].payload[0] != 11 {
		t.Errorf("unexpected second cycle: %+v", got)
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(2)
	rb.push(bufferedMsg{
		topic:    "midi-button/system",
		payload:  []byte(`{"system":{}}`),
		qos:      1,
		retained: true,
	})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	m := got[0]
	if m.topic != "midi-button/system" || string(m.payload) != `{"system":{}}` || m.qos != 1 || !m.retained {
		t.Errorf("fields not preserved: %+v", m)
	}
}
