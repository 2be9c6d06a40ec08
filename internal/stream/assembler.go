package stream

import (
	"bytes"
	"fmt"

	"github.com/mvrik/linkstream/internal/protocol/packet"
)

// assembler reconstructs one message at a time from inbound packets.
// Access is guarded by the stream mutex.
type assembler struct {
	active bool
	id     uint32
	total  uint32
	next   uint32
	buf    bytes.Buffer
}

// feed accumulates one packet. It returns the complete message body
// exactly once, on the packet whose number equals the total. A foreign
// message id mid-sequence or a non-consecutive packet number is a
// protocol error; the caller must disconnect the link. State is cleared
// on completion and on error.
func (a *assembler) feed(p packet.Packet) ([]byte, bool, error) {
	if !a.active {
		if p.Number != 1 {
			return nil, false, fmt.Errorf("%w: first packet has number %d", ErrSequence, p.Number)
		}
		a.active = true
		a.id = p.MessageID
		a.total = p.Total
		a.next = 1
	}

	if p.MessageID != a.id {
		got, want := p.MessageID, a.id
		a.reset()
		return nil, false, fmt.Errorf("%w: message id %d interrupts %d", ErrSequence, got, want)
	}
	if p.Total != a.total {
		got, want := p.Total, a.total
		a.reset()
		return nil, false, fmt.Errorf("%w: total changed from %d to %d", ErrSequence, want, got)
	}
	if p.Number != a.next {
		got, want := p.Number, a.next
		a.reset()
		return nil, false, fmt.Errorf("%w: packet %d, expected %d", ErrSequence, got, want)
	}

	a.buf.Write(p.Payload)
	if p.Number == a.total {
		body := make([]byte, a.buf.Len())
		copy(body, a.buf.Bytes())
		a.reset()
		return body, true, nil
	}
	a.next++
	return nil, false, nil
}

func (a *assembler) reset() {
	a.active = false
	a.id = 0
	a.total = 0
	a.next = 0
	a.buf.Reset()
}
