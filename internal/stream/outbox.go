package stream

import "github.com/mvrik/linkstream/internal/protocol/packet"

// DefaultMessageIDBound is the wrap bound for message ids. Ids recycle
// at 2^31; the exact bound only needs to be large and explicit.
const DefaultMessageIDBound uint32 = 1 << 31

// outbox is the FIFO packet queue plus the per-stream message-id
// counter. All access is guarded by the stream mutex, which is what
// keeps one message's packets contiguous in the queue.
type outbox struct {
	queue   []packet.Packet
	nextID  uint32
	idBound uint32
}

func newOutbox(idBound uint32) *outbox {
	if idBound < 2 {
		idBound = DefaultMessageIDBound
	}
	return &outbox{idBound: idBound}
}

// allocID hands out the next message id, wrapping modulo the bound.
func (o *outbox) allocID() uint32 {
	id := o.nextID
	o.nextID = (o.nextID + 1) % o.idBound
	return id
}

func (o *outbox) push(packets []packet.Packet) {
	o.queue = append(o.queue, packets...)
}

func (o *outbox) peek() (packet.Packet, bool) {
	if len(o.queue) == 0 {
		return packet.Packet{}, false
	}
	return o.queue[0], true
}

func (o *outbox) pop() {
	if len(o.queue) > 0 {
		o.queue = o.queue[1:]
	}
}

func (o *outbox) drop() {
	o.queue = nil
}

func (o *outbox) empty() bool {
	return len(o.queue) == 0
}
