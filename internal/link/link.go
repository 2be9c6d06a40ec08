// Package link owns the byte-stream transport underneath the stream core.
//
// Ownership boundary:
// - the Link contract the stream core writes to and receives from
// - length-prefixed framing over a TCP (or TCP-like) connection
package link

// Receiver is invoked with the raw bytes of each inbound link frame. It
// runs on the link's read goroutine.
type Receiver func(data []byte)

// Link is a bidirectional byte-stream of bounded per-write size. Write
// blocks until the link confirms the frame was handed off; a non-nil
// error is final and the caller must treat the link as dead.
type Link interface {
	MaxWriteSize() int
	Write(p []byte) error
	SetReceiver(fn Receiver)
	Disconnect()
}
