package stream

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/mvrik/linkstream/internal/compress"
	"github.com/mvrik/linkstream/internal/crypto"
	"github.com/mvrik/linkstream/internal/link"
	"github.com/mvrik/linkstream/internal/logging"
	"github.com/mvrik/linkstream/internal/protocol/packet"
)

// Config bounds one stream instance.
type Config struct {
	// MessageIDBound is the wrap bound for outbound message ids.
	// Zero selects DefaultMessageIDBound.
	MessageIDBound uint32
	// Compress enables payload compression on send. Payloads that do
	// not shrink are sent uncompressed regardless.
	Compress bool
}

// Stream is the message-transport core over one link. It chunks
// outbound messages into bounded packets, reassembles inbound packets
// into complete messages, and keeps at most one link write in flight.
type Stream struct {
	link      link.Link
	cfg       Config
	logger    zerolog.Logger
	callbacks *registry

	// mu guards the outbox, the assembler, and the cipher. Holding it
	// across the whole Send path is what makes compress, encrypt, id
	// allocation, chunking and enqueue atomic per message.
	mu     sync.Mutex
	out    *outbox
	asm    assembler
	cipher *crypto.Cipher

	// inFlight is separate from mu: write confirmation arrives on the
	// drain goroutine and must not block senders from enqueueing.
	inFlight atomic.Bool
	closed   atomic.Bool
}

// New builds a stream over an established link and installs itself as
// the link's receiver.
func New(lk link.Link, cfg Config) *Stream {
	s := &Stream{
		link:      lk,
		cfg:       cfg,
		logger:    logging.New("stream"),
		callbacks: newRegistry(),
		out:       newOutbox(cfg.MessageIDBound),
	}
	lk.SetReceiver(s.handleFrame)
	return s
}

// SetKey installs the symmetric key produced by the external
// association handshake. Until it is called, sends with Encrypted set
// fail with ErrNoKey.
func (s *Stream) SetKey(key []byte) error {
	c, err := crypto.New(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cipher = c
	s.mu.Unlock()
	return nil
}

// Register adds an observer. Registering the same observer twice is a
// caller error.
func (s *Stream) Register(h Handler) error {
	return s.callbacks.add(h)
}

// Unregister removes an observer. Removing an unknown observer is
// logged but non-fatal.
func (s *Stream) Unregister(h Handler) {
	if !s.callbacks.remove(h) {
		s.logger.Warn().Msg("unregister of unknown handler")
	}
}

// Send chunks one message onto the outbound queue and returns its
// message id. The message's packets are enqueued as one atomic run, so
// interleaved senders never fragment each other's messages. The write
// itself proceeds asynchronously; observers learn of completion via
// OnMessageSent.
func (s *Stream) Send(msg Message) (uint32, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	s.mu.Lock()
	if msg.Encrypted && s.cipher == nil {
		s.mu.Unlock()
		return 0, ErrNoKey
	}

	payload := msg.Payload
	var originalSize uint32
	if s.cfg.Compress {
		if deflated, ok := compress.Deflate(payload); ok {
			originalSize = uint32(len(payload))
			payload = deflated
		}
	}
	if msg.Encrypted {
		sealed, err := s.cipher.Seal(payload)
		if err != nil {
			s.mu.Unlock()
			return 0, err
		}
		payload = sealed
	}

	body := packet.MarshalEnvelope(packet.Envelope{
		Operation:    uint32(msg.Operation),
		Encrypted:    msg.Encrypted,
		OriginalSize: originalSize,
		Recipient:    msg.Recipient,
		Body:         payload,
	})

	id := s.out.allocID()
	packets, err := packet.Split(body, s.link.MaxWriteSize(), id)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.out.push(packets)
	s.mu.Unlock()

	s.drive()
	return id, nil
}

// Close tears the stream down. Queued packets and partial assembly
// state are discarded; final.
func (s *Stream) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.mu.Lock()
	s.out.drop()
	s.asm.reset()
	s.mu.Unlock()
	s.link.Disconnect()
}

// drive starts the drain goroutine unless a write is already in
// flight; the active drain will pick up newly queued packets itself.
func (s *Stream) drive() {
	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}
	go s.drain()
}

// drain writes queued packets one at a time, each only after the link
// confirmed the previous one. It owns the inFlight flag.
func (s *Stream) drain() {
	for {
		s.mu.Lock()
		head, ok := s.out.peek()
		s.mu.Unlock()
		if !ok {
			s.inFlight.Store(false)
			// A sender may have enqueued between the peek and the flag
			// clear; reclaim the flag and keep draining if so.
			s.mu.Lock()
			empty := s.out.empty()
			s.mu.Unlock()
			if empty || !s.inFlight.CompareAndSwap(false, true) {
				return
			}
			continue
		}

		if err := s.link.Write(packet.Marshal(head)); err != nil {
			s.inFlight.Store(false)
			s.fail("link write failed", err)
			return
		}

		s.mu.Lock()
		s.out.pop()
		s.mu.Unlock()

		if head.Number == head.Total {
			for _, h := range s.callbacks.snapshot() {
				h.OnMessageSent(head.MessageID)
			}
		}
	}
}

// handleFrame is the link's receive callback; it runs on the link's
// read goroutine.
func (s *Stream) handleFrame(data []byte) {
	if s.closed.Load() {
		return
	}

	pkt, err := packet.Unmarshal(data)
	if err != nil {
		s.fail("packet decode failed", err)
		return
	}

	s.mu.Lock()
	body, done, err := s.asm.feed(pkt)
	s.mu.Unlock()
	if err != nil {
		s.fail("packet sequence violation", err)
		return
	}
	if !done {
		return
	}
	s.deliver(body)
}

func (s *Stream) deliver(body []byte) {
	env, err := packet.UnmarshalEnvelope(body)
	if err != nil {
		s.fail("envelope decode failed", err)
		return
	}

	payload := env.Body
	if env.Encrypted {
		s.mu.Lock()
		c := s.cipher
		s.mu.Unlock()
		if c == nil {
			s.fail("encrypted message without established key", ErrNoKey)
			return
		}
		if payload, err = c.Open(payload); err != nil {
			s.fail("payload decrypt failed", err)
			return
		}
	}
	if payload, err = compress.Inflate(payload, env.OriginalSize); err != nil {
		s.fail("payload decompress failed", err)
		return
	}

	msg := Message{
		Payload:   payload,
		Operation: Operation(env.Operation),
		Encrypted: env.Encrypted,
		Recipient: env.Recipient,
	}
	for _, h := range s.callbacks.snapshot() {
		h.OnMessageReceived(msg)
	}
}

// fail handles every fault that touches shared link state. The protocol
// has no in-band recovery, so all of them escalate to one disconnect.
func (s *Stream) fail(msg string, err error) {
	if s.closed.Swap(true) {
		return
	}
	s.logger.Error().Err(err).Msg(msg)
	s.mu.Lock()
	s.out.drop()
	s.asm.reset()
	s.mu.Unlock()
	s.link.Disconnect()
}
