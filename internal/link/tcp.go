package link

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mvrik/linkstream/internal/logging"
)

const frameHeaderLen = 4

var (
	ErrWriteTooLarge = errors.New("link: write exceeds max write size")
	ErrFrameTooLarge = errors.New("link: inbound frame exceeds max write size")
	ErrClosed        = errors.New("link: closed")
)

// TCPConfig bounds one TCP link.
type TCPConfig struct {
	MaxWriteSize int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// TCP frames a net.Conn into discrete bounded writes: each frame is a
// 4-byte big-endian length followed by the frame body.
type TCP struct {
	conn   net.Conn
	cfg    TCPConfig
	logger zerolog.Logger

	mu       sync.Mutex // serializes frame writes
	recvMu   sync.Mutex
	receiver Receiver

	closed atomic.Bool
	cancel context.CancelFunc
}

// NewTCP wraps an established connection. The receiver must be set
// before Run is called.
func NewTCP(conn net.Conn, cfg TCPConfig) *TCP {
	return &TCP{
		conn:   conn,
		cfg:    cfg,
		logger: logging.New("link"),
	}
}

func (t *TCP) MaxWriteSize() int {
	return t.cfg.MaxWriteSize
}

func (t *TCP) SetReceiver(fn Receiver) {
	t.recvMu.Lock()
	defer t.recvMu.Unlock()
	t.receiver = fn
}

// Write sends one frame and blocks until the connection accepts it.
func (t *TCP) Write(p []byte) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if len(p) > t.cfg.MaxWriteSize {
		return fmt.Errorf("%w: %d > %d", ErrWriteTooLarge, len(p), t.cfg.MaxWriteSize)
	}

	buf := make([]byte, frameHeaderLen+len(p))
	binary.BigEndian.PutUint32(buf[:frameHeaderLen], uint32(len(p)))
	copy(buf[frameHeaderLen:], p)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cfg.WriteTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	}
	if _, err := t.conn.Write(buf); err != nil {
		return err
	}
	return nil
}

// Disconnect closes the link. Safe to call multiple times; final.
func (t *TCP) Disconnect() {
	if t.closed.Swap(true) {
		return
	}
	t.logger.Info().Str("remote", t.remote()).Msg("link disconnected")
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	_ = t.conn.Close()
}

// Run reads inbound frames until the context is canceled or the
// connection fails, handing each frame body to the receiver.
func (t *TCP) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()
	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		return t.readLoop(child)
	})
	group.Go(func() error {
		<-child.Done()
		// Unblock the read loop.
		_ = t.conn.Close()
		return child.Err()
	})

	err := group.Wait()
	t.closed.Store(true)
	if err != nil && !errors.Is(err, context.Canceled) {
		t.logger.Debug().Err(err).Str("remote", t.remote()).Msg("link read loop ended")
	}
	return err
}

func (t *TCP) readLoop(ctx context.Context) error {
	var header [frameHeaderLen]byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.cfg.ReadTimeout > 0 {
			_ = t.conn.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout))
		}

		if _, err := io.ReadFull(t.conn, header[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return err
		}
		length := binary.BigEndian.Uint32(header[:])
		if int(length) > t.cfg.MaxWriteSize {
			return fmt.Errorf("%w: %d", ErrFrameTooLarge, length)
		}

		body := make([]byte, length)
		if _, err := io.ReadFull(t.conn, body); err != nil {
			return err
		}

		t.recvMu.Lock()
		fn := t.receiver
		t.recvMu.Unlock()
		if fn != nil {
			fn(body)
		}
	}
}

func (t *TCP) remote() string {
	if addr := t.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
