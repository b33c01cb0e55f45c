package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/threeview/pkg/ports"
)

var _ ports.Socket = (*Socket)(nil)

// ErrSocketClosed is returned by Send after Close.
var ErrSocketClosed = errors.New("socket closed")

// Socket records every command it receives. It is the in-process stand-in for
// a client connection, used by tests and embedders.
type Socket struct {
	id string

	mu       sync.Mutex
	received []string
	closed   bool
	notify   chan struct{}
}

// NewSocket creates an open recording socket.
func NewSocket(id string) *Socket {
	return &Socket{id: id, notify: make(chan struct{}, 1)}
}

// ID returns the socket identifier.
func (s *Socket) ID() string {
	return s.id
}

// Send records text.
func (s *Socket) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSocketClosed
	}
	s.received = append(s.received, text)
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

// Close makes further sends fail.
func (s *Socket) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Received returns a copy of the commands received so far.
func (s *Socket) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// WaitFor blocks until at least n commands were received or ctx is done.
func (s *Socket) WaitFor(ctx context.Context, n int) ([]string, error) {
	for {
		got := s.Received()
		if len(got) >= n {
			return got, nil
		}
		select {
		case <-s.notify:
		case <-ctx.Done():
			return got, ctx.Err()
		}
	}
}
