// Package transport carries framed Eth3r packets between the client and the
// server. Each inbound buffer is handed to the registered handler as is; no
// stream reassembly is performed.
package transport

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotStarted = errors.New("transport not started")
	ErrClosed     = errors.New("transport closed")
)

// Transport is a byte-stream connection to the server.
type Transport interface {
	// Start connects and begins delivering inbound buffers.
	Start(ctx context.Context) error
	// Send enqueues one framed packet.
	Send(data []byte) error
	// OnPacket registers the inbound handler. It must be called before Start.
	OnPacket(fn func(data []byte))
	// Done is closed once the transport stops.
	Done() <-chan struct{}
	Close() error
}

// base holds the lifecycle shared by every transport: the handler, the
// sender goroutine and the cancel of the connection context.
type base struct {
	mu      sync.Mutex
	handler func([]byte)
	sender  *sender
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func newBase() base {
	return base{done: make(chan struct{})}
}

func (b *base) OnPacket(fn func(data []byte)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = fn
}

func (b *base) deliver(data []byte) {
	b.mu.Lock()
	fn := b.handler
	b.mu.Unlock()
	if fn != nil {
		fn(data)
	}
}

// run records the sender and cancel of a started transport.
func (b *base) run(s *sender, cancel context.CancelFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sender = s
	b.cancel = cancel
}

func (b *base) Send(data []byte) error {
	b.mu.Lock()
	s := b.sender
	b.mu.Unlock()
	if s == nil {
		return ErrNotStarted
	}
	return s.send(data)
}

func (b *base) Done() <-chan struct{} {
	return b.done
}

// stop cancels the connection context, runs closeConn and closes Done. Only
// the first call has any effect.
func (b *base) stop(closeConn func() error) error {
	var err error
	b.once.Do(func() {
		b.mu.Lock()
		if b.cancel != nil {
			b.cancel()
		}
		b.mu.Unlock()
		if closeConn != nil {
			err = closeConn()
		}
		close(b.done)
	})
	return err
}
