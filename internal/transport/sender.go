package transport

import (
	"context"

	"github.com/1ureka/dioxane/internal/util"
)

const sendBufferSize = 64 // outgoing packet channel capacity

// sender is a goroutine-based packet writer that serializes all writes to a
// single connection. Send never waits for the write itself, so the engine
// can emit while holding its lock.
type sender struct {
	ctx   context.Context
	inbox chan []byte
}

// newSender starts the writer loop. The loop exits when ctx is cancelled or
// a write fails, in which case onError is called once.
func newSender(ctx context.Context, write func([]byte) error, onError func(error)) *sender {
	s := &sender{
		ctx:   ctx,
		inbox: make(chan []byte, sendBufferSize),
	}
	go s.loop(write, onError)
	return s
}

// loop is the single-writer goroutine.
func (s *sender) loop(write func([]byte) error, onError func(error)) {
	for {
		select {
		case data := <-s.inbox:
			if err := write(data); err != nil {
				util.LogError("failed to send packet %x: %v", data, err)
				onError(err)
				return
			}
			util.Stats.AddSent(len(data))
		case <-s.ctx.Done():
			return
		}
	}
}

// send enqueues a copy of data. It blocks only while the buffer is full and
// fails once the connection is gone.
func (s *sender) send(data []byte) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}
	buf := append([]byte{}, data...)
	select {
	case s.inbox <- buf:
		return nil
	case <-s.ctx.Done():
		return ErrClosed
	}
}
