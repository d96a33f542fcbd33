package transport

import (
	"context"
	"sync"
	"time"

	"github.com/1ureka/dioxane/internal/protocol"
	"github.com/1ureka/dioxane/internal/util"
)

const inboundBufferSize = 64

// Memory is an in-process stand-in for the server. Buffers passed to Inject
// are delivered from a single goroutine after Delay. With EchoAck set, every
// sent packet is answered with ACK followed by the sent bytes. Echoes are
// queued without bound so the writer never waits on the inbound side.
type Memory struct {
	base
	EchoAck bool
	Delay   time.Duration

	inbound chan []byte
	echoed  chan struct{}

	sentMu sync.Mutex
	sent   [][]byte
	echoes [][]byte
}

// NewMemory creates an unstarted in-memory transport.
func NewMemory(echoAck bool) *Memory {
	return &Memory{
		base:    newBase(),
		EchoAck: echoAck,
		inbound: make(chan []byte, inboundBufferSize),
		echoed:  make(chan struct{}, 1),
	}
}

func (m *Memory) Start(ctx context.Context) error {
	cctx, cancel := context.WithCancel(ctx)
	m.run(newSender(cctx, m.write, func(error) { m.Close() }), cancel)

	go m.deliverLoop(cctx)
	go m.echoLoop(cctx)
	go func() {
		<-cctx.Done()
		m.Close()
	}()
	return nil
}

func (m *Memory) write(data []byte) error {
	m.sentMu.Lock()
	m.sent = append(m.sent, data)
	if m.EchoAck {
		m.echoes = append(m.echoes, append(protocol.CodeAck.Bytes(), data...))
	}
	m.sentMu.Unlock()

	if m.EchoAck {
		select {
		case m.echoed <- struct{}{}:
		default:
		}
	}
	return nil
}

// echoLoop moves queued echoes into the inbound channel in send order.
func (m *Memory) echoLoop(ctx context.Context) {
	for {
		select {
		case <-m.echoed:
		case <-ctx.Done():
			return
		}

		m.sentMu.Lock()
		pending := m.echoes
		m.echoes = nil
		m.sentMu.Unlock()

		for _, ack := range pending {
			if err := m.Inject(ack); err != nil {
				return
			}
		}
	}
}

func (m *Memory) deliverLoop(ctx context.Context) {
	for {
		select {
		case data := <-m.inbound:
			if m.Delay > 0 {
				select {
				case <-time.After(m.Delay):
				case <-ctx.Done():
					return
				}
			}
			util.Stats.AddRecv(len(data))
			m.deliver(data)
		case <-ctx.Done():
			return
		}
	}
}

// Inject queues data as if the server had sent it.
func (m *Memory) Inject(data []byte) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	buf := append([]byte{}, data...)
	select {
	case m.inbound <- buf:
		return nil
	case <-m.done:
		return ErrClosed
	}
}

// Sent returns a copy of every packet written so far.
func (m *Memory) Sent() [][]byte {
	m.sentMu.Lock()
	defer m.sentMu.Unlock()
	out := make([][]byte, len(m.sent))
	for i, data := range m.sent {
		out[i] = append([]byte{}, data...)
	}
	return out
}

func (m *Memory) Close() error {
	return m.stop(nil)
}
