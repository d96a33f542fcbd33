package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/1ureka/dioxane/internal/engine"
	"github.com/1ureka/dioxane/internal/identity"
	"github.com/1ureka/dioxane/internal/protocol"
	"github.com/1ureka/dioxane/internal/transport"
	"github.com/1ureka/dioxane/internal/util"
)

var (
	ErrGoodbye      = errors.New("server said goodbye")
	ErrDisconnected = errors.New("connection to server lost")
)

// Session runs the client: inbound buffers flow from the transport to the
// engine while command lines from the input are executed. The engine lock
// serializes both.
type Session struct {
	engine      *engine.Engine
	transport   transport.Transport
	interp      *Interpreter
	input       io.Reader
	autoConnect bool

	goodbye     chan struct{}
	goodbyeOnce sync.Once
}

// SessionConfig wires a session.
type SessionConfig struct {
	Engine      *engine.Engine
	Transport   transport.Transport
	Interpreter *Interpreter
	Input       io.Reader
	AutoConnect bool
}

func NewSession(cfg SessionConfig) *Session {
	return &Session{
		engine:      cfg.Engine,
		transport:   cfg.Transport,
		interp:      cfg.Interpreter,
		input:       cfg.Input,
		autoConnect: cfg.AutoConnect,
		goodbye:     make(chan struct{}),
	}
}

// HandlePacket is the transport's inbound handler. An all-zero buffer is the
// server's goodbye and never reaches the engine.
func (s *Session) HandlePacket(data []byte) {
	if protocol.IsGoodbye(data) {
		s.goodbyeOnce.Do(func() { close(s.goodbye) })
		return
	}
	s.engine.Receive(data)
}

// Run starts the transport and processes input until quit, end of input,
// goodbye, disconnection or ctx cancellation. Quit and end of input return
// nil.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.transport.OnPacket(s.HandlePacket)
	if err := s.transport.Start(ctx); err != nil {
		return err
	}
	defer s.transport.Close()

	if s.autoConnect {
		if err := s.engine.Connect(); err != nil {
			return err
		}
	}

	lines := make(chan string)
	go scanLines(ctx, s.input, lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.goodbye:
			util.LogInfo("server said goodbye")
			return ErrGoodbye
		case <-s.transport.Done():
			return ErrDisconnected
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := s.interp.Execute(line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				report(err)
			}
		}
	}
}

// report shows command errors the engine has not already displayed.
func report(err error) {
	switch {
	case errors.Is(err, ErrUnknownCommand), errors.Is(err, ErrUsage),
		errors.Is(err, ErrNoInjector), errors.Is(err, identity.ErrNotFound),
		errors.Is(err, protocol.ErrInvalidHex), errors.Is(err, transport.ErrClosed):
		util.LogWarning("%v", err)
	default:
		util.LogDebug("command failed: %v", err)
	}
}

func scanLines(ctx context.Context, r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case out <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}
