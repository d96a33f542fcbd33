package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/1ureka/dioxane/internal/util"
)

const readBufferSize = 4096

// TCP connects to the server over a plain socket. Every read is delivered as
// one buffer, so one read must carry exactly one packet.
type TCP struct {
	base
	addr string
	conn net.Conn
}

// NewTCP creates a transport for the given host:port.
func NewTCP(addr string) *TCP {
	return &TCP{base: newBase(), addr: addr}
}

func (t *TCP) Start(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", t.addr, err)
	}
	t.conn = conn

	cctx, cancel := context.WithCancel(ctx)
	t.run(newSender(cctx, func(data []byte) error {
		_, err := conn.Write(data)
		return err
	}, func(error) { t.Close() }), cancel)

	go t.readLoop()
	go func() {
		<-cctx.Done()
		t.Close()
	}()

	util.LogInfo("connected to %s", conn.RemoteAddr())
	return nil
}

func (t *TCP) readLoop() {
	defer t.Close()
	buf := make([]byte, readBufferSize)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			util.Stats.AddRecv(n)
			t.deliver(append([]byte{}, buf[:n]...))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				util.LogError("read from %s: %v", t.addr, err)
			}
			return
		}
	}
}

func (t *TCP) Close() error {
	return t.stop(func() error {
		if t.conn == nil {
			return nil
		}
		return t.conn.Close()
	})
}
