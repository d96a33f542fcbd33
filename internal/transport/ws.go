package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/1ureka/dioxane/internal/util"
)

const closeTimeout = time.Second

// WebSocket connects to a server exposed over WebSocket. Each binary message
// carries one framed packet.
type WebSocket struct {
	base
	url  string
	conn *websocket.Conn
}

// NewWebSocket creates a transport for the given ws:// or wss:// URL.
func NewWebSocket(url string) *WebSocket {
	return &WebSocket{base: newBase(), url: url}
}

func (w *WebSocket) Start(ctx context.Context) error {
	dialer := websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to WS server: %w", err)
	}
	w.conn = conn

	cctx, cancel := context.WithCancel(ctx)
	w.run(newSender(cctx, func(data []byte) error {
		return conn.WriteMessage(websocket.BinaryMessage, data)
	}, func(error) { w.Close() }), cancel)

	go w.readLoop()
	go func() {
		<-cctx.Done()
		w.Close()
	}()

	util.LogInfo("connected to %s", w.url)
	return nil
}

func (w *WebSocket) readLoop() {
	defer w.Close()
	for {
		kind, data, err := w.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				select {
				case <-w.done:
				default:
					util.LogError("read from %s: %v", w.url, err)
				}
			}
			return
		}
		if kind != websocket.BinaryMessage {
			util.LogDebug("ignoring non-binary WS message")
			continue
		}
		util.Stats.AddRecv(len(data))
		w.deliver(data)
	}
}

func (w *WebSocket) Close() error {
	return w.stop(func() error {
		if w.conn == nil {
			return nil
		}
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(closeTimeout))
		return w.conn.Close()
	})
}
