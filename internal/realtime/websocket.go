package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

// WebSocket is a Channel over gorilla/websocket.
type WebSocket struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	log    *slog.Logger

	mu       sync.RWMutex
	state    ConnState
	conn     *websocket.Conn
	send     chan Message
	done     chan struct{}
	handlers []func(Message)
}

var _ Channel = (*WebSocket)(nil)

// NewWebSocket prepares a channel to url. header is sent on the handshake,
// e.g. an Authorization header.
func NewWebSocket(url string, header http.Header, log *slog.Logger) *WebSocket {
	if log == nil {
		log = slog.Default()
	}
	return &WebSocket{
		url:    url,
		header: header,
		dialer: websocket.DefaultDialer,
		log:    log.With(slog.String("component", "realtime")),
		state:  StateDisconnected,
	}
}

func (w *WebSocket) Connect(ctx context.Context) error {
	w.mu.Lock()
	if w.state == StateConnected || w.state == StateConnecting {
		w.mu.Unlock()
		return nil
	}
	w.state = StateConnecting
	w.mu.Unlock()

	conn, _, err := w.dialer.DialContext(ctx, w.url, w.header)
	if err != nil {
		w.setState(StateDisconnected)
		return fmt.Errorf("dial realtime: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.send = make(chan Message, sendBuffer)
	w.done = make(chan struct{})
	w.state = StateConnected
	send, done := w.send, w.done
	w.mu.Unlock()

	go w.writePump(conn, send, done)
	go w.readPump(conn, done)

	w.log.Info("realtime connected", slog.String("url", w.url))
	return nil
}

func (w *WebSocket) Disconnect() error {
	w.mu.Lock()
	conn, done := w.conn, w.done
	w.conn, w.done = nil, nil
	w.state = StateDisconnected
	w.mu.Unlock()

	if conn == nil {
		return nil
	}
	close(done)

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return conn.Close()
}

func (w *WebSocket) Send(ctx context.Context, msg Message) error {
	w.mu.RLock()
	send, done, state := w.send, w.done, w.state
	w.mu.RUnlock()

	if state != StateConnected {
		return ErrNotConnected
	}

	select {
	case send <- msg:
		return nil
	case <-done:
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *WebSocket) OnMessage(handler func(Message)) {
	if handler == nil {
		return
	}
	w.mu.Lock()
	w.handlers = append(w.handlers, handler)
	w.mu.Unlock()
}

func (w *WebSocket) State() ConnState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *WebSocket) setState(s ConnState) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *WebSocket) writePump(conn *websocket.Conn, send <-chan Message, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				w.log.Warn("realtime write failed", slog.Any("error", err))
				w.dropConn(conn)
				return
			}
		}
	}
}

func (w *WebSocket) readPump(conn *websocket.Conn, done <-chan struct{}) {
	defer w.dropConn(conn)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-done:
			default:
				w.log.Warn("realtime read failed", slog.Any("error", err))
			}
			return
		}

		w.mu.RLock()
		handlers := append([]func(Message){}, w.handlers...)
		w.mu.RUnlock()
		for _, h := range handlers {
			h(msg)
		}
	}
}

// dropConn marks the channel disconnected if conn is still the active one.
func (w *WebSocket) dropConn(conn *websocket.Conn) {
	w.mu.Lock()
	if w.conn != conn {
		w.mu.Unlock()
		return
	}
	done := w.done
	w.conn, w.done = nil, nil
	w.state = StateDisconnected
	w.mu.Unlock()

	close(done)
	_ = conn.Close()
}
