// Package realtime is the message channel for live notifications. The
// default implementation is Disabled: it never opens a connection and says
// so. WebSocket is the transport to switch on once the backend publishes a
// realtime endpoint.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrDisabled is returned by every I/O method of Disabled.
	ErrDisabled = errors.New("realtime channel is disabled")
	// ErrNotConnected is returned by Send before Connect succeeds.
	ErrNotConnected = errors.New("realtime channel is not connected")
)

type ConnState string

const (
	StateDisabled     ConnState = "disabled"
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
)

// Message is the wire envelope: {"type": "...", "payload": {...}}.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Channel is a bidirectional message channel.
type Channel interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Send(ctx context.Context, msg Message) error
	// OnMessage registers a handler for inbound messages. Handlers run on the
	// reader goroutine and must not block.
	OnMessage(handler func(Message))
	State() ConnState
}

// Disabled is the honest placeholder: it performs no I/O.
type Disabled struct{}

var _ Channel = Disabled{}

func (Disabled) Connect(context.Context) error { return ErrDisabled }

func (Disabled) Disconnect() error { return nil }

func (Disabled) Send(context.Context, Message) error { return ErrDisabled }

func (Disabled) OnMessage(func(Message)) {}

func (Disabled) State() ConnState { return StateDisabled }
