package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDisabled_NeverConnects(t *testing.T) {
	var ch Channel = Disabled{}

	assert.ErrorIs(t, ch.Connect(context.Background()), ErrDisabled)
	assert.ErrorIs(t, ch.Send(context.Background(), Message{Type: "ping"}), ErrDisabled)
	assert.NoError(t, ch.Disconnect())
	assert.Equal(t, StateDisabled, ch.State())
}

// echoServer echoes every JSON message back and pushes one notification on connect.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		payload, _ := json.Marshal(Notification{ChatID: 7, Title: "Welcome", Body: r.Header.Get("Authorization")})
		if err := conn.WriteJSON(Message{Type: MessageNotification, Payload: payload}); err != nil {
			return
		}

		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocket_RoundTrip(t *testing.T) {
	srv := echoServer(t)

	header := http.Header{}
	header.Set("Authorization", "Bearer tok")
	ws := NewWebSocket(wsURL(srv), header, testLogger())

	received := make(chan Message, 4)
	ws.OnMessage(func(m Message) { received <- m })

	require.NoError(t, ws.Connect(context.Background()))
	t.Cleanup(func() { _ = ws.Disconnect() })
	assert.Equal(t, StateConnected, ws.State())

	select {
	case m := <-received:
		assert.Equal(t, MessageNotification, m.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no greeting received")
	}

	require.NoError(t, ws.Send(context.Background(), Message{Type: "ping", Payload: json.RawMessage(`{"n":1}`)}))

	select {
	case m := <-received:
		assert.Equal(t, "ping", m.Type)
		assert.JSONEq(t, `{"n":1}`, string(m.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("no echo received")
	}

	require.NoError(t, ws.Disconnect())
	assert.Equal(t, StateDisconnected, ws.State())
	assert.ErrorIs(t, ws.Send(context.Background(), Message{Type: "ping"}), ErrNotConnected)
}

func TestWebSocket_DialFailureLeavesDisconnected(t *testing.T) {
	ws := NewWebSocket("ws://127.0.0.1:1/none", nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.Error(t, ws.Connect(ctx))
	assert.Equal(t, StateDisconnected, ws.State())
}

func TestCenter_CollectsNotificationsFromChannel(t *testing.T) {
	srv := echoServer(t)

	header := http.Header{}
	header.Set("Authorization", "Bearer tok")
	ws := NewWebSocket(wsURL(srv), header, testLogger())
	center := NewCenter(ws, testLogger())

	require.NoError(t, ws.Connect(context.Background()))
	t.Cleanup(func() { _ = ws.Disconnect() })

	require.Eventually(t, func() bool {
		return len(center.List(7)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	got := center.List(7)[0]
	assert.Equal(t, "Welcome", got.Title)
	assert.Equal(t, "Bearer tok", got.Body)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, StateConnected, center.State())
}

func TestCenter_ListOrderingAndCap(t *testing.T) {
	center := NewCenter(nil, testLogger())
	assert.Equal(t, StateDisabled, center.State())

	for i := 0; i < MaxNotifications+5; i++ {
		center.Push(Notification{ChatID: 1, Title: string(rune('a' + i%26))})
	}
	center.Push(Notification{ChatID: 1, Title: "latest"})

	list := center.List(1)
	require.Len(t, list, MaxNotifications)
	assert.Equal(t, "latest", list[0].Title)
	assert.Equal(t, MaxNotifications, center.Unread(1))

	center.MarkAllRead(1)
	assert.Zero(t, center.Unread(1))

	center.Clear(1)
	assert.Empty(t, center.List(1))
	assert.Empty(t, center.List(2))
}

func TestCenter_IgnoresForeignAndMalformedMessages(t *testing.T) {
	center := NewCenter(nil, testLogger())

	center.handle(Message{Type: "balance"})
	center.handle(Message{Type: MessageNotification, Payload: json.RawMessage(`{bad`)})
	center.handle(Message{Type: MessageNotification, Payload: json.RawMessage(`{"title":"no chat"}`)})

	assert.Empty(t, center.List(0))
}
