package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessageNotification is the message type the Center consumes.
const MessageNotification = "notification"

// MaxNotifications caps the list kept per chat.
const MaxNotifications = 50

// Notification is one entry in a chat's notification list.
type Notification struct {
	ID        string    `json:"id"`
	ChatID    int64     `json:"chatId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Center exposes the connection state and per-chat notification lists
// fed by a Channel.
type Center struct {
	channel Channel
	log     *slog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	lists map[int64][]Notification
}

func NewCenter(channel Channel, log *slog.Logger) *Center {
	if channel == nil {
		channel = Disabled{}
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Center{
		channel: channel,
		log:     log,
		now:     time.Now,
		lists:   make(map[int64][]Notification),
	}
	channel.OnMessage(c.handle)
	return c
}

// State reports the underlying channel state.
func (c *Center) State() ConnState {
	return c.channel.State()
}

// Channel returns the underlying channel.
func (c *Center) Channel() Channel {
	return c.channel
}

func (c *Center) handle(msg Message) {
	if msg.Type != MessageNotification {
		return
	}
	var n Notification
	if err := json.Unmarshal(msg.Payload, &n); err != nil || n.ChatID == 0 {
		c.log.Warn("dropping malformed notification", slog.Any("error", err))
		return
	}
	c.Push(n)
}

// Push stores n at the head of its chat's list.
func (c *Center) Push(n Notification) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = c.now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list := append([]Notification{n}, c.lists[n.ChatID]...)
	if len(list) > MaxNotifications {
		list = list[:MaxNotifications]
	}
	c.lists[n.ChatID] = list
	return n
}

// List returns a copy of the chat's notifications, newest first.
func (c *Center) List(chatID int64) []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Notification(nil), c.lists[chatID]...)
}

// Unread counts unread notifications.
func (c *Center) Unread(chatID int64) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, item := range c.lists[chatID] {
		if !item.Read {
			n++
		}
	}
	return n
}

// MarkAllRead flags every notification of the chat as read.
func (c *Center) MarkAllRead(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lists[chatID] {
		c.lists[chatID][i].Read = true
	}
}

// Clear drops the chat's notifications.
func (c *Center) Clear(chatID int64) {
	c.mu.Lock()
	delete(c.lists, chatID)
	c.mu.Unlock()
}
