// Package bottest provides an in-memory telebot.Context for handler tests.
package bottest

import (
	"fmt"
	"sync"
	"sync/atomic"

	telebot "gopkg.in/telebot.v3"
)

var updateSeq atomic.Int64

// Sent is one outgoing message or edit.
type Sent struct {
	Text   string
	Markup *telebot.ReplyMarkup
	Edited bool
}

// Context records what a handler sends. Methods it does not override panic
// through the nil embedded interface, which flags unexpected calls.
type Context struct {
	telebot.Context

	mu        sync.Mutex
	chat      *telebot.Chat
	sender    *telebot.User
	message   *telebot.Message
	callback  *telebot.Callback
	updateID  int
	store     map[string]any
	sent      []Sent
	responses []*telebot.CallbackResponse
	deleted   int
}

// Text builds a plain message update.
func Text(chatID int64, text string) *Context {
	chat := &telebot.Chat{ID: chatID, Type: telebot.ChatPrivate}
	sender := &telebot.User{ID: chatID, FirstName: "Test", LanguageCode: "en"}
	id := int(updateSeq.Add(1))
	return &Context{
		chat:     chat,
		sender:   sender,
		message:  &telebot.Message{ID: id, Chat: chat, Sender: sender, Text: text},
		updateID: id,
		store:    make(map[string]any),
	}
}

// Callback builds an inline button press with raw callback data.
func Callback(chatID int64, data string) *Context {
	c := Text(chatID, "")
	c.callback = &telebot.Callback{
		ID:      fmt.Sprintf("cb-%d", updateSeq.Add(1)),
		Sender:  c.sender,
		Message: c.message,
		Data:    data,
	}
	return c
}

// WithLanguage sets the Telegram client language of the sender.
func (c *Context) WithLanguage(code string) *Context {
	c.sender.LanguageCode = code
	return c
}

// Update returns the update envelope; a redelivery is a copy with the same ID.
func (c *Context) Update() telebot.Update {
	return telebot.Update{ID: c.updateID, Message: c.message, Callback: c.callback}
}

func (c *Context) Chat() *telebot.Chat         { return c.chat }
func (c *Context) Sender() *telebot.User       { return c.sender }
func (c *Context) Callback() *telebot.Callback { return c.callback }
func (c *Context) Message() *telebot.Message   { return c.message }

func (c *Context) Text() string {
	if c.message == nil {
		return ""
	}
	return c.message.Text
}

func (c *Context) Get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = value
}

func (c *Context) Send(what interface{}, opts ...interface{}) error {
	c.record(what, false, opts)
	return nil
}

func (c *Context) Edit(what interface{}, opts ...interface{}) error {
	c.record(what, true, opts)
	return nil
}

func (c *Context) Respond(resp ...*telebot.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(resp) == 0 {
		c.responses = append(c.responses, &telebot.CallbackResponse{})
		return nil
	}
	c.responses = append(c.responses, resp...)
	return nil
}

func (c *Context) Delete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted++
	return nil
}

func (c *Context) Notify(telebot.ChatAction) error { return nil }

func (c *Context) record(what interface{}, edited bool, opts []interface{}) {
	s := Sent{Text: fmt.Sprint(what), Edited: edited}
	for _, opt := range opts {
		if markup, ok := opt.(*telebot.ReplyMarkup); ok {
			s.Markup = markup
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, s)
}

// Sent returns everything sent or edited, in order.
func (c *Context) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// Last returns the text of the latest message, or "".
func (c *Context) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1].Text
}

// Responses returns the callback answers.
func (c *Context) Responses() []*telebot.CallbackResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*telebot.CallbackResponse(nil), c.responses...)
}

// Deleted counts Delete calls.
func (c *Context) Deleted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleted
}

// Buttons lists the callback data of every inline button in the last markup.
func (c *Context) Buttons() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.sent) - 1; i >= 0; i-- {
		m := c.sent[i].Markup
		if m == nil || m.InlineKeyboard == nil {
			continue
		}
		var out []string
		for _, row := range m.InlineKeyboard {
			for _, b := range row {
				if b.Data != "" {
					out = append(out, b.Data)
				}
			}
		}
		return out
	}
	return nil
}

var _ telebot.Context = (*Context)(nil)
