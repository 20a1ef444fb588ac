package handlers

import (
	telebot "gopkg.in/telebot.v3"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// Guard decides whether a protected handler may run. When it returns false
// it has already told the user why.
type Guard func(c telebot.Context) (bool, error)

// Keys under which middlewares store per-update values in telebot.Context.
const (
	ContextKey    = "spinhall.ctx"
	TranslatorKey = "spinhall.translator"
	PayloadKey    = "spinhall.payload"
	// RouteKey holds the command or callback id the router matched.
	RouteKey = "spinhall.route"
)
