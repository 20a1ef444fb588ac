package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/bot/handlers"
	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
	"github.com/Proton-105/spinhall-bot/internal/i18n"
	"github.com/Proton-105/spinhall-bot/internal/state"
)

// routeText is the route label of free text before the dispatcher resolves it.
const routeText = "text"

// Router dispatches commands, menu buttons, callbacks and flow input.
//
// Commands and menu buttons always win over an open flow and reset it, so
// /cancel or any menu button gets a chat out of a stuck wizard.
type Router struct {
	mu             sync.RWMutex
	commands       map[string]handlers.Handler
	callbacks      map[string]handlers.CallbackHandler
	aliases        map[string]string
	dispatcher     *Dispatcher
	fsm            state.StateMachine
	defaultHandler handlers.Handler
	middlewares    []handlers.Middleware
	log            *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(dispatcher *Dispatcher, fsm state.StateMachine, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]handlers.Handler),
		callbacks:   make(map[string]handlers.CallbackHandler),
		aliases:     make(map[string]string),
		dispatcher:  dispatcher,
		fsm:         fsm,
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command such as "/deposit".
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd] = h
}

// RegisterCallback registers a handler for the callback id before the ":".
func (r *Router) RegisterCallback(unique string, h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[unique] = h
}

// RegisterGuarded registers a command whose handler is built on first use,
// and only after guard let the update through.
func (r *Router) RegisterGuarded(cmd string, guard handlers.Guard, load func() handlers.Handler) {
	r.RegisterCommand(cmd, lazy(guard, load))
}

// RegisterGuardedCallback is RegisterGuarded for callback ids.
func (r *Router) RegisterGuardedCallback(unique string, guard handlers.Guard, load func() handlers.CallbackHandler) {
	r.RegisterCallback(unique, handlers.CallbackHandler(lazy(guard, func() handlers.Handler {
		return handlers.Handler(load())
	})))
}

// AliasMenu maps the label of every main menu button, in every language,
// to its command.
func (r *Router) AliasMenu(m *i18n.Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lang := range m.Languages() {
		t := m.Translator(lang)
		for _, item := range keyboard.MenuItems() {
			label := strings.TrimSpace(t.T(item.Key))
			if label == "" || label == item.Key {
				continue
			}
			r.aliases[label] = item.Command
		}
	}
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// SetDefault sets the fallback handler for unmatched commands or states.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	if callback := c.Callback(); callback != nil {
		return r.handleCallback(c, callback.Data)
	}

	return r.handleMessage(c)
}

func (r *Router) handleCallback(c telebot.Context, data string) error {
	// telebot prefixes data of buttons with a unique id with "\f".
	unique, payload, err := keyboard.DecodeCallback(strings.TrimPrefix(data, "\f"))
	if err != nil {
		r.log.Info("malformed callback data", slog.String("data", data))
		return c.Respond()
	}
	c.Set(handlers.PayloadKey, payload)

	if unique == keyboard.CallbackNav {
		if handler := r.getCommandHandler(payload); handler != nil {
			return r.executeHandler(r.command(payload, handler), c)
		}
	}

	handler := r.getCallbackHandler(unique)
	if handler == nil {
		r.log.Info("no callback handler found", slog.String("unique", unique))
		return c.Respond()
	}

	c.Set(handlers.RouteKey, unique)
	return r.executeHandler(handlers.Handler(handler), c)
}

func (r *Router) handleMessage(c telebot.Context) error {
	text := strings.TrimSpace(c.Text())

	if cmd, ok := commandWord(text); ok {
		if handler := r.getCommandHandler(cmd); handler != nil {
			return r.executeHandler(r.command(cmd, handler), c)
		}
	} else if cmd, ok := r.getAlias(text); ok {
		if handler := r.getCommandHandler(cmd); handler != nil {
			return r.executeHandler(r.command(cmd, handler), c)
		}
	}

	c.Set(handlers.RouteKey, routeText)
	return r.executeHandler(r.dispatchState, c)
}

func (r *Router) dispatchState(c telebot.Context) error {
	fallback := r.getDefaultHandler()
	if r.dispatcher == nil {
		if fallback == nil {
			return nil
		}
		return fallback(c)
	}
	return r.dispatcher.Dispatch(c, fallback)
}

// command resets any open flow before running h.
func (r *Router) command(cmd string, h handlers.Handler) handlers.Handler {
	return func(c telebot.Context) error {
		c.Set(handlers.RouteKey, cmd)
		if r.fsm != nil {
			if err := r.fsm.ClearState(handlers.RequestContext(c), handlers.ChatID(c)); err != nil {
				return err
			}
		}
		return h(c)
	}
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	wrapped := r.applyMiddlewares(h)
	if wrapped == nil {
		return nil
	}
	return wrapped(c)
}

// commandWord extracts "/cmd" from "/cmd@spinhall_bot args".
func commandWord(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	word, _, _ := strings.Cut(text, " ")
	word, _, _ = strings.Cut(word, "@")
	return strings.ToLower(word), true
}

func (r *Router) getCallbackHandler(unique string) handlers.CallbackHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbacks[unique]
}

func (r *Router) getCommandHandler(cmd string) handlers.Handler {
	r.mu.RLock()
	handler := r.commands[cmd]
	r.mu.RUnlock()
	return handler
}

func (r *Router) getAlias(text string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.aliases[text]
	return cmd, ok
}

func (r *Router) getDefaultHandler() handlers.Handler {
	r.mu.RLock()
	handler := r.defaultHandler
	r.mu.RUnlock()
	return handler
}

// applyMiddlewares wraps the handler with all registered middlewares.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	if h == nil {
		return nil
	}

	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}

// lazy builds the handler from load once, the first time guard passes.
// Chats that fail the guard never cause the screen to be built.
func lazy(guard handlers.Guard, load func() handlers.Handler) handlers.Handler {
	var (
		once    sync.Once
		handler handlers.Handler
	)
	return func(c telebot.Context) error {
		if guard != nil {
			ok, err := guard(c)
			if err != nil || !ok {
				return err
			}
		}
		once.Do(func() { handler = load() })
		if handler == nil {
			return nil
		}
		return handler(c)
	}
}
