package bot

import (
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/bot/handlers"
	"github.com/Proton-105/spinhall-bot/internal/state"
)

// Dispatcher routes free text to the handler of the chat's current flow step.
type Dispatcher struct {
	fsm           state.StateMachine
	stateHandlers map[state.State]handlers.Handler
	log           *slog.Logger
	mu            sync.RWMutex
}

// NewDispatcher creates a Dispatcher with an empty handlers registry.
func NewDispatcher(fsm state.StateMachine, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		fsm:           fsm,
		stateHandlers: make(map[state.State]handlers.Handler),
		log:           log,
	}
}

// RegisterStateHandler registers a handler for the provided state.
func (d *Dispatcher) RegisterStateHandler(s state.State, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stateHandlers[s] = h
}

// Dispatch runs the handler of the chat's state, or fallback when the chat
// is idle or the state has no handler.
func (d *Dispatcher) Dispatch(c telebot.Context, fallback handlers.Handler) error {
	chatID := handlers.ChatID(c)
	if chatID == 0 {
		d.log.Warn("cannot dispatch without chat information")
		return nil
	}

	current, err := d.fsm.Current(handlers.RequestContext(c), chatID)
	if err != nil {
		return err
	}

	handler := d.getHandler(current.CurrentState)
	if handler == nil {
		if state.IsWizard(current.CurrentState) {
			d.log.Info("no handler registered for state", slog.String("state", string(current.CurrentState)), slog.Int64("chat_id", chatID))
		}
		if fallback == nil {
			return nil
		}
		return fallback(c)
	}

	c.Set(handlers.RouteKey, "state:"+string(current.CurrentState))
	return handler(c)
}

func (d *Dispatcher) getHandler(s state.State) handlers.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateHandlers[s]
}
