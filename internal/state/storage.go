// Package state keeps the per-chat conversation state of the bot.
package state

import "context"

// Storage defines the persistence contract for chat FSM state.
type Storage interface {
	// GetState returns the current state for the chat or ErrStateNotFound.
	GetState(ctx context.Context, chatID int64) (*ChatState, error)
	// SetState saves the provided state for the chat.
	SetState(ctx context.Context, chatID int64, state *ChatState) error
	// ClearState removes the state for the chat.
	ClearState(ctx context.Context, chatID int64) error
	// GetAllStates lists every stored state.
	GetAllStates(ctx context.Context) ([]*ChatState, error)
}
