package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	chatLockKeyPattern = "chat:lock:%d"
	lockTTL            = 5 * time.Second
)

var (
	// ErrInvalidTransition indicates that a requested FSM transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that a chat state record does not exist.
	ErrStateNotFound = errors.New("chat state not found")
	// ErrStateLocked indicates that a concurrent operation already holds the lock.
	ErrStateLocked = errors.New("state is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe FSM transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// StateMachine describes the operations supported by the FSM controller.
type StateMachine interface {
	GetState(ctx context.Context, chatID int64) (*ChatState, error)
	// Current returns the stored state or an idle state when none exists.
	Current(ctx context.Context, chatID int64) (*ChatState, error)
	// SetState replaces state and data unconditionally. Used to enter a flow.
	SetState(ctx context.Context, chatID int64, state State, data map[string]string) error
	// TransitionTo moves along an allowed edge, merging data into the collected values.
	TransitionTo(ctx context.Context, chatID int64, newState State, data map[string]string) error
	ClearState(ctx context.Context, chatID int64) error
	GetAllStates(ctx context.Context) ([]*ChatState, error)
}

// machine is a concrete implementation of StateMachine backed by Storage and Redis locking.
type machine struct {
	storage     Storage
	log         *slog.Logger
	redisClient *redis.Client
}

// NewStateMachine creates a FSM controller using the provided storage backend and redis client for locking.
// A nil redis client disables locking.
func NewStateMachine(storage Storage, log *slog.Logger, redisClient *redis.Client) StateMachine {
	if log == nil {
		log = slog.Default()
	}

	return &machine{
		storage:     storage,
		log:         log,
		redisClient: redisClient,
	}
}

func (m *machine) GetState(ctx context.Context, chatID int64) (*ChatState, error) {
	return m.storage.GetState(ctx, chatID)
}

func (m *machine) Current(ctx context.Context, chatID int64) (*ChatState, error) {
	st, err := m.storage.GetState(ctx, chatID)
	if errors.Is(err, ErrStateNotFound) || (err == nil && st == nil) {
		return &ChatState{ChatID: chatID, CurrentState: StateIdle}, nil
	}
	return st, err
}

func (m *machine) GetAllStates(ctx context.Context) ([]*ChatState, error) {
	return m.storage.GetAllStates(ctx)
}

func (m *machine) SetState(ctx context.Context, chatID int64, state State, data map[string]string) error {
	if err := m.lock(ctx, chatID); err != nil {
		return err
	}
	defer m.unlock(ctx, chatID)

	return m.saveState(ctx, chatID, state, maps.Clone(data))
}

func (m *machine) TransitionTo(ctx context.Context, chatID int64, newState State, data map[string]string) error {
	if err := m.lock(ctx, chatID); err != nil {
		return err
	}
	defer m.unlock(ctx, chatID)

	current := StateIdle
	merged := map[string]string{}

	stored, err := m.storage.GetState(ctx, chatID)
	if err != nil {
		if !errors.Is(err, ErrStateNotFound) {
			return err
		}
	} else if stored != nil {
		current = stored.CurrentState
		maps.Copy(merged, stored.Data)
	}

	if !IsTransitionAllowed(current, newState) {
		m.log.Warn("invalid state transition", "chat_id", chatID, "from", current, "to", newState)
		return ErrInvalidTransition
	}

	transitionRecorder(string(current), string(newState))

	if newState == StateIdle {
		return m.storage.ClearState(ctx, chatID)
	}

	maps.Copy(merged, data)
	return m.saveState(ctx, chatID, newState, merged)
}

func (m *machine) ClearState(ctx context.Context, chatID int64) error {
	if err := m.lock(ctx, chatID); err != nil {
		return err
	}
	defer m.unlock(ctx, chatID)

	return m.storage.ClearState(ctx, chatID)
}

func (m *machine) saveState(ctx context.Context, chatID int64, state State, data map[string]string) error {
	return m.storage.SetState(ctx, chatID, &ChatState{
		ChatID:       chatID,
		CurrentState: state,
		Data:         data,
	})
}

func (m *machine) lock(ctx context.Context, chatID int64) error {
	if m.redisClient == nil {
		return nil
	}

	key := fmt.Sprintf(chatLockKeyPattern, chatID)
	acquired, err := m.redisClient.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		m.log.Error("failed to acquire chat state lock", "chat_id", chatID, "error", err)
		return err
	}

	if !acquired {
		m.log.Warn("chat state lock already held", "chat_id", chatID)
		return ErrStateLocked
	}

	return nil
}

func (m *machine) unlock(ctx context.Context, chatID int64) {
	if m.redisClient == nil {
		return
	}

	key := fmt.Sprintf(chatLockKeyPattern, chatID)
	if err := m.redisClient.Del(ctx, key).Err(); err != nil {
		m.log.Error("failed to release chat state lock", "chat_id", chatID, "error", err)
	}
}
