package commands

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type rawHandler func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus routes commands to handlers registered at wiring time.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]rawHandler)}
}

func (b *InMemoryBus) register(key string, h rawHandler) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidCommand)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, key)
	}
	b.handlers[key] = h
	return nil
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	b.mu.RLock()
	h, ok := b.handlers[cmd.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.Key())
	}
	return h(ctx, cmd)
}

// Keys lists registered command keys in order.
func (b *InMemoryBus) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.handlers))
	for k := range b.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegisterHandler attaches a typed handler under key.
func RegisterHandler[C Command, R any](bus *InMemoryBus, key string, handler Handler[C, R]) error {
	if bus == nil {
		return ErrNilBus
	}
	return bus.register(key, func(ctx context.Context, raw Command) (any, error) {
		cmd, ok := raw.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCommand, key)
		}
		return handler.Handle(ctx, cmd)
	})
}

// MustRegister is RegisterHandler for wiring code.
func MustRegister[C Command, R any](bus *InMemoryBus, key string, handler Handler[C, R]) {
	if err := RegisterHandler(bus, key, handler); err != nil {
		panic(err)
	}
}
