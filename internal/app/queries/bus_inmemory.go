package queries

import (
	"context"
	"fmt"
	"sync"
)

type rawHandler func(ctx context.Context, q Query) (any, error)

type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]rawHandler)}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	b.mu.RLock()
	h, ok := b.handlers[query.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, query.Key())
	}
	return h(ctx, query)
}

func RegisterHandler[Q Query, R any](bus *InMemoryBus, key string, handler Handler[Q, R]) error {
	if bus == nil {
		return ErrNilBus
	}
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidQuery)
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, exists := bus.handlers[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, key)
	}
	bus.handlers[key] = func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, key)
		}
		return handler.Handle(ctx, q)
	}
	return nil
}

func MustRegister[Q Query, R any](bus *InMemoryBus, key string, handler Handler[Q, R]) {
	if err := RegisterHandler(bus, key, handler); err != nil {
		panic(err)
	}
}
