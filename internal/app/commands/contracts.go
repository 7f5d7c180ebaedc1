package commands

import (
	"context"
	"errors"
)

// Command is a write intent routed through the bus. Key names the handler.
type Command interface {
	Key() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// HandlerFunc lets an ordinary function act as a Handler.
type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

var (
	ErrHandlerNotFound  = errors.New("commands: handler not found")
	ErrDuplicateHandler = errors.New("commands: handler already registered")
	ErrInvalidCommand   = errors.New("commands: invalid command for handler")
	ErrResultType       = errors.New("commands: result type mismatch")
	ErrNilBus           = errors.New("commands: nil bus")
)

// Dispatch runs cmd through bus and asserts the result type.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, ErrResultType
	}
	return value, nil
}
