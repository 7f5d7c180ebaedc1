package middleware

import (
	"context"
	"errors"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/queries"
)

// ErrValidation is wrapped by Validator implementations for rejected input.
var ErrValidation = errors.New("middleware: validation failed")

type Validator interface {
	Validate(ctx context.Context, message any) error
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := v.Validate(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := v.Validate(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
