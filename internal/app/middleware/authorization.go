package middleware

import (
	"context"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/queries"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
