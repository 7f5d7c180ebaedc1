package middleware

import (
	"context"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/queries"
)

// CommandMiddleware wraps a command bus with extra behavior.
type CommandMiddleware func(next commands.Bus) commands.Bus

type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands wraps base with mws, outermost first.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			wrapped = mws[i](wrapped)
		}
	}
	return wrapped
}

func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			wrapped = mws[i](wrapped)
		}
	}
	return wrapped
}

type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

type queryFunc func(ctx context.Context, query queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}
