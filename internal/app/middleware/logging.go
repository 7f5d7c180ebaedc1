package middleware

import (
	"context"
	"log/slog"
	"time"

	"stayengine/internal/app/commands"
)

// Logging records every dispatched command with its outcome and duration.
func Logging(logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		if logger == nil {
			return next
		}
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				logger.WarnContext(ctx, "command failed", "command", cmd.Key(), "duration", time.Since(start), "error", err)
				return nil, err
			}
			logger.DebugContext(ctx, "command handled", "command", cmd.Key(), "duration", time.Since(start))
			return res, nil
		})
	}
}
