package middleware

import (
	"context"
	"log/slog"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/outbox"
)

// OutboxFlush wakes the relay after every successful command. The command's
// events are already stored by then, so a failed wakeup is logged and the
// result still returned; the relay's poll picks the records up later.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(context.WithoutCancel(ctx)); err != nil {
				logger.WarnContext(ctx, "outbox wakeup failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
