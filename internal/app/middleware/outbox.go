package middleware

import (
	"context"
	"errors"

	"vehiclerental/internal/app/commands"
	"vehiclerental/internal/app/outbox"
)

// OutboxFlush nudges the outbox after every command. Failed commands may still
// have recorded events, so the flush runs for them too.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			flushErr := box.Flush(ctx)
			if err != nil {
				return nil, err
			}
			if flushErr != nil {
				return nil, errors.Join(ErrOutboxFlush, flushErr)
			}
			return res, nil
		})
	}
}

var ErrOutboxFlush = errors.New("middleware: outbox flush failed")
