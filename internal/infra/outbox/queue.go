package outbox

import (
	"context"
	"time"

	appoutbox "stayengine/internal/app/outbox"
)

// Pending is an outbox record claimed for relay.
type Pending struct {
	appoutbox.EventRecord
	Attempts int
}

// Queue is the relay side of an outbox. Claim returns nil when nothing is due.
type Queue interface {
	Claim(ctx context.Context, workerID string) (*Pending, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// Notifier is implemented by queues that can wake the worker on Flush.
type Notifier interface {
	Notify() <-chan struct{}
}

// signal is a one-slot wakeup channel. Sends never block.
type signal chan struct{}

func newSignal() signal { return make(signal, 1) }

func (s signal) poke() {
	select {
	case s <- struct{}{}:
	default:
	}
}
