package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	appoutbox "stayengine/internal/app/outbox"
	infraoutbox "stayengine/internal/infra/outbox"
)

type outboxState int

const (
	outboxNew outboxState = iota
	outboxClaimed
	outboxSent
	outboxFailed
)

type outboxEntry struct {
	record    appoutbox.EventRecord
	state     outboxState
	attempts  int
	next      time.Time
	lastError string
}

// Outbox keeps records in insertion order and serves them to the relay worker.
type Outbox struct {
	mu      sync.Mutex
	entries []*outboxEntry
	byID    map[string]*outboxEntry
	wakeup  chan struct{}
	now     func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{byID: make(map[string]*outboxEntry), wakeup: make(chan struct{}, 1), now: time.Now}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, dup := o.byID[record.ID]; dup {
		return fmt.Errorf("outbox: duplicate record %s", record.ID)
	}
	e := &outboxEntry{record: record, state: outboxNew, next: o.now()}
	o.entries = append(o.entries, e)
	o.byID[record.ID] = e
	return nil
}

// Flush wakes the relay worker without blocking.
func (o *Outbox) Flush(ctx context.Context) error {
	select {
	case o.wakeup <- struct{}{}:
	default:
	}
	return nil
}

func (o *Outbox) Notify() <-chan struct{} { return o.wakeup }

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Pending, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, e := range o.entries {
		if (e.state == outboxNew || e.state == outboxFailed) && !e.next.After(now) {
			e.state = outboxClaimed
			return &infraoutbox.Pending{EventRecord: e.record, Attempts: e.attempts}, nil
		}
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	return o.mark(id, func(e *outboxEntry) { e.state = outboxSent })
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return o.mark(id, func(e *outboxEntry) {
		e.state = outboxFailed
		e.attempts++
		e.next = next
		e.lastError = errMsg
	})
}

func (o *Outbox) mark(id string, fn func(*outboxEntry)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.byID[id]
	if !ok {
		return fmt.Errorf("outbox: unknown record %s", id)
	}
	fn(e)
	return nil
}

// Records returns every stored record in insertion order.
func (o *Outbox) Records() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, 0, len(o.entries))
	for _, e := range o.entries {
		out = append(out, e.record)
	}
	return out
}

// Pending counts records not yet sent.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.entries {
		if e.state != outboxSent {
			n++
		}
	}
	return n
}

var (
	_ appoutbox.Outbox     = (*Outbox)(nil)
	_ infraoutbox.Queue    = (*Outbox)(nil)
	_ infraoutbox.Notifier = (*Outbox)(nil)
)
