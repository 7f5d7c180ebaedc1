package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/outbox"
	"stayengine/internal/app/principal"
)

type createThing struct {
	Name    string
	IdemKey string
}

func (c createThing) IdempotencyKey() string { return c.IdemKey }
func (createThing) ResultPrototype() any     { return new(thing) }
func (c createThing) Fingerprint() string    { return c.Name }

func (createThing) Key() string { return "things.create" }

type thing struct {
	ID   int
	Name string
}

type memIdem struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func (m *memIdem) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[key]
	return rec, ok, nil
}

func (m *memIdem) Save(_ context.Context, rec IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string]IdempotencyRecord{}
	}
	m.items[rec.Key] = rec
	return nil
}

func countingBus(t *testing.T, calls *int, fail error) commands.Bus {
	t.Helper()
	bus := commands.NewInMemoryBus()
	commands.MustRegister(bus, "things.create", commands.HandlerFunc[createThing, thing](func(_ context.Context, c createThing) (thing, error) {
		*calls++
		if fail != nil {
			return thing{}, fail
		}
		return thing{ID: *calls, Name: c.Name}, nil
	}))
	return bus
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	calls := 0
	store := &memIdem{}
	bus := ChainCommands(countingBus(t, &calls, nil), Idempotency(store, IdempotencyOptions{TTL: time.Hour}))
	ctx := context.Background()

	first, err := commands.Dispatch[createThing, thing](ctx, bus, createThing{Name: "a", IdemKey: "k1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[createThing, thing](ctx, bus, createThing{Name: "a", IdemKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	_, err = commands.Dispatch[createThing, thing](ctx, bus, createThing{Name: "b", IdemKey: "k1"})
	assert.ErrorIs(t, err, ErrIdempotencyKeyReuse)

	_, err = commands.Dispatch[createThing, thing](ctx, bus, createThing{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyExpiredRecordRuns(t *testing.T) {
	calls := 0
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &memIdem{}
	bus := ChainCommands(countingBus(t, &calls, nil), Idempotency(store, IdempotencyOptions{TTL: time.Minute, Now: func() time.Time { return clock }}))

	_, err := commands.Dispatch[createThing, thing](context.Background(), bus, createThing{Name: "a", IdemKey: "k"})
	require.NoError(t, err)
	clock = clock.Add(2 * time.Minute)
	_, err = commands.Dispatch[createThing, thing](context.Background(), bus, createThing{Name: "a", IdemKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyScopesKeysPerCaller(t *testing.T) {
	calls := 0
	store := &memIdem{}
	bus := ChainCommands(countingBus(t, &calls, nil), Idempotency(store, IdempotencyOptions{}))

	alice := principal.WithPrincipal(context.Background(), principal.Principal{UserID: "alice", Role: principal.RoleGuest})
	bob := principal.WithPrincipal(context.Background(), principal.Principal{UserID: "bob", Role: principal.RoleGuest})

	first, err := commands.Dispatch[createThing, thing](alice, bus, createThing{Name: "a", IdemKey: "shared"})
	require.NoError(t, err)
	second, err := commands.Dispatch[createThing, thing](bob, bus, createThing{Name: "b", IdemKey: "shared"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, calls)
	assert.Contains(t, store.items, "things.create:alice:shared")
	assert.Contains(t, store.items, "things.create:bob:shared")
}

func TestIdempotencyDoesNotCacheFailures(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	store := &memIdem{}
	bus := ChainCommands(countingBus(t, &calls, boom), Idempotency(store, IdempotencyOptions{}))

	for i := 0; i < 2; i++ {
		_, err := commands.Dispatch[createThing, thing](context.Background(), bus, createThing{Name: "a", IdemKey: "k"})
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.items)
}

type rejectAll struct{ err error }

func (r rejectAll) Validate(context.Context, any) error  { return r.err }
func (r rejectAll) Authorize(context.Context, any) error { return r.err }

type flushCounter struct {
	adds, flushes int
	err           error
}

func (f *flushCounter) Add(context.Context, outbox.EventRecord) error { f.adds++; return nil }
func (f *flushCounter) Flush(context.Context) error                   { f.flushes++; return f.err }

func TestValidationAndAuthorizationShortCircuit(t *testing.T) {
	calls := 0
	invalid := errors.New("invalid")
	bus := ChainCommands(countingBus(t, &calls, nil), Validation(rejectAll{err: invalid}))
	_, err := bus.Dispatch(context.Background(), createThing{Name: "a"})
	assert.ErrorIs(t, err, invalid)

	denied := errors.New("denied")
	bus = ChainCommands(countingBus(t, &calls, nil), Authorization(rejectAll{err: denied}))
	_, err = bus.Dispatch(context.Background(), createThing{Name: "a"})
	assert.ErrorIs(t, err, denied)
	assert.Zero(t, calls)
}

func TestOutboxFlushOnlyOnSuccess(t *testing.T) {
	calls := 0
	box := &flushCounter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := ChainCommands(countingBus(t, &calls, nil), Logging(logger), OutboxFlush(box, logger))
	_, err := bus.Dispatch(context.Background(), createThing{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, box.flushes)

	failing := ChainCommands(countingBus(t, &calls, errors.New("x")), Logging(nil), OutboxFlush(box, nil))
	_, err = failing.Dispatch(context.Background(), createThing{Name: "a"})
	assert.Error(t, err)
	assert.Equal(t, 1, box.flushes)
}

func TestOutboxWakeupFailureKeepsCommandResult(t *testing.T) {
	calls := 0
	box := &flushCounter{err: errors.New("relay unreachable")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := ChainCommands(countingBus(t, &calls, nil), OutboxFlush(box, logger))

	res, err := bus.Dispatch(context.Background(), createThing{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, thing{ID: 1, Name: "a"}, res)
	assert.Equal(t, 1, box.flushes)
}

func TestChainOrderOutermostFirst(t *testing.T) {
	var order []string
	mark := func(name string) CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				order = append(order, name)
				return next.Dispatch(ctx, cmd)
			})
		}
	}
	calls := 0
	bus := ChainCommands(countingBus(t, &calls, nil), mark("outer"), nil, mark("inner"))
	_, err := bus.Dispatch(context.Background(), createThing{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}
