package schedule_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/dto"
	bookingapp "stayengine/internal/app/handlers/booking"
	"stayengine/internal/app/principal"
	"stayengine/internal/app/schedule"
	domainbooking "stayengine/internal/domain/booking"
	domainlistings "stayengine/internal/domain/listings"
	"stayengine/internal/infra/storage/memory"
)

func date(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC) }

func seed(t *testing.T, repo *memory.BookingRepository, id string, status domainbooking.Status, in, out time.Time) {
	t.Helper()
	l := &domainlistings.Listing{ID: "lst-1", Host: "host-1", NightlyRate: 1000, Currency: "INR", GuestsLimit: 2}
	payload, err := domainbooking.Assemble(l, domainbooking.Request{GuestID: "guest-1", CheckIn: in, CheckOut: out, Guests: domainbooking.GuestCount{Adults: 1}})
	require.NoError(t, err)
	payload.InitialStatus = status
	b, err := domainbooking.New(domainbooking.BookingID(id), "SE-"+id, payload, date(4, 1))
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), b))
}

func TestSweepOnceDrivesStays(t *testing.T) {
	repo := memory.NewBookingRepository()
	seed(t, repo, "b1", domainbooking.StatusConfirmed, date(5, 4), date(5, 6))
	seed(t, repo, "b2", domainbooking.StatusPending, date(5, 4), date(5, 6))
	seed(t, repo, "b3", domainbooking.StatusConfirmed, date(5, 20), date(5, 22))

	clock := date(5, 4).Add(8 * time.Hour)
	now := func() time.Time { return clock }
	bus := commands.NewInMemoryBus()
	commands.MustRegister(bus, bookingapp.TransitionBookingCommand{}.Key(), &bookingapp.TransitionBookingHandler{
		Bookings: repo,
		Tracker:  domainbooking.NewActionTracker(now),
		Outbox:   memory.NewOutbox(),
		Now:      now,
	})
	s := &schedule.Sweeper{Bookings: repo, Commands: bus, Now: now}

	res, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schedule.SweepResult{Started: 1}, res)

	clock = date(5, 7).Add(time.Hour)
	res, err = s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schedule.SweepResult{Completed: 1}, res)

	for id, want := range map[domainbooking.BookingID]domainbooking.Status{
		"b1": domainbooking.StatusCompleted,
		"b2": domainbooking.StatusPending,
		"b3": domainbooking.StatusConfirmed,
	} {
		b, err := repo.ByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, b.Status, id)
	}
}

type scriptedBus struct {
	errs []error
	seen []principal.Principal
}

func (b *scriptedBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	p, _ := principal.FromContext(ctx)
	b.seen = append(b.seen, p)
	err := b.errs[0]
	b.errs = b.errs[1:]
	if err != nil {
		return nil, err
	}
	return dto.TransitionResult{}, nil
}

func TestSweepOnceCountsOutcomes(t *testing.T) {
	repo := memory.NewBookingRepository()
	seed(t, repo, "b1", domainbooking.StatusConfirmed, date(5, 1), date(5, 3))
	seed(t, repo, "b2", domainbooking.StatusConfirmed, date(5, 1), date(5, 3))
	seed(t, repo, "b3", domainbooking.StatusConfirmed, date(5, 1), date(5, 3))

	bus := &scriptedBus{errs: []error{nil, domainbooking.ErrConcurrentUpdate, errors.New("store unavailable")}}
	s := &schedule.Sweeper{Bookings: repo, Commands: bus, Now: func() time.Time { return date(5, 2) }}

	res, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schedule.SweepResult{Started: 1, Skipped: 1, Failed: 1}, res)
	require.Len(t, bus.seen, 3)
	for _, p := range bus.seen {
		assert.Equal(t, principal.Principal{UserID: schedule.SystemPrincipalID, Role: principal.RoleSystem}, p)
	}
}

func TestRunRequiresDependencies(t *testing.T) {
	err := (&schedule.Sweeper{}).Run(context.Background())
	assert.ErrorIs(t, err, schedule.ErrSweeperNotConfigured)
}
