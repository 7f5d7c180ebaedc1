package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayengine/internal/domain/listings"
)

var (
	checkIn  = time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	checkOut = time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC)
)

func req(from, to Status, actor Actor) TransitionRequest {
	return TransitionRequest{
		From:     from,
		To:       to,
		Actor:    actor,
		Now:      time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC),
		CheckIn:  checkIn,
		CheckOut: checkOut,
	}
}

func TestHostConfirmsPendingBooking(t *testing.T) {
	out, err := Transition(req(StatusPending, StatusConfirmed, ActorHost))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, out.To)
	assert.Empty(t, out.Reason)
}

func TestGuestCancelsWithOtherAndNoCustomReason(t *testing.T) {
	r := req(StatusConfirmed, StatusCancelledByGuest, ActorGuest)
	r.Reason = ReasonOther
	r.CustomReason = ""
	_, err := Transition(r)
	assert.ErrorIs(t, err, ErrMissingCustomReason)

	r.CustomReason = "   "
	_, err = Transition(r)
	assert.ErrorIs(t, err, ErrMissingCustomReason)
}

func TestEveryCancellationWithOtherRequiresCustomReason(t *testing.T) {
	for e, rl := range transitions {
		if !e.to.IsCancellation() {
			continue
		}
		r := req(e.from, e.to, rl.actor)
		r.Reason = ReasonOther
		_, err := Transition(r)
		assert.ErrorIs(t, err, ErrMissingCustomReason, "%s -> %s", e.from, e.to)

		r.CustomReason = "flight cancelled"
		out, err := Transition(r)
		require.NoError(t, err)
		assert.Equal(t, "flight cancelled", out.CustomReason)
	}
}

func TestTransitionsOutsideTableAreInvalid(t *testing.T) {
	actors := []Actor{ActorHost, ActorGuest, ActorSystem}
	for _, from := range Statuses() {
		for _, to := range Statuses() {
			if _, listed := transitions[edge{from, to}]; listed {
				continue
			}
			for _, actor := range actors {
				r := req(from, to, actor)
				r.Reason = ReasonEmergency
				r.Now = checkOut.AddDate(0, 0, 5)
				_, err := Transition(r)
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s by %s", from, to, actor)
			}
		}
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelledByHost, StatusCancelledByGuest, StatusNoShow} {
		assert.True(t, from.Terminal())
		assert.Empty(t, AllowedTargets(from, ActorHost))
		_, err := Transition(req(from, StatusPending, ActorHost))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
	_, err := Transition(req(StatusCompleted, StatusPending, ActorSystem))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWrongActorOnLegalPair(t *testing.T) {
	_, err := Transition(req(StatusPending, StatusConfirmed, ActorGuest))
	assert.ErrorIs(t, err, ErrActorNotAllowed)

	r := req(StatusConfirmed, StatusCancelledByGuest, ActorHost)
	r.Reason = ReasonEmergency
	_, err = Transition(r)
	assert.ErrorIs(t, err, ErrActorNotAllowed)

	_, err = Transition(req(StatusConfirmed, StatusInProgress, ActorHost))
	assert.ErrorIs(t, err, ErrActorNotAllowed)
}

func TestCancellationReasonValidation(t *testing.T) {
	r := req(StatusPending, StatusCancelledByHost, ActorHost)
	_, err := Transition(r)
	assert.ErrorIs(t, err, ErrReasonRequired)

	r.Reason = "bored"
	_, err = Transition(r)
	assert.ErrorIs(t, err, ErrReasonRequired)

	r.Reason = ReasonOther
	r.CustomReason = strings.Repeat("ж", MaxCustomReasonLength+1)
	_, err = Transition(r)
	assert.ErrorIs(t, err, ErrCustomReasonTooLong)

	r.CustomReason = strings.Repeat("ж", MaxCustomReasonLength)
	_, err = Transition(r)
	assert.NoError(t, err)

	r.Reason = ReasonPropertyIssue
	r.CustomReason = ""
	out, err := Transition(r)
	require.NoError(t, err)
	assert.Equal(t, ReasonPropertyIssue, out.Reason)
}

func TestSystemTransitionsAreTimeGuarded(t *testing.T) {
	start := req(StatusConfirmed, StatusInProgress, ActorSystem)
	start.Now = checkIn.Add(-time.Minute)
	_, err := Transition(start)
	assert.ErrorIs(t, err, ErrTransitionNotDue)

	start.Now = checkIn.Add(14 * time.Hour)
	_, err = Transition(start)
	assert.NoError(t, err)

	done := req(StatusInProgress, StatusCompleted, ActorSystem)
	done.Now = checkOut.Add(23 * time.Hour)
	_, err = Transition(done)
	assert.ErrorIs(t, err, ErrTransitionNotDue)

	done.Now = checkOut.AddDate(0, 0, 1)
	_, err = Transition(done)
	assert.NoError(t, err)

	done.From = StatusConfirmed
	_, err = Transition(done)
	assert.NoError(t, err)

	done.Now = time.Time{}
	_, err = Transition(done)
	assert.ErrorIs(t, err, ErrTransitionNotDue)
}

func TestOutcomeExposesPolicyAndReason(t *testing.T) {
	r := req(StatusConfirmed, StatusCancelledByGuest, ActorGuest)
	r.Reason = ReasonChangeOfPlans
	r.Policy = listings.PolicyStrict
	out, err := Transition(r)
	require.NoError(t, err)
	assert.True(t, out.IsCancellation())
	assert.Equal(t, listings.PolicyStrict, out.Policy)
	assert.Equal(t, ReasonChangeOfPlans, out.Reason)
}

func TestReasonIgnoredOutsideCancellation(t *testing.T) {
	r := req(StatusPending, StatusConfirmed, ActorHost)
	r.Reason = ReasonOther
	out, err := Transition(r)
	require.NoError(t, err)
	assert.Empty(t, out.Reason)
}

func TestAllowedTargets(t *testing.T) {
	assert.Equal(t, []Status{StatusConfirmed, StatusCancelledByHost}, AllowedTargets(StatusPending, ActorHost))
	assert.Equal(t, []Status{StatusCancelledByGuest}, AllowedTargets(StatusPending, ActorGuest))
	assert.Equal(t, []Status{StatusCancelledByHost, StatusNoShow}, AllowedTargets(StatusConfirmed, ActorHost))
	assert.Equal(t, []Status{StatusInProgress, StatusCompleted}, AllowedTargets(StatusConfirmed, ActorSystem))
}

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, CategoryCancelled, StatusCancelledByHost.Category())
	assert.Equal(t, CategoryCancelled, StatusCancelledByGuest.Category())
	assert.Equal(t, "no_show", StatusNoShow.Category())

	_, err := ParseStatus(CategoryCancelled)
	assert.ErrorIs(t, err, ErrUnknownStatus)
	s, err := ParseStatus(" In_Progress ")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)
}
