package booking

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"stayengine/internal/domain/listings"
	"stayengine/internal/domain/shared/daterange"
)

const MaxCustomReasonLength = 500

type edge struct {
	from Status
	to   Status
}

type rule struct {
	actor Actor
	// due reports whether a time-based transition may fire.
	due func(req TransitionRequest) bool
}

var transitions = map[edge]rule{
	{StatusPending, StatusConfirmed}:          {actor: ActorHost},
	{StatusPending, StatusCancelledByHost}:    {actor: ActorHost},
	{StatusPending, StatusCancelledByGuest}:   {actor: ActorGuest},
	{StatusConfirmed, StatusCancelledByHost}:  {actor: ActorHost},
	{StatusConfirmed, StatusCancelledByGuest}: {actor: ActorGuest},
	{StatusConfirmed, StatusInProgress}:       {actor: ActorSystem, due: checkInReached},
	{StatusConfirmed, StatusCompleted}:        {actor: ActorSystem, due: checkOutPassed},
	{StatusInProgress, StatusCompleted}:       {actor: ActorSystem, due: checkOutPassed},
	{StatusConfirmed, StatusNoShow}:           {actor: ActorHost},
	{StatusInProgress, StatusNoShow}:          {actor: ActorHost},
}

func checkInReached(req TransitionRequest) bool {
	if req.Now.IsZero() || req.CheckIn.IsZero() {
		return false
	}
	return !daterange.Day(req.Now).Before(daterange.Day(req.CheckIn))
}

func checkOutPassed(req TransitionRequest) bool {
	if req.Now.IsZero() || req.CheckOut.IsZero() {
		return false
	}
	return daterange.Day(req.Now).After(daterange.Day(req.CheckOut))
}

// TransitionRequest is everything the machine looks at. Reason and
// CustomReason only matter when To is a cancellation; CheckIn, CheckOut and
// Now only matter for system transitions.
type TransitionRequest struct {
	From         Status
	To           Status
	Actor        Actor
	Reason       Reason
	CustomReason string
	Now          time.Time
	CheckIn      time.Time
	CheckOut     time.Time
	Policy       listings.CancellationPolicy
}

// Outcome is an accepted transition. Policy and Reason are exposed so the
// booking store can settle refunds.
type Outcome struct {
	From         Status
	To           Status
	Actor        Actor
	Reason       Reason
	CustomReason string
	Policy       listings.CancellationPolicy
	At           time.Time
}

func (o Outcome) IsCancellation() bool { return o.To.IsCancellation() }

// Transition decides whether req is legal. It has no side effects.
func Transition(req TransitionRequest) (Outcome, error) {
	if req.From.Terminal() {
		return Outcome{}, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, req.From)
	}
	r, ok := transitions[edge{req.From, req.To}]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, req.From, req.To)
	}
	if req.Actor != r.actor {
		return Outcome{}, fmt.Errorf("%w: %s -> %s requires %s, got %q", ErrActorNotAllowed, req.From, req.To, r.actor, req.Actor)
	}
	if r.due != nil && !r.due(req) {
		return Outcome{}, fmt.Errorf("%w: %s -> %s", ErrTransitionNotDue, req.From, req.To)
	}

	out := Outcome{
		From:   req.From,
		To:     req.To,
		Actor:  req.Actor,
		Policy: req.Policy,
		At:     req.Now.UTC(),
	}
	if req.To.IsCancellation() {
		custom, err := validateReason(req.Reason, req.CustomReason)
		if err != nil {
			return Outcome{}, err
		}
		out.Reason = req.Reason
		out.CustomReason = custom
	}
	return out, nil
}

func validateReason(reason Reason, custom string) (string, error) {
	if reason == "" {
		return "", ErrReasonRequired
	}
	if !reason.Valid() {
		return "", fmt.Errorf("%w: unknown reason %q", ErrReasonRequired, reason)
	}
	custom = strings.TrimSpace(custom)
	if reason != ReasonOther {
		return custom, checkCustomLength(custom)
	}
	if custom == "" {
		return "", ErrMissingCustomReason
	}
	return custom, checkCustomLength(custom)
}

func checkCustomLength(custom string) error {
	if utf8.RuneCountInString(custom) > MaxCustomReasonLength {
		return ErrCustomReasonTooLong
	}
	return nil
}

// AllowedTargets lists the statuses actor may move a booking to from from,
// ignoring time guards and reasons.
func AllowedTargets(from Status, actor Actor) []Status {
	var out []Status
	if from.Terminal() {
		return out
	}
	for _, to := range statuses {
		if r, ok := transitions[edge{from, to}]; ok && r.actor == actor {
			out = append(out, to)
		}
	}
	return out
}
