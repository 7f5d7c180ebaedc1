package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/dto"
	bookingapp "stayengine/internal/app/handlers/booking"
	"stayengine/internal/app/principal"
	domainbooking "stayengine/internal/domain/booking"
	"stayengine/internal/domain/shared/daterange"
)

const SystemPrincipalID = "lifecycle-scheduler"

var ErrSweeperNotConfigured = errors.New("schedule: sweeper missing dependencies")

// SweepResult counts what one pass did.
type SweepResult struct {
	Started   int
	Completed int
	Skipped   int
	Failed    int
}

// Sweeper applies the time-based transitions: confirmed stays start once the
// check-in day is reached and finish once the check-out day has passed.
type Sweeper struct {
	Bookings domainbooking.Store
	Commands commands.Bus
	Interval time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) error {
	if s.Bookings == nil || s.Commands == nil {
		return ErrSweeperNotConfigured
	}
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			res, err := s.SweepOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if s.Logger != nil {
					s.Logger.Error("lifecycle sweep failed", "error", err)
				}
				continue
			}
			if s.Logger != nil && (res.Started > 0 || res.Completed > 0 || res.Failed > 0) {
				s.Logger.Info("lifecycle sweep", "started", res.Started, "completed", res.Completed, "skipped", res.Skipped, "failed", res.Failed)
			}
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	due, err := s.Bookings.List(ctx, domainbooking.ListParams{
		Statuses: []domainbooking.Status{domainbooking.StatusConfirmed, domainbooking.StatusInProgress},
	})
	if err != nil {
		return res, err
	}
	now := s.now()
	sysCtx := principal.WithPrincipal(ctx, principal.Principal{UserID: SystemPrincipalID, Role: principal.RoleSystem})

	for _, b := range due {
		target, ok := nextSystemStatus(b, now)
		if !ok {
			continue
		}
		_, err := commands.Dispatch[bookingapp.TransitionBookingCommand, dto.TransitionResult](sysCtx, s.Commands, bookingapp.TransitionBookingCommand{
			BookingID:       string(b.ID),
			To:              string(target),
			ExpectedVersion: b.Version,
		})
		switch {
		case err == nil && target == domainbooking.StatusInProgress:
			res.Started++
		case err == nil:
			res.Completed++
		case errors.Is(err, domainbooking.ErrConcurrentUpdate), errors.Is(err, domainbooking.ErrActionInFlight),
			errors.Is(err, domainbooking.ErrInvalidTransition):
			res.Skipped++
		default:
			res.Failed++
			if s.Logger != nil {
				s.Logger.Warn("lifecycle transition failed", "booking_id", b.ID, "to", target, "error", err)
			}
		}
	}
	return res, nil
}

// nextSystemStatus picks the transition the scheduler should attempt.
func nextSystemStatus(b *domainbooking.Booking, now time.Time) (domainbooking.Status, bool) {
	today := daterange.Day(now)
	if today.After(daterange.Day(b.CheckOut)) {
		return domainbooking.StatusCompleted, true
	}
	if b.Status == domainbooking.StatusConfirmed && !today.Before(daterange.Day(b.CheckIn)) {
		return domainbooking.StatusInProgress, true
	}
	return "", false
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return time.Minute
	}
	return s.Interval
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
