package booking

import (
	"time"

	"stayengine/internal/domain/listings"
	"stayengine/internal/domain/shared/daterange"
)

// RefundAmount returns how much of total goes back to the guest when a stay
// is cancelled at the given time. Host cancellations refund in full; a
// booking without a policy refunds nothing.
func RefundAmount(policy listings.CancellationPolicy, cancelledBy Actor, total float64, checkIn, at time.Time) float64 {
	if total <= 0 {
		return 0
	}
	if cancelledBy == ActorHost {
		return total
	}
	return total * refundShare(policy, daterange.DaysBetween(at, checkIn))
}

// refundShare maps whole calendar days left before check-in to the refunded share.
func refundShare(policy listings.CancellationPolicy, daysLeft int) float64 {
	switch policy {
	case listings.PolicyFlexible:
		if daysLeft >= 1 {
			return 1
		}
	case listings.PolicyModerate:
		if daysLeft >= 5 {
			return 1
		}
		if daysLeft >= 0 {
			return 0.5
		}
	case listings.PolicyStrict:
		switch {
		case daysLeft >= 14:
			return 1
		case daysLeft >= 7:
			return 0.5
		}
	case listings.PolicySuperStrict30:
		if daysLeft >= 30 {
			return 0.5
		}
	case listings.PolicySuperStrict60:
		if daysLeft >= 60 {
			return 0.5
		}
	}
	return 0
}

// PolicyRefund is a RefundFunc backed by RefundAmount.
func PolicyRefund(out Outcome, b *Booking) float64 {
	return RefundAmount(out.Policy, out.Actor, b.Price.TotalPrice, b.CheckIn, out.At)
}
