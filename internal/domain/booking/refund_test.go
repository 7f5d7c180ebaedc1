package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stayengine/internal/domain/listings"
)

func TestRefundAmount(t *testing.T) {
	in := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	daysBefore := func(n int) time.Time { return in.AddDate(0, 0, -n).Add(18 * time.Hour) }

	cases := []struct {
		name   string
		policy listings.CancellationPolicy
		by     Actor
		at     time.Time
		want   float64
	}{
		{"host always full", listings.PolicySuperStrict60, ActorHost, daysBefore(0), 1000},
		{"no policy", "", ActorGuest, daysBefore(90), 0},
		{"flexible day before", listings.PolicyFlexible, ActorGuest, daysBefore(1), 1000},
		{"flexible same day", listings.PolicyFlexible, ActorGuest, daysBefore(0), 0},
		{"moderate five days", listings.PolicyModerate, ActorGuest, daysBefore(5), 1000},
		{"moderate late", listings.PolicyModerate, ActorGuest, daysBefore(2), 500},
		{"moderate after check-in", listings.PolicyModerate, ActorGuest, in.AddDate(0, 0, 1), 0},
		{"strict two weeks", listings.PolicyStrict, ActorGuest, daysBefore(14), 1000},
		{"strict one week", listings.PolicyStrict, ActorGuest, daysBefore(7), 500},
		{"strict late", listings.PolicyStrict, ActorGuest, daysBefore(6), 0},
		{"super strict 30 early", listings.PolicySuperStrict30, ActorGuest, daysBefore(30), 500},
		{"super strict 30 late", listings.PolicySuperStrict30, ActorGuest, daysBefore(29), 0},
		{"super strict 60 early", listings.PolicySuperStrict60, ActorGuest, daysBefore(61), 500},
		{"super strict 60 late", listings.PolicySuperStrict60, ActorGuest, daysBefore(59), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, RefundAmount(tc.policy, tc.by, 1000, in, tc.at), 1e-9)
		})
	}
	assert.Zero(t, RefundAmount(listings.PolicyFlexible, ActorHost, 0, in, daysBefore(3)))
}
