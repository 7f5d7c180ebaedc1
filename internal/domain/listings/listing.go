package listings

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"stayengine/internal/domain/shared/daterange"
)

var (
	ErrNotFound        = errors.New("listings: not found")
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrGuestsLimit     = errors.New("listings: guests limit must be at least 1")
	ErrNightlyRate     = errors.New("listings: nightly rate must be positive")
	ErrCurrency        = errors.New("listings: currency must be a 3-letter code")
	ErrDiscountPercent = errors.New("listings: discount percent must be between 0 and 100")
	ErrCleaningFee     = errors.New("listings: cleaning fee must be non-negative")
	ErrPolicy          = errors.New("listings: unknown cancellation policy")
)

type ListingID string
type HostID string

type CancellationPolicy string

const (
	PolicyFlexible      CancellationPolicy = "flexible"
	PolicyModerate      CancellationPolicy = "moderate"
	PolicyStrict        CancellationPolicy = "strict"
	PolicySuperStrict30 CancellationPolicy = "super_strict_30"
	PolicySuperStrict60 CancellationPolicy = "super_strict_60"
)

// Valid accepts the known tags and the empty value (no policy configured).
func (p CancellationPolicy) Valid() bool {
	switch p {
	case "", PolicyFlexible, PolicyModerate, PolicyStrict, PolicySuperStrict30, PolicySuperStrict60:
		return true
	}
	return false
}

// Listing is the read-only view of a bookable property consumed by pricing,
// availability and request assembly. Amounts are in major currency units.
type Listing struct {
	ID                     ListingID
	Host                   HostID
	Title                  string
	NightlyRate            float64
	Currency               string
	GuestsLimit            int
	Unavailable            []time.Time
	WeeklyDiscountPercent  *float64
	MonthlyDiscountPercent *float64
	CleaningFee            *float64
	CancellationPolicy     CancellationPolicy
	InstantBook            bool
	UpdatedAt              time.Time
}

// Source supplies listings; the core never writes them.
type Source interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
}

func (l *Listing) Validate() error {
	if strings.TrimSpace(string(l.ID)) == "" {
		return errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(l.Host)) == "" {
		return errors.New("listings: host is required")
	}
	if strings.TrimSpace(l.Title) == "" {
		return ErrTitleRequired
	}
	if l.GuestsLimit < 1 {
		return ErrGuestsLimit
	}
	if l.NightlyRate <= 0 {
		return ErrNightlyRate
	}
	if len(strings.TrimSpace(l.Currency)) != 3 {
		return ErrCurrency
	}
	for _, p := range []*float64{l.WeeklyDiscountPercent, l.MonthlyDiscountPercent} {
		if p != nil && (*p < 0 || *p > 100) {
			return ErrDiscountPercent
		}
	}
	if l.CleaningFee != nil && *l.CleaningFee < 0 {
		return ErrCleaningFee
	}
	if !l.CancellationPolicy.Valid() {
		return ErrPolicy
	}
	return nil
}

// Normalize trims text fields, upper-cases the currency and sorts the
// unavailable calendar into ascending, de-duplicated calendar days.
func (l *Listing) Normalize() {
	l.Title = strings.TrimSpace(l.Title)
	l.Currency = strings.ToUpper(strings.TrimSpace(l.Currency))
	l.CancellationPolicy = CancellationPolicy(strings.ToLower(strings.TrimSpace(string(l.CancellationPolicy))))
	if len(l.Unavailable) == 0 {
		return
	}
	days := make([]time.Time, 0, len(l.Unavailable))
	for _, d := range l.Unavailable {
		days = append(days, daterange.Day(d))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	out := days[:1]
	for _, d := range days[1:] {
		if !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	l.Unavailable = out
}

// Capacity is the number of people (adults, children, infants) the listing hosts.
func (l *Listing) Capacity() int {
	return l.GuestsLimit
}
