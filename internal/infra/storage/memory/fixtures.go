package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	domainlistings "stayengine/internal/domain/listings"
)

const fixtureDateLayout = "2006-01-02"

// ListingFixture is the JSON shape of a seeded listing.
type ListingFixture struct {
	ID                     string   `json:"id"`
	HostID                 string   `json:"host_id"`
	Title                  string   `json:"title"`
	NightlyRate            float64  `json:"nightly_rate"`
	Currency               string   `json:"currency"`
	GuestsLimit            int      `json:"guests_limit"`
	Unavailable            []string `json:"unavailable_dates"`
	WeeklyDiscountPercent  *float64 `json:"weekly_discount_percent,omitempty"`
	MonthlyDiscountPercent *float64 `json:"monthly_discount_percent,omitempty"`
	CleaningFee            *float64 `json:"cleaning_fee,omitempty"`
	CancellationPolicy     string   `json:"cancellation_policy"`
	InstantBook            bool     `json:"instant_book"`
}

func (f ListingFixture) Listing() (*domainlistings.Listing, error) {
	l := &domainlistings.Listing{
		ID:                     domainlistings.ListingID(f.ID),
		Host:                   domainlistings.HostID(f.HostID),
		Title:                  f.Title,
		NightlyRate:            f.NightlyRate,
		Currency:               f.Currency,
		GuestsLimit:            f.GuestsLimit,
		WeeklyDiscountPercent:  f.WeeklyDiscountPercent,
		MonthlyDiscountPercent: f.MonthlyDiscountPercent,
		CleaningFee:            f.CleaningFee,
		CancellationPolicy:     domainlistings.CancellationPolicy(f.CancellationPolicy),
		InstantBook:            f.InstantBook,
	}
	for _, raw := range f.Unavailable {
		d, err := time.Parse(fixtureDateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("listing %s: unavailable date %q: %w", f.ID, raw, err)
		}
		l.Unavailable = append(l.Unavailable, d)
	}
	return l, nil
}

// ListingSaver is any listing store fixtures can be written to.
type ListingSaver interface {
	Save(ctx context.Context, l *domainlistings.Listing) error
}

// LoadFixtures decodes a JSON array of listings and saves each one.
func LoadFixtures(ctx context.Context, dst ListingSaver, data []byte) (int, error) {
	var fixtures []ListingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return 0, fmt.Errorf("decode listing fixtures: %w", err)
	}
	for _, f := range fixtures {
		l, err := f.Listing()
		if err != nil {
			return 0, err
		}
		if err := dst.Save(ctx, l); err != nil {
			return 0, fmt.Errorf("listing %s: %w", f.ID, err)
		}
	}
	return len(fixtures), nil
}

// LoadFixturesFile reads fixtures from path.
func LoadFixturesFile(ctx context.Context, dst ListingSaver, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return LoadFixtures(ctx, dst, data)
}

func (r *ListingRepository) LoadFixtures(ctx context.Context, data []byte) (int, error) {
	return LoadFixtures(ctx, r, data)
}

func (r *ListingRepository) LoadFixturesFile(ctx context.Context, path string) (int, error) {
	return LoadFixturesFile(ctx, r, path)
}

// SeedDemo stores a small demo catalogue.
func SeedDemo(ctx context.Context, dst ListingSaver) error {
	weekly, monthly, cleaning := 10.0, 20.0, 500.0
	demo := []*domainlistings.Listing{
		{
			ID: "lst-goa-villa", Host: "host-anita", Title: "Goa Beach Villa",
			NightlyRate: 2000, Currency: "INR", GuestsLimit: 4,
			WeeklyDiscountPercent: &weekly, MonthlyDiscountPercent: &monthly, CleaningFee: &cleaning,
			CancellationPolicy: domainlistings.PolicyModerate,
		},
		{
			ID: "lst-manali-cabin", Host: "host-rohan", Title: "Manali Pine Cabin",
			NightlyRate: 3500, Currency: "INR", GuestsLimit: 2,
			CancellationPolicy: domainlistings.PolicyStrict, InstantBook: true,
		},
	}
	for _, l := range demo {
		if err := dst.Save(ctx, l); err != nil {
			return fmt.Errorf("seed listing %s: %w", l.ID, err)
		}
	}
	return nil
}

// MustSeedDemo is SeedDemo for tests and wiring; it panics on invalid data.
func (r *ListingRepository) MustSeedDemo(ctx context.Context) {
	if err := SeedDemo(ctx, r); err != nil {
		panic("memory: " + err.Error())
	}
}
