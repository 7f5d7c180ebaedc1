package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayengine/internal/domain/listings"
)

func ptr(v float64) *float64 { return &v }

func assertTotalInvariant(t *testing.T, p PriceBreakdown) {
	t.Helper()
	want := p.Subtotal + p.CleaningFee + p.ServiceFee + p.Taxes - (p.Discounts.Weekly + p.Discounts.Monthly + p.Discounts.Coupon)
	assert.InDelta(t, want, p.TotalPrice, 1e-6)
	assert.GreaterOrEqual(t, p.TotalPrice, 0.0)
}

func TestCalculateThreeNightsNoExtras(t *testing.T) {
	p, err := Calculate(Input{BasePrice: 2000, Nights: 3, Currency: "INR"})
	require.NoError(t, err)

	assert.InDelta(t, 6000, p.Subtotal, 1e-9)
	assert.InDelta(t, 840, p.ServiceFee, 1e-9)
	assert.InDelta(t, 1080, p.Taxes, 1e-9)
	assert.InDelta(t, 7920, p.TotalPrice, 1e-9)

	d := p.Display()
	assert.Equal(t, int64(6000), d.Subtotal.Amount)
	assert.Equal(t, int64(840), d.ServiceFee.Amount)
	assert.Equal(t, int64(1080), d.Taxes.Amount)
	assert.Equal(t, int64(7920), d.TotalPrice.Amount)
	assert.Equal(t, "INR", d.TotalPrice.Currency)
}

func TestCalculateTotalInvariantHolds(t *testing.T) {
	for nights := 1; nights <= 40; nights++ {
		for _, base := range []float64{1, 499.99, 2000, 12345.5} {
			p, err := Calculate(Input{
				BasePrice:   base,
				Nights:      nights,
				Currency:    "INR",
				CleaningFee: ptr(350),
				Discounts: &Discounts{
					WeeklyRate:   ptr(0.1),
					MonthlyRate:  ptr(0.2),
					CouponAmount: ptr(150),
				},
			})
			require.NoError(t, err)
			assertTotalInvariant(t, p)
		}
	}
}

func TestWeeklyDiscountThreshold(t *testing.T) {
	weekly := &Discounts{WeeklyRate: ptr(0.1)}
	for nights := 1; nights < WeeklyDiscountNights; nights++ {
		p, err := Calculate(Input{BasePrice: 1000, Nights: nights, Currency: "INR", Discounts: weekly})
		require.NoError(t, err)
		assert.Zero(t, p.Discounts.Weekly, "nights=%d", nights)
	}
	for nights := WeeklyDiscountNights; nights <= 30; nights++ {
		p, err := Calculate(Input{BasePrice: 1000, Nights: nights, Currency: "INR", Discounts: weekly})
		require.NoError(t, err)
		assert.Greater(t, p.Discounts.Weekly, 0.0, "nights=%d", nights)
	}
}

func TestMonthlyDiscountThreshold(t *testing.T) {
	monthly := &Discounts{MonthlyRate: ptr(0.25)}

	p, err := Calculate(Input{BasePrice: 1000, Nights: 27, Currency: "INR", Discounts: monthly})
	require.NoError(t, err)
	assert.Zero(t, p.Discounts.Monthly)

	p, err = Calculate(Input{BasePrice: 1000, Nights: 28, Currency: "INR", Discounts: monthly})
	require.NoError(t, err)
	assert.InDelta(t, 7000, p.Discounts.Monthly, 1e-9)
}

func TestExternallySuppliedDiscountsWin(t *testing.T) {
	p, err := Calculate(Input{
		BasePrice: 1000,
		Nights:    3,
		Currency:  "INR",
		Discounts: &Discounts{
			WeeklyRate:    ptr(0.5),
			WeeklyAmount:  ptr(120),
			MonthlyRate:   ptr(0.5),
			MonthlyAmount: ptr(80),
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 120, p.Discounts.Weekly, 1e-9)
	assert.InDelta(t, 80, p.Discounts.Monthly, 1e-9)
	assertTotalInvariant(t, p)
}

func TestCouponIsFlatAndCapped(t *testing.T) {
	p, err := Calculate(Input{BasePrice: 1000, Nights: 1, Currency: "INR", Discounts: &Discounts{CouponAmount: ptr(200)}})
	require.NoError(t, err)
	assert.InDelta(t, 200, p.Discounts.Coupon, 1e-9)

	p, err = Calculate(Input{BasePrice: 100, Nights: 1, Currency: "INR", Discounts: &Discounts{CouponAmount: ptr(10_000)}})
	require.NoError(t, err)
	assert.InDelta(t, 132, p.Discounts.Coupon, 1e-9)
	assert.InDelta(t, 0, p.TotalPrice, 1e-9)
	assertTotalInvariant(t, p)

	p, err = Calculate(Input{BasePrice: 100, Nights: 10, Currency: "INR"})
	require.NoError(t, err)
	assert.Zero(t, p.Discounts.Coupon)
}

func TestServiceFeeExcludesCleaningFee(t *testing.T) {
	p, err := Calculate(Input{BasePrice: 1000, Nights: 2, Currency: "INR", CleaningFee: ptr(500)})
	require.NoError(t, err)
	assert.InDelta(t, 280, p.ServiceFee, 1e-9)
	assert.InDelta(t, 360, p.Taxes, 1e-9)
	assert.InDelta(t, 3140, p.TotalPrice, 1e-9)
}

func TestCalculateErrors(t *testing.T) {
	_, err := Calculate(Input{BasePrice: 1000, Nights: 0, Currency: "INR"})
	assert.ErrorIs(t, err, ErrInvalidStayDuration)

	_, err = Calculate(Input{BasePrice: 1000, Nights: -3, Currency: "INR"})
	assert.ErrorIs(t, err, ErrInvalidStayDuration)

	_, err = Calculate(Input{BasePrice: 0, Nights: 2, Currency: "INR"})
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = Calculate(Input{BasePrice: -5, Nights: 2, Currency: "INR"})
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = Calculate(Input{BasePrice: 10, Nights: 2})
	assert.ErrorIs(t, err, ErrCurrencyUnset)

	_, err = Calculate(Input{BasePrice: 10, Nights: 2, Currency: "INR", CleaningFee: ptr(-1)})
	assert.ErrorIs(t, err, ErrInvalidComponent)

	_, err = Calculate(Input{BasePrice: 10, Nights: 2, Currency: "INR", Discounts: &Discounts{WeeklyRate: ptr(1.5)}})
	assert.ErrorIs(t, err, ErrInvalidComponent)
}

func TestDisplayRoundsTotalFromUnroundedSum(t *testing.T) {
	p, err := Calculate(Input{BasePrice: 1234.5, Nights: 3, Currency: "INR"})
	require.NoError(t, err)

	d := p.Display()
	assert.Equal(t, int64(3704), d.Subtotal.Amount)
	assert.Equal(t, int64(518), d.ServiceFee.Amount)
	assert.Equal(t, int64(667), d.Taxes.Amount)
	// 3703.5 + 518.49 + 666.63 = 4888.62
	assert.Equal(t, int64(4889), d.TotalPrice.Amount)
}

func TestInputFromListing(t *testing.T) {
	l := &listings.Listing{
		NightlyRate:            1500,
		Currency:               "INR",
		CleaningFee:            ptr(400),
		WeeklyDiscountPercent:  ptr(10),
		MonthlyDiscountPercent: ptr(20),
	}
	in := InputFromListing(l, 7)
	require.NotNil(t, in.Discounts)
	assert.InDelta(t, 0.1, *in.Discounts.WeeklyRate, 1e-12)
	assert.InDelta(t, 0.2, *in.Discounts.MonthlyRate, 1e-12)

	p, err := Calculate(in)
	require.NoError(t, err)
	assert.InDelta(t, 1050, p.Discounts.Weekly, 1e-9)
	assert.Zero(t, p.Discounts.Monthly)
	assert.InDelta(t, 400, p.CleaningFee, 1e-9)

	bare := InputFromListing(&listings.Listing{NightlyRate: 900, Currency: "INR"}, 2)
	assert.Nil(t, bare.Discounts)
}

func TestDefaultMatchesFallbackRates(t *testing.T) {
	p, err := Default(2500, 4, "inr")
	require.NoError(t, err)
	assert.Equal(t, "INR", p.Currency)
	assert.InDelta(t, 10000*1.32, p.TotalPrice, 1e-6)
	assert.Zero(t, p.CleaningFee)
	assert.Zero(t, p.Discounts.Total())
}

func TestValidateSuppliedBreakdown(t *testing.T) {
	p, err := Default(1000, 2, "INR")
	require.NoError(t, err)
	assert.NoError(t, p.Validate())

	bad := p
	bad.Taxes = -1
	assert.ErrorIs(t, bad.Validate(), ErrInvalidComponent)

	bad = p
	bad.Nights = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidStayDuration)

	bad = p
	bad.TotalPrice = 1
	assert.ErrorIs(t, bad.Validate(), ErrInconsistentPrice)

	bad = p
	bad.Subtotal += 500
	bad.TotalPrice += 500
	assert.ErrorIs(t, bad.Validate(), ErrInconsistentPrice)

	bad = p
	bad.Discounts.Coupon = p.TotalPrice + 100
	bad.TotalPrice = 0
	assert.ErrorIs(t, bad.Validate(), ErrInconsistentPrice)

	nudged := p
	nudged.TotalPrice += 0.004
	assert.NoError(t, nudged.Validate())
}

func TestValidateForChecksCurrency(t *testing.T) {
	p, err := Default(1000, 2, "INR")
	require.NoError(t, err)
	assert.NoError(t, p.ValidateFor("INR"))
	assert.NoError(t, p.ValidateFor("inr"))
	assert.ErrorIs(t, p.ValidateFor("USD"), ErrCurrencyMismatch)

	p.TotalPrice = 1
	assert.ErrorIs(t, p.ValidateFor("INR"), ErrInconsistentPrice)
}

func TestCalculatedBreakdownsValidate(t *testing.T) {
	for nights := 1; nights <= 40; nights++ {
		p, err := Calculate(Input{
			BasePrice:   1234.56,
			Nights:      nights,
			Currency:    "INR",
			CleaningFee: ptr(350),
			Discounts:   &Discounts{WeeklyRate: ptr(0.1), MonthlyRate: ptr(0.2), CouponAmount: ptr(150)},
		})
		require.NoError(t, err)
		assert.NoError(t, p.ValidateFor("INR"), "nights=%d", nights)
	}
}
