package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"stayengine/internal/domain/listings"
	"stayengine/internal/domain/shared/money"
)

var (
	ErrInvalidStayDuration = errors.New("pricing: nights must be at least 1")
	ErrInvalidRate         = errors.New("pricing: base price must be positive")
	ErrInvalidComponent    = errors.New("pricing: fees, rates and discounts must be non-negative")
	ErrCurrencyUnset       = errors.New("pricing: currency must be defined")
	ErrInconsistentPrice   = errors.New("pricing: breakdown does not add up")
	ErrCurrencyMismatch    = errors.New("pricing: breakdown currency differs from listing currency")
)

// sumTolerance absorbs float noise when checking supplied breakdowns, in
// major currency units.
const sumTolerance = 0.01

const (
	DefaultServiceFeeRate = 0.14
	DefaultTaxRate        = 0.18

	WeeklyDiscountNights  = 7
	MonthlyDiscountNights = 28
)

// Discounts carries optional discount inputs. Amounts supplied by an external
// pricing source take precedence over rates computed locally.
type Discounts struct {
	WeeklyRate    *float64
	MonthlyRate   *float64
	WeeklyAmount  *float64
	MonthlyAmount *float64
	CouponAmount  *float64
}

// Input describes a stay to price. Nil pointers mean "not supplied" and are
// resolved once by Normalized.
type Input struct {
	BasePrice      float64
	Nights         int
	Currency       string
	CleaningFee    *float64
	ServiceFeeRate *float64
	TaxRate        *float64
	Discounts      *Discounts
}

// NormalizedInput is Input with every default applied.
type NormalizedInput struct {
	BasePrice      float64
	Nights         int
	Currency       string
	CleaningFee    float64
	ServiceFeeRate float64
	TaxRate        float64
	WeeklyRate     float64
	MonthlyRate    float64
	WeeklyAmount   *float64
	MonthlyAmount  *float64
	CouponAmount   float64
}

func (in Input) Normalized() (NormalizedInput, error) {
	if in.Nights <= 0 {
		return NormalizedInput{}, fmt.Errorf("%w: got %d", ErrInvalidStayDuration, in.Nights)
	}
	if !(in.BasePrice > 0) || math.IsInf(in.BasePrice, 0) {
		return NormalizedInput{}, fmt.Errorf("%w: got %v", ErrInvalidRate, in.BasePrice)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		return NormalizedInput{}, ErrCurrencyUnset
	}
	n := NormalizedInput{
		BasePrice:      in.BasePrice,
		Nights:         in.Nights,
		Currency:       currency,
		CleaningFee:    valueOr(in.CleaningFee, 0),
		ServiceFeeRate: valueOr(in.ServiceFeeRate, DefaultServiceFeeRate),
		TaxRate:        valueOr(in.TaxRate, DefaultTaxRate),
	}
	if d := in.Discounts; d != nil {
		n.WeeklyRate = valueOr(d.WeeklyRate, 0)
		n.MonthlyRate = valueOr(d.MonthlyRate, 0)
		n.WeeklyAmount = d.WeeklyAmount
		n.MonthlyAmount = d.MonthlyAmount
		n.CouponAmount = valueOr(d.CouponAmount, 0)
	}
	for _, v := range []float64{n.CleaningFee, n.ServiceFeeRate, n.TaxRate, n.WeeklyRate, n.MonthlyRate, n.CouponAmount} {
		if v < 0 || math.IsNaN(v) {
			return NormalizedInput{}, ErrInvalidComponent
		}
	}
	if n.WeeklyRate > 1 || n.MonthlyRate > 1 {
		return NormalizedInput{}, fmt.Errorf("%w: discount rate above 1", ErrInvalidComponent)
	}
	for _, p := range []*float64{n.WeeklyAmount, n.MonthlyAmount} {
		if p != nil && (*p < 0 || math.IsNaN(*p)) {
			return NormalizedInput{}, ErrInvalidComponent
		}
	}
	return n, nil
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// DiscountBreakdown holds the discounts actually applied.
type DiscountBreakdown struct {
	Weekly  float64
	Monthly float64
	Coupon  float64
}

func (d DiscountBreakdown) Total() float64 {
	return d.Weekly + d.Monthly + d.Coupon
}

// PriceBreakdown is the itemized price of a stay in unrounded major units.
// TotalPrice = Subtotal + CleaningFee + ServiceFee + Taxes - Discounts.Total().
type PriceBreakdown struct {
	Nights      int
	BasePrice   float64
	Subtotal    float64
	CleaningFee float64
	ServiceFee  float64
	Taxes       float64
	Discounts   DiscountBreakdown
	TotalPrice  float64
	Currency    string
}

// Calculate prices a stay.
func Calculate(in Input) (PriceBreakdown, error) {
	n, err := in.Normalized()
	if err != nil {
		return PriceBreakdown{}, err
	}
	subtotal := n.BasePrice * float64(n.Nights)
	serviceFee := subtotal * n.ServiceFeeRate
	taxes := subtotal * n.TaxRate
	gross := subtotal + n.CleaningFee + serviceFee + taxes

	var weekly, monthly float64
	switch {
	case n.WeeklyAmount != nil:
		weekly = *n.WeeklyAmount
	case n.Nights >= WeeklyDiscountNights:
		weekly = subtotal * n.WeeklyRate
	}
	switch {
	case n.MonthlyAmount != nil:
		monthly = *n.MonthlyAmount
	case n.Nights >= MonthlyDiscountNights:
		monthly = subtotal * n.MonthlyRate
	}

	// Each discount is capped by what is left so the total never goes negative.
	remaining := gross
	weekly = math.Min(weekly, remaining)
	remaining -= weekly
	monthly = math.Min(monthly, remaining)
	remaining -= monthly
	coupon := math.Min(n.CouponAmount, remaining)

	discounts := DiscountBreakdown{Weekly: weekly, Monthly: monthly, Coupon: coupon}
	total := subtotal + n.CleaningFee + serviceFee + taxes - discounts.Total()
	if total < 0 {
		total = 0
	}
	return PriceBreakdown{
		Nights:      n.Nights,
		BasePrice:   n.BasePrice,
		Subtotal:    subtotal,
		CleaningFee: n.CleaningFee,
		ServiceFee:  serviceFee,
		Taxes:       taxes,
		Discounts:   discounts,
		TotalPrice:  total,
		Currency:    n.Currency,
	}, nil
}

// Default prices a stay with the standard service fee and tax rates, no
// cleaning fee and no discounts.
func Default(basePrice float64, nights int, currency string) (PriceBreakdown, error) {
	return Calculate(Input{BasePrice: basePrice, Nights: nights, Currency: currency})
}

// InputFromListing maps a listing's discount and fee configuration onto Input.
func InputFromListing(l *listings.Listing, nights int) Input {
	in := Input{
		BasePrice:   l.NightlyRate,
		Nights:      nights,
		Currency:    l.Currency,
		CleaningFee: l.CleaningFee,
	}
	if l.WeeklyDiscountPercent != nil || l.MonthlyDiscountPercent != nil {
		in.Discounts = &Discounts{
			WeeklyRate:  percentToRate(l.WeeklyDiscountPercent),
			MonthlyRate: percentToRate(l.MonthlyDiscountPercent),
		}
	}
	return in
}

func percentToRate(p *float64) *float64 {
	if p == nil {
		return nil
	}
	rate := *p / 100
	return &rate
}

// Validate checks a breakdown supplied from outside the calculator.
func (p PriceBreakdown) Validate() error {
	if p.Nights <= 0 {
		return ErrInvalidStayDuration
	}
	if !(p.BasePrice > 0) {
		return ErrInvalidRate
	}
	if strings.TrimSpace(p.Currency) == "" {
		return ErrCurrencyUnset
	}
	for _, v := range []float64{p.Subtotal, p.CleaningFee, p.ServiceFee, p.Taxes, p.Discounts.Weekly, p.Discounts.Monthly, p.Discounts.Coupon, p.TotalPrice} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidComponent
		}
	}
	if want := p.BasePrice * float64(p.Nights); math.Abs(p.Subtotal-want) > sumTolerance {
		return fmt.Errorf("%w: subtotal %.2f, base price times nights %.2f", ErrInconsistentPrice, p.Subtotal, want)
	}
	want := p.Subtotal + p.CleaningFee + p.ServiceFee + p.Taxes - p.Discounts.Total()
	if math.Abs(p.TotalPrice-want) > sumTolerance {
		return fmt.Errorf("%w: total %.2f, components sum to %.2f", ErrInconsistentPrice, p.TotalPrice, want)
	}
	return nil
}

// ValidateFor checks the breakdown and that it is priced in currency.
func (p PriceBreakdown) ValidateFor(currency string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(p.Currency), strings.TrimSpace(currency)) {
		return fmt.Errorf("%w: %s, listing is priced in %s", ErrCurrencyMismatch, p.Currency, currency)
	}
	return nil
}

// DisplayBreakdown is PriceBreakdown rounded to the currency's display precision.
type DisplayBreakdown struct {
	Nights          int
	BasePrice       money.Money
	Subtotal        money.Money
	CleaningFee     money.Money
	ServiceFee      money.Money
	Taxes           money.Money
	WeeklyDiscount  money.Money
	MonthlyDiscount money.Money
	CouponDiscount  money.Money
	TotalPrice      money.Money
}

// Display rounds every value for presentation. The total is rounded from the
// unrounded sum, not summed from rounded parts.
func (p PriceBreakdown) Display() DisplayBreakdown {
	round := func(v float64) money.Money { return money.FromMajor(v, p.Currency) }
	return DisplayBreakdown{
		Nights:          p.Nights,
		BasePrice:       round(p.BasePrice),
		Subtotal:        round(p.Subtotal),
		CleaningFee:     round(p.CleaningFee),
		ServiceFee:      round(p.ServiceFee),
		Taxes:           round(p.Taxes),
		WeeklyDiscount:  round(p.Discounts.Weekly),
		MonthlyDiscount: round(p.Discounts.Monthly),
		CouponDiscount:  round(p.Discounts.Coupon),
		TotalPrice:      round(p.TotalPrice),
	}
}
