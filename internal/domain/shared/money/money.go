package money

import (
	"errors"
	"math"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// displayPrecision lists currencies shown with fewer than two decimals.
// INR is displayed without paise in this market.
var displayPrecision = map[string]int{
	"INR": 0,
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"BHD": 3,
	"KWD": 3,
}

const defaultPrecision = 2

// Money is a rounded display amount: Amount counts units of 10^-Precision(Currency).
type Money struct {
	Amount   int64
	Currency string
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Precision returns the number of decimals used when displaying currency.
func Precision(currency string) int {
	if p, ok := displayPrecision[strings.ToUpper(currency)]; ok {
		return p
	}
	return defaultPrecision
}

// FromMajor rounds an unrounded major-unit value (e.g. 1234.567 rupees) half
// away from zero into the display precision of currency.
func FromMajor(value float64, currency string) Money {
	currency = strings.ToUpper(currency)
	scale := math.Pow10(Precision(currency))
	return Money{Amount: int64(math.Round(value * scale)), Currency: currency}
}

// Major converts the amount back to major units.
func (m Money) Major() float64 {
	return float64(m.Amount) / math.Pow10(Precision(m.Currency))
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
