package models

import (
	"errors"
	"fmt"
)

// Validation errors returned by NewMoney.
var (
	ErrNegativeAmount  = errors.New("money: amount cannot be negative")
	ErrInvalidCurrency = errors.New("money: unsupported currency")
)

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
}

// Money is an immutable monetary amount in one of a fixed set of currencies.
type Money struct {
	amount   float64
	currency string
}

// NewMoney validates and constructs a Money value. The amount must be
// non-negative and the currency one of EUR, USD or GBP.
func NewMoney(amount float64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, fmt.Errorf("%w: %.2f", ErrNegativeAmount, amount)
	}
	if _, ok := currencySymbols[currency]; !ok {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return Money{amount: amount, currency: currency}, nil
}

// Amount returns the monetary amount.
func (m Money) Amount() float64 { return m.amount }

// Currency returns the ISO currency code.
func (m Money) Currency() string { return m.currency }

// String renders the amount with its currency symbol. An unknown code (only
// possible when the validation invariant is bypassed) renders with an empty
// symbol rather than panicking.
func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.amount, currencySymbols[m.currency])
}
