// Package money provides currency-safe amounts stored as integer minor units.
// Arithmetic goes through go-money; parsing and rounding go through shopspring/decimal.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	BRL = "BRL"
	JPY = "JPY"
)

// ErrInvalidAmount is returned when a string holds no usable number.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrAmountOutOfRange is returned when an amount does not fit in int64 minor units.
var ErrAmountOutOfRange = errors.New("amount out of range")

var (
	minMinor = decimal.NewFromInt(math.MinInt64)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// Money represents a monetary value with currency.
type Money struct {
	m *money.Money
}

// New creates Money from minor units (cents).
func New(minor int64, currencyCode string) *Money {
	return &Money{m: money.New(minor, normalizeCode(currencyCode))}
}

// NewFromDecimal rounds a decimal amount half-away-from-zero to the currency's minor unit.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) (*Money, error) {
	minor, err := ToMinor(amount, currencyCode)
	if err != nil {
		return nil, err
	}
	return New(minor, currencyCode), nil
}

// Zero returns a zero value for the currency.
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the amount in minor units.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsPositive reports whether the amount is greater than zero.
func (m *Money) IsPositive() bool {
	return m != nil && m.m != nil && m.m.IsPositive()
}

// Add returns m + other. Both values must share a currency.
func (m *Money) Add(other *Money) (*Money, error) {
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("add %s to %s: %w", other.Currency(), m.Currency(), err)
	}
	return &Money{m: sum}, nil
}

// Display renders the amount with its symbol and the currency's fraction digits, e.g. "$1,234.50".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Display()
}

func (m *Money) String() string {
	return m.Display()
}

// ToDecimal converts minor units back to a decimal major-unit value.
func (m *Money) ToDecimal() decimal.Decimal {
	return FromMinor(m.Amount(), m.Currency())
}

// ToFloat64 is for JSON responses only; never do arithmetic on the result.
func (m *Money) ToFloat64() float64 {
	return m.ToDecimal().InexactFloat64()
}

// MarshalJSON encodes the major-unit value as a JSON number.
func (m *Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToFloat64())
}

// Format is shorthand for New(minor, currencyCode).Display().
func Format(minor int64, currencyCode string) string {
	return New(minor, currencyCode).Display()
}

// Symbol returns the currency grapheme, e.g. "$" or "€".
func Symbol(currencyCode string) string {
	c := money.GetCurrency(normalizeCode(currencyCode))
	if c == nil {
		return ""
	}
	return c.Grapheme
}

// ToMinor converts a major-unit decimal to minor units of the currency,
// rounding half away from zero.
func ToMinor(amount decimal.Decimal, currencyCode string) (int64, error) {
	shifted := amount.Shift(int32(fraction(currencyCode))).Round(0)
	if shifted.LessThan(minMinor) || shifted.GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount)
	}
	return shifted.IntPart(), nil
}

// Round rounds amount to the currency's fraction digits without leaving decimal space.
func Round(amount decimal.Decimal, currencyCode string) decimal.Decimal {
	return amount.Round(int32(fraction(currencyCode)))
}

// FromMinor converts minor units to a major-unit decimal.
func FromMinor(minor int64, currencyCode string) decimal.Decimal {
	return decimal.New(minor, -int32(fraction(currencyCode)))
}

// ParseLoose extracts a number from free text such as "$1,234.50", "1.234,50" or "12,50 EUR".
// Everything except digits, separators and a leading '-' is dropped. The right-most
// separator is the decimal point when it is a comma followed by exactly two digits or
// when both separators are present.
func ParseLoose(raw string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastComma > lastDot && (lastDot >= 0 || len(cleaned)-lastComma-1 == 2):
		cleaned = strings.ReplaceAll(cleaned[:lastComma], ".", "") + "." + cleaned[lastComma+1:]
	default:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d, nil
}

func fraction(currencyCode string) int {
	c := money.GetCurrency(normalizeCode(currencyCode))
	if c == nil {
		return 2
	}
	return c.Fraction
}

func normalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || money.GetCurrency(code) == nil {
		return USD
	}
	return code
}
