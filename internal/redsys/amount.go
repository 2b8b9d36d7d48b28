package redsys

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxMinorUnits is the gateway's 12-digit amount capacity.
const MaxMinorUnits int64 = 999_999_999_999

var (
	hundred       = decimal.NewFromInt(100)
	maxMinorUnits = decimal.NewFromInt(MaxMinorUnits)
	amountPattern = regexp.MustCompile(`^([0-9]+)(?:[.,]([0-9]+))?$`)
)

// MinorUnits converts a major-unit amount to minor units, rounding half-up.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: %s is not positive", ErrInvalidAmount, amount)
	}
	units := amount.Mul(hundred).Round(0)
	if !units.IsPositive() {
		return 0, fmt.Errorf("%w: %s rounds to zero", ErrInvalidAmount, amount)
	}
	if units.GreaterThan(maxMinorUnits) {
		return 0, fmt.Errorf("%w: %s exceeds gateway capacity", ErrInvalidAmount, amount)
	}
	return units.IntPart(), nil
}

// ToMinorUnits returns the minor-unit amount as a plain digit string, e.g.
// 19.9 -> "1990".
func ToMinorUnits(amount decimal.Decimal) (string, error) {
	units, err := MinorUnits(amount)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(units, 10), nil
}

// ToMinorUnitsFloat is ToMinorUnits for float input; NaN and infinities fail.
func ToMinorUnitsFloat(amount float64) (string, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "", fmt.Errorf("%w: %v is not finite", ErrInvalidAmount, amount)
	}
	return ToMinorUnits(decimal.NewFromFloat(amount))
}

// FormatAmount renders minor units as the gateway's 12-digit zero-padded field.
func FormatAmount(minorUnits int64) (string, error) {
	if minorUnits <= 0 || minorUnits > MaxMinorUnits {
		return "", fmt.Errorf("%w: %d out of range", ErrInvalidAmount, minorUnits)
	}
	return fmt.Sprintf("%012d", minorUnits), nil
}

// ParseAmount parses untrusted major-unit text. Either ',' or '.' is accepted
// as the decimal separator; signs, grouping and mixed separators are rejected.
// A single separator followed by exactly three digits reads as a thousands
// group as easily as a fraction, so "1,234" is rejected while "0,005" is not.
func ParseAmount(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, fmt.Errorf("%w: malformed %q", ErrInvalidAmount, text)
	}
	if len(m[2]) == 3 && strings.TrimLeft(m[1], "0") != "" {
		return decimal.Zero, fmt.Errorf("%w: ambiguous %q", ErrInvalidAmount, text)
	}
	amount, err := decimal.NewFromString(strings.Replace(text, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q is not positive", ErrInvalidAmount, text)
	}
	return amount, nil
}
