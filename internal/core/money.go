// Package core holds the budget domain: transactions, money, filters
// and aggregation. Everything here is storage- and transport-agnostic.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in whole cents. Keeping cents as int64 avoids the
// floating-point drift that plagues currency sums.
type Money struct {
	Cents int64
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot (12.34) and comma
// (12,34) separators are accepted. Only strictly positive amounts are
// valid, matching the 0.01 minimum for transactions.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalidAmount()
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, invalidAmount()
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, invalidAmount()
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, invalidAmount()
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, invalidAmount()
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, invalidAmount()
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, invalidAmount()
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, invalidAmount()
	}
	return cents, nil
}

func invalidAmount() *ValidationError {
	ve := &ValidationError{}
	ve.Add("amount", "amount must be a positive number")
	return ve
}

// Amount returns the value in currency units as a float64. Display
// only; use cents for arithmetic.
func (m Money) Amount() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimal places, e.g. "12.50".
func (m Money) String() string {
	neg := ""
	c := m.Cents
	if c < 0 {
		neg = "-"
		c = -c
	}
	return neg + strconv.FormatInt(c/100, 10) + "." + pad2(c%100)
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
