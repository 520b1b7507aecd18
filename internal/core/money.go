// Package core holds the domain model of the ledger: accounts, transactions,
// budgets, recurring rules, and the money and date value types they share.
//
// Monetary amounts are integers in minor currency units (cents). Floating
// point never touches stored values; decimal strings are parsed with half-up
// rounding on the third decimal place.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in minor currency units.
type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return Validationf("amount must be positive")
	}
	return nil
}

// String formats the amount as a decimal with two fractional digits.
func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// ParseAmount converts a positive decimal string to Money.
//
// Both dot (12.34) and comma (12,34) separators are accepted. A third
// decimal digit rounds half-up. Zero, negative, and malformed inputs are
// rejected.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, Validationf("amount is empty")
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, Validationf("amount must be an unsigned decimal")
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, Validationf("invalid amount %q", s)
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
			return Money{}, Validationf("invalid amount %q", s)
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, Validationf("invalid amount %q", s)
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, Validationf("invalid amount %q", s)
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return Money{}, Validationf("amount %q out of range", s)
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
		return Money{}, Validationf("amount must be positive")
	}
	return Money{Cents: cents}, nil
}
