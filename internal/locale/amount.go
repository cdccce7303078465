// Package locale converts Argentine-formatted report tokens into canonical values.
package locale

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned when a token holds no digits at all.
var ErrEmptyAmount = errors.New("amount has no digits")

// Amount parses an Argentine-formatted amount token into a decimal.
// Format examples: "1.234,56" -> 1234.56, "-150,00" -> -150, "0,00" -> 0.
// Malformed tokens yield zero.
func Amount(tok string) decimal.Decimal {
	d, _ := ParseAmount(tok)
	return d
}

// ParseAmount is Amount with the failure reported. The returned decimal is
// zero whenever err is non-nil.
func ParseAmount(tok string) (decimal.Decimal, error) {
	s := strings.TrimSpace(tok)

	neg := false
	if rest, ok := cutMinus(s); ok {
		neg = true
		s = rest
	}

	clean := strings.ReplaceAll(s, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")
	clean = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}

		return -1
	}, clean)

	if strings.Trim(clean, ".") == "" {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", tok, ErrEmptyAmount)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", tok, err)
	}

	if neg {
		d = d.Neg()
	}

	return d, nil
}

// cutMinus strips a leading ASCII hyphen or unicode minus sign.
func cutMinus(s string) (string, bool) {
	for _, sign := range []string{"-", "−"} {
		if rest, ok := strings.CutPrefix(s, sign); ok {
			return rest, true
		}
	}

	return s, false
}

// FormatAmount renders d the way the reports print it: dot thousands
// separator, comma decimals, at least two decimal places.
func FormatAmount(d decimal.Decimal) string {
	places := int32(2)
	if exp := -d.Exponent(); exp > places {
		places = exp
	}

	fixed := d.Abs().StringFixed(places)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var sb strings.Builder

	if d.IsNegative() {
		sb.WriteByte('-')
	}

	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte('.')
		}

		sb.WriteRune(r)
	}

	sb.WriteByte(',')
	sb.WriteString(frac)

	return sb.String()
}

// Count parses an integer count token, tolerating thousands dots ("1.234").
func Count(tok string) (int, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(tok), ".", "")

	n, err := strconv.Atoi(clean)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", tok, err)
	}

	return n, nil
}
