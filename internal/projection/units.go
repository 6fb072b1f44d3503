package projection

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrEmptyAmount    = errors.New("basebond: amount is empty")
	ErrInvalidAmount  = errors.New("basebond: amount is not a decimal number")
	ErrTooManyDigits  = errors.New("basebond: amount has more fraction digits than the token")
	ErrNegativeAmount = errors.New("basebond: amount must not be negative")
)

// ParseUnits converts a decimal token amount ("1.5", "1000") to minor units
// without any floating point step. Both "." and "," are accepted as the
// decimal mark; grouping separators are not.
func ParseUnits(text string, decimals uint8) (*big.Int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyAmount
	}
	if strings.HasPrefix(text, "-") {
		return nil, ErrNegativeAmount
	}
	text = strings.TrimPrefix(text, "+")
	text = strings.Replace(text, ",", ".", 1)

	whole, frac, hasFrac := strings.Cut(text, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	frac = strings.TrimRight(frac, "0")
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: %q", ErrTooManyDigits, text)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	out, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	return out, nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
