// Package projection derives display values from raw on-chain reads. Every
// function here is pure.
package projection

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
)

// FreeLabel is shown for a zero price.
const FreeLabel = "FREE"

// Locale selects the grouping and decimal separators.
type Locale string

const (
	LocaleID Locale = "id"
	LocaleEN Locale = "en"
)

// Formatter renders token amounts for one locale.
type Formatter struct {
	Locale         Locale
	FractionDigits int
	Symbol         string
}

// DefaultFormatter matches the product UI: Indonesian separators, two
// fraction digits, IDRX suffix.
var DefaultFormatter = Formatter{Locale: LocaleID, FractionDigits: 2, Symbol: "IDRX"}

// CurrencyLabel formats raw minor units with the default formatter.
func CurrencyLabel(raw *big.Int, decimals uint8) string {
	return DefaultFormatter.CurrencyLabel(raw, decimals)
}

// CurrencyLabel returns "FREE" for zero, otherwise the grouped amount followed
// by the symbol. Positive amounts below the smallest displayable fraction
// render as "<0,01" so they are never mistaken for free.
func (f Formatter) CurrencyLabel(raw *big.Int, decimals uint8) string {
	if raw == nil || raw.Sign() == 0 {
		return FreeLabel
	}
	return f.withSymbol(f.Amount(raw, decimals))
}

// Amount formats raw minor units without the FREE rule and without a symbol.
func (f Formatter) Amount(raw *big.Int, decimals uint8) string {
	if raw == nil {
		raw = new(big.Int)
	}
	digits := f.FractionDigits
	if digits < 0 {
		digits = 0
	}

	sign := raw.Sign()
	abs := new(big.Int).Abs(raw)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)

	// Truncate to the displayed precision in integer space.
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	scaled := new(big.Int).Mul(abs, scale)
	scaled.Quo(scaled, denom)

	if scaled.Sign() == 0 && sign != 0 {
		smallest := new(big.Rat).SetFrac(big.NewInt(1), scale)
		text := f.separate(smallest.FloatString(digits))
		if sign < 0 {
			return ">-" + text
		}
		return "<" + text
	}

	intPart, frac := new(big.Int).QuoRem(scaled, scale, new(big.Int))
	text := humanize.BigComma(intPart)
	if digits > 0 {
		fracText := frac.String()
		fracText = strings.Repeat("0", digits-len(fracText)) + fracText
		fracText = strings.TrimRight(fracText, "0")
		if fracText != "" {
			text += "." + fracText
		}
	}
	text = f.separate(text)
	if sign < 0 {
		return "-" + text
	}
	return text
}

// separate converts en-style separators ("," grouping, "." decimal) to the
// formatter's locale.
func (f Formatter) separate(text string) string {
	if f.Locale != LocaleID {
		return text
	}
	return strings.NewReplacer(",", ".", ".", ",").Replace(text)
}

func (f Formatter) withSymbol(amount string) string {
	if f.Symbol == "" {
		return amount
	}
	return amount + " " + f.Symbol
}

// FeePercent renders basis points as a percentage, 250 -> "2.5%".
func (f Formatter) FeePercent(bps *big.Int) string {
	if bps == nil {
		bps = new(big.Int)
	}
	pct := new(big.Rat).SetFrac(bps, big.NewInt(100))
	text := strings.TrimRight(strings.TrimRight(pct.FloatString(2), "0"), ".")
	return f.separate(text) + "%"
}
