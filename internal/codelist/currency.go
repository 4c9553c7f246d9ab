package codelist

import (
	"strings"

	"golang.org/x/text/currency"
)

// CurrencyDecimals returns the ISO 4217 minor unit of the currency, or
// fallback when the code is unknown.
func CurrencyDecimals(code string, fallback int32) int32 {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return fallback
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// IsCurrency reports whether code is a recognised ISO 4217 code
func IsCurrency(code string) bool {
	_, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	return err == nil
}
