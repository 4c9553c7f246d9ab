package codelist

import (
	"strings"

	"github.com/biter777/countries"
)

// EU member states, keyed by ISO 3166-1 alpha-2
var euCountries = map[string]bool{
	"AT": true, "BE": true, "BG": true, "HR": true, "CY": true, "CZ": true,
	"DK": true, "EE": true, "FI": true, "FR": true, "DE": true, "GR": true,
	"HU": true, "IE": true, "IT": true, "LV": true, "LT": true, "LU": true,
	"MT": true, "NL": true, "PL": true, "PT": true, "RO": true, "SK": true,
	"SI": true, "ES": true, "SE": true,
}

// EEA members outside the EU
var eeaOnly = map[string]bool{"IS": true, "LI": true, "NO": true}

var iso3166 = func() map[string]countries.CountryCode {
	all := countries.All()
	m := make(map[string]countries.CountryCode, len(all))
	for _, c := range all {
		if a2 := c.Alpha2(); a2 != "" {
			m[a2] = c
		}
	}
	return m
}()

// IsEU reports whether the country is an EU member state
func IsEU(code string) bool {
	return euCountries[strings.ToUpper(code)]
}

// IsEEA reports whether the country belongs to the European Economic Area
func IsEEA(code string) bool {
	code = strings.ToUpper(code)
	return euCountries[code] || eeaOnly[code]
}

// IsCountry reports whether code is a valid ISO 3166-1 alpha-2 code
func IsCountry(code string) bool {
	_, ok := iso3166[strings.ToUpper(code)]
	return ok
}

// CountryName returns the English short name of the country, or the code
func CountryName(code string) string {
	if c, ok := iso3166[strings.ToUpper(code)]; ok {
		return c.String()
	}
	return code
}

// VATPrefix returns the prefix expected on a VAT identifier for the country.
// Greece uses EL instead of its ISO code.
func VATPrefix(code string) string {
	code = strings.ToUpper(code)
	if code == "GR" {
		return "EL"
	}
	return code
}

// HasVATPrefix reports whether vat starts with an alphabetic two-letter prefix
func HasVATPrefix(vat string) bool {
	if len(vat) < 2 {
		return false
	}
	for _, r := range vat[:2] {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// Canary Islands and Ceuta/Melilla postal code prefixes (Spain)
var (
	canaryZipPrefixes       = []string{"35", "38"}
	ceutaMelillaZipPrefixes = []string{"51", "52"}
)

// IsCanaryIslands reports whether a Spanish zip belongs to the Canary Islands
func IsCanaryIslands(country, zip string) bool {
	return strings.EqualFold(country, "ES") && hasAnyPrefix(zip, canaryZipPrefixes)
}

// IsCeutaMelilla reports whether a Spanish zip belongs to Ceuta or Melilla
func IsCeutaMelilla(country, zip string) bool {
	return strings.EqualFold(country, "ES") && hasAnyPrefix(zip, ceutaMelillaZipPrefixes)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	s = strings.TrimSpace(s)
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// VATScheme returns the tax scheme identifier to declare for a party VAT
// number. Non-EU parties whose number has no country prefix are declared
// under NOT_EU_VAT so the prefix rule does not apply.
func VATScheme(country, vat string) string {
	if !IsEU(country) && !HasVATPrefix(vat) {
		return TaxSchemeNotEUVAT
	}
	return TaxSchemeVAT
}

// NormalizeVAT removes whitespace from a VAT identifier and upper-cases it
func NormalizeVAT(vat string) string {
	return strings.ToUpper(strings.Join(strings.Fields(vat), ""))
}

// ValidVATPrefix reports whether vat starts with a country code or EL
func ValidVATPrefix(vat string) bool {
	if !HasVATPrefix(vat) {
		return false
	}
	prefix := strings.ToUpper(vat[:2])
	return prefix == "EL" || IsCountry(prefix)
}
