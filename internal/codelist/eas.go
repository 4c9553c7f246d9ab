package codelist

import "strings"

// Peppol electronic address / ICD schemes
const (
	SchemeSIRENE = "0002" // France SIREN
	SchemeSIRET  = "0009" // France SIRET
	SchemeGLN    = "0088"
	SchemeKVK    = "0106" // Netherlands chamber of commerce
	SchemeCVR    = "0184" // Denmark
	SchemeOIN    = "0190" // Netherlands government organisations
	SchemeNOOrg  = "0192" // Norway organisation number
	SchemeLEI    = "0199"
	SchemeBE     = "0208" // Belgian enterprise number
	SchemeITCF   = "0210"
	SchemeITIVA  = "0211"
	SchemeFI     = "0216"
	SchemeSE     = "0007"
)

var easSchemes = map[string]string{
	SchemeSE:     "Sweden organisation number",
	SchemeSIRENE: "SIRENE",
	SchemeSIRET:  "SIRET",
	SchemeGLN:    "Global Location Number",
	SchemeKVK:    "Kamer van Koophandel",
	SchemeCVR:    "Danish CVR",
	SchemeOIN:    "Dutch OIN",
	SchemeNOOrg:  "Norwegian organisation number",
	SchemeLEI:    "Legal Entity Identifier",
	SchemeBE:     "Belgian enterprise number",
	SchemeITCF:   "Italian tax code",
	SchemeITIVA:  "Italian VAT number",
	SchemeFI:     "Finnish OVT code",
	"0060":       "DUNS",
	"0151":       "Australian ABN",
	"0204":       "German Leitweg-ID",
	"9901":       "Danish Ministry of the Interior",
	"9906":       "Italian VAT",
	"9910":       "Hungary VAT",
	"9914":       "Austria VAT",
	"9915":       "Austria government",
	"9918":       "IBAN",
	"9920":       "Spain VAT",
	"9922":       "Andorra VAT",
	"9925":       "Belgium VAT",
	"9930":       "Germany VAT",
	"9931":       "Estonia VAT",
	"9933":       "Greece VAT",
	"9937":       "Luxembourg VAT",
	"9938":       "Luxembourg VAT",
	"9944":       "Netherlands VAT",
	"9945":       "Poland VAT",
	"9946":       "Portugal VAT",
	"9948":       "Slovenia VAT",
	"9949":       "Slovakia VAT",
	"9957":       "France VAT",
	"9959":       "US EIN",
}

// IsEAS reports whether scheme is a known Peppol EAS code
func IsEAS(scheme string) bool {
	_, ok := easSchemes[scheme]
	return ok
}

// EASName returns the description of an EAS scheme
func EASName(scheme string) string {
	return easSchemes[scheme]
}

// DutchLegalScheme derives the NL legal entity scheme from the identifier
// length: 8 digits is KVK, 9 or 20 digits is OIN.
func DutchLegalScheme(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if !isDigits(id) {
		return "", false
	}
	switch len(id) {
	case 8:
		return SchemeKVK, true
	case 9, 20:
		return SchemeOIN, true
	default:
		return "", false
	}
}

// FrenchLegalScheme maps a SIRET (14 digits) or SIREN (9 digits) to its scheme
func FrenchLegalScheme(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if !isDigits(id) {
		return "", false
	}
	switch len(id) {
	case 14:
		return SchemeSIRET, true
	case 9:
		return SchemeSIRENE, true
	default:
		return "", false
	}
}

// SIREN returns the 9-digit SIREN for a SIRET, or the input unchanged
func SIREN(id string) string {
	id = strings.TrimSpace(id)
	if len(id) == 14 && isDigits(id) {
		return id[:9]
	}
	return id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
