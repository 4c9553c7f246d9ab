package codelist

// VAT category codes (UNCL 5305 subset used by EN 16931)
const (
	CategoryStandard       = "S"
	CategoryZero           = "Z"
	CategoryExempt         = "E"
	CategoryReverseCharge  = "AE"
	CategoryIntraCommunity = "K"
	CategoryExport         = "G"
	CategoryCanaryIslands  = "L"
	CategoryCeutaMelilla   = "M"
	CategoryOutOfScope     = "O"
)

// CategoryOtherCharge buckets fixed-amount taxes (eco-participation and
// similar) that never carry a VAT category on the wire.
const CategoryOtherCharge = "other-charge"

// Exemption reason codes (CEF VATEX)
const (
	VATEXExport         = "VATEX-EU-G"
	VATEXIntraCommunity = "VATEX-EU-IC"
	VATEXReverseCharge  = "VATEX-EU-AE"
	VATEXOutOfScope     = "VATEX-EU-O"
)

// Default exemption reason texts
const (
	ReasonExport          = "Export outside the EU"
	ReasonIntraCommunity  = "Intra-Community supply"
	ReasonReverseCharge   = "Reverse charge"
	ReasonOutOfScope      = "Not subject to VAT"
	ReasonDirectiveArt226 = "Articles 226 items 11 to 15 Directive 2006/112/EN"
	ReasonDebours         = "DEBOURS"
)

// TaxSchemeVAT is the tax scheme identifier used on party tax registrations
const TaxSchemeVAT = "VAT"

// TaxSchemeNotEUVAT replaces VAT on non-EU suppliers whose identifier carries
// no country prefix, so BR-CO-09 does not apply.
const TaxSchemeNotEUVAT = "NOT_EU_VAT"

var validCategories = map[string]bool{
	CategoryStandard:       true,
	CategoryZero:           true,
	CategoryExempt:         true,
	CategoryReverseCharge:  true,
	CategoryIntraCommunity: true,
	CategoryExport:         true,
	CategoryCanaryIslands:  true,
	CategoryCeutaMelilla:   true,
	CategoryOutOfScope:     true,
}

// categories requiring an exemption reason code or text
var exemptionCategories = map[string]bool{
	CategoryExempt:         true,
	CategoryReverseCharge:  true,
	CategoryIntraCommunity: true,
	CategoryExport:         true,
	CategoryOutOfScope:     true,
}

// IsCategory reports whether code is an accepted VAT category
func IsCategory(code string) bool {
	return validCategories[code]
}

// RequiresExemptionReason reports whether a breakdown in this category must
// carry an exemption reason
func RequiresExemptionReason(category string) bool {
	return exemptionCategories[category]
}

// DefaultExemption returns the default reason code and text for a category
func DefaultExemption(category string) (code, text string) {
	switch category {
	case CategoryIntraCommunity:
		return VATEXIntraCommunity, ReasonIntraCommunity
	case CategoryExport:
		return VATEXExport, ReasonExport
	case CategoryReverseCharge:
		return VATEXReverseCharge, ReasonReverseCharge
	case CategoryOutOfScope:
		return VATEXOutOfScope, ReasonOutOfScope
	case CategoryExempt:
		return "", ReasonDirectiveArt226
	default:
		return "", ""
	}
}
