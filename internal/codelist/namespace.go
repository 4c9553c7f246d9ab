// Package codelist holds the static code tables shared by the builders,
// parsers and rules: namespaces, unit codes, countries, tax categories,
// payment means and electronic address schemes.
//
// Tables are initialised once and never mutated.
package codelist

// Cross-Industry Invoice namespaces
const (
	NamespaceRSM = "urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"
	NamespaceRAM = "urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100"
	NamespaceUDT = "urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100"
	NamespaceQDT = "urn:un:unece:uncefact:data:standard:QualifiedDataType:100"
)

// UBL 2.1 namespaces
const (
	NamespaceUBLInvoice    = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NamespaceUBLCreditNote = "urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2"
	NamespaceCAC           = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NamespaceCBC           = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
)

// Document context identifiers
const (
	// CIIGuideline is the EN 16931 guideline used by Factur-X EN16931 and CIUS-FR
	CIIGuideline = "urn:cen.eu:en16931:2017"
	// CIIBusinessProcess is the Factur-X business process for standard billing
	CIIBusinessProcess = "A1"

	PeppolBillingCustomization     = "urn:cen.eu:en16931:2017#compliant#urn:fdc:peppol.eu:2017:poacc:billing:3.0"
	PeppolSelfBillingCustomization = "urn:cen.eu:en16931:2017#compliant#urn:fdc:peppol.eu:2017:poacc:selfbilling:3.0"
	PeppolBillingProfile           = "urn:fdc:peppol.eu:2017:poacc:billing:01:1.0"
	PeppolSelfBillingProfile       = "urn:fdc:peppol.eu:2017:poacc:selfbilling:01:1.0"
)

// Document type codes (UNTDID 1001)
const (
	TypeCodeInvoice           = "380"
	TypeCodeCreditNote        = "381"
	TypeCodeSelfBilledInvoice = "389"
	TypeCodeSelfBilledCredit  = "261"
)

// SubjectCodeGeneral is the UNTDID 4451 code of a general information note
const SubjectCodeGeneral = "AAI"

// DateFormatCII is the UNTDID 2379 code for CCYYMMDD
const DateFormatCII = "102"

// CIINamespaces returns the prefix map declared on rsm:CrossIndustryInvoice
func CIINamespaces() [][2]string {
	return [][2]string{
		{"rsm", NamespaceRSM},
		{"ram", NamespaceRAM},
		{"qdt", NamespaceQDT},
		{"udt", NamespaceUDT},
	}
}

// UBLNamespaces returns the prefix map declared on the UBL root element
func UBLNamespaces(creditNote bool) [][2]string {
	root := NamespaceUBLInvoice
	if creditNote {
		root = NamespaceUBLCreditNote
	}
	return [][2]string{
		{"", root},
		{"cac", NamespaceCAC},
		{"cbc", NamespaceCBC},
	}
}
