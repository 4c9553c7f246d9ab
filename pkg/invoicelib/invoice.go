// Package invoicelib provides a public API for exchanging electronic
// invoices as Factur-X (CII) and UBL BIS Billing 3.0.
//
// This package exposes the invoice value model, the export and import
// operations and the PDF/A-3 packaging of Factur-X documents.
//
// Example usage:
//
//	xml, diags, err := invoicelib.ExportFacturX(inv)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if diags.HasBlocking() {
//	    log.Fatal(diags.Strings())
//	}
//	pdf, _, err := invoicelib.EmbedIntoPDF(ctx, layout, xml, "")
package invoicelib

import (
	"github.com/rezonia/einvoice-codec/internal/builder"
	"github.com/rezonia/einvoice-codec/internal/config"
	"github.com/rezonia/einvoice-codec/internal/model"
	xmlparser "github.com/rezonia/einvoice-codec/internal/parser/xml"
	"github.com/rezonia/einvoice-codec/internal/pdfa"
)

// Re-export core types for public API
type (
	Invoice         = model.Invoice
	Party           = model.Party
	Address         = model.Address
	Contact         = model.Contact
	Period          = model.Period
	Line            = model.Line
	Tax             = model.Tax
	AllowanceCharge = model.AllowanceCharge
	PaymentMeans    = model.PaymentMeans
	Note            = model.Note
	Totals          = model.Totals
	TaxBreakdown    = model.TaxBreakdown
	DocumentType    = model.DocumentType
	TaxKind         = model.TaxKind
	Format          = model.Format
	Severity        = model.Severity
	Diagnostic      = model.Diagnostic
	Diagnostics     = model.Diagnostics
)

// Re-export document types
const (
	DocumentTypeInvoice = model.DocumentTypeInvoice
	DocumentTypeRefund  = model.DocumentTypeRefund
)

// Re-export tax kinds
const (
	TaxKindPercent = model.TaxKindPercent
	TaxKindFixed   = model.TaxKindFixed
)

// Re-export formats
const (
	FormatFacturX = model.FormatFacturX
	FormatUBL     = model.FormatUBL
	FormatUnknown = model.FormatUnknown
)

// Re-export severities
const (
	SeverityBlocking = model.SeverityBlocking
	SeverityWarning  = model.SeverityWarning
)

// Re-export error types
type (
	ParseError        = model.ParseError
	ValidationFailure = model.ValidationFailure
	ExtractionError   = model.ExtractionError
	PackageError      = pdfa.PackageError
)

// Re-export import callbacks
type (
	Resolvers        = xmlparser.Resolvers
	PartnerResolver  = xmlparser.PartnerResolver
	CurrencyResolver = xmlparser.CurrencyResolver
	TaxResolver      = xmlparser.TaxResolver
	Direction        = xmlparser.Direction
)

// Re-export import directions
const (
	DirectionPurchase = xmlparser.DirectionPurchase
	DirectionSale     = xmlparser.DirectionSale
)

// Config is the codec configuration record
type Config = config.Codec

// Re-export process types
const (
	ProcessBilling     = builder.ProcessBilling
	ProcessSelfBilling = builder.ProcessSelfBilling
)

// Re-export Factur-X conformance levels
const (
	LevelMinimum   = pdfa.LevelMinimum
	LevelBasicWL   = pdfa.LevelBasicWL
	LevelBasic     = pdfa.LevelBasic
	LevelEN16931   = pdfa.LevelEN16931
	LevelExtended  = pdfa.LevelExtended
	LevelXRechnung = pdfa.LevelXRechnung
)

// FacturXFilename is the attachment name of Factur-X XML in a PDF
const FacturXFilename = pdfa.FacturXFilename

// DefaultConfig returns the default codec configuration
func DefaultConfig() Config {
	return config.DefaultCodec()
}

// UBLFilename returns the file name of a UBL BIS 3 export
func UBLFilename(number string) string {
	return builder.UBLFilename(number)
}

// CIIFrenchFilename returns the file name of a standalone CII export
func CIIFrenchFilename(number string) string {
	return builder.CIIFrenchFilename(number)
}
