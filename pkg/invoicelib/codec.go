package invoicelib

import "context"

// Exporter serialises invoices
type Exporter interface {
	// ExportFacturX renders Factur-X CII XML; blocking diagnostics leave it nil
	ExportFacturX(inv *Invoice) ([]byte, Diagnostics, error)

	// ExportUBL renders UBL BIS 3 XML; blocking diagnostics leave it nil
	ExportUBL(inv *Invoice) ([]byte, Diagnostics, error)

	// ExportOrFail returns the first blocking diagnostic as *ValidationFailure
	ExportOrFail(inv *Invoice, format Format) ([]byte, error)

	// Validate runs the rules of format without generating XML
	Validate(inv *Invoice, format Format) (Diagnostics, error)
}

// Importer parses e-invoice documents into draft invoices
type Importer interface {
	// ImportDocument parses XML, or a PDF carrying Factur-X XML. Resolver
	// misses are returned as log entries.
	ImportDocument(ctx context.Context, content []byte, res Resolvers, direction Direction) (*Invoice, []string, error)

	// DetectFormat identifies the syntax of a document
	DetectFormat(content []byte) Format
}

// Packager embeds Factur-X XML into PDFs
type Packager interface {
	// EmbedIntoPDF attaches xml as factur-x.xml; an empty level means the
	// configured one
	EmbedIntoPDF(ctx context.Context, pdf, xml []byte, level string) ([]byte, Diagnostics, error)
}

var (
	_ Exporter = (*Processor)(nil)
	_ Importer = (*Processor)(nil)
	_ Packager = (*Processor)(nil)
)
