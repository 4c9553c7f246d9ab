package invoicelib

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rezonia/einvoice-codec/internal/processor"
)

// Processor implements the codec interfaces using the internal pipeline
type Processor struct {
	pipeline *processor.Pipeline
}

// NewProcessor creates a processor with the given configuration
func NewProcessor(cfg Config) (*Processor, error) {
	return NewProcessorWithLogger(cfg, zerolog.Nop())
}

// NewProcessorWithLogger creates a processor logging to l
func NewProcessorWithLogger(cfg Config, l zerolog.Logger) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Processor{
		pipeline: processor.NewPipeline(
			processor.WithConfig(cfg),
			processor.WithLogger(l),
		),
	}, nil
}

// NewDefaultProcessor creates a processor with default configuration
func NewDefaultProcessor() *Processor {
	return &Processor{pipeline: processor.NewPipeline()}
}

// ExportFacturX renders Factur-X CII XML
func (p *Processor) ExportFacturX(inv *Invoice) ([]byte, Diagnostics, error) {
	return p.export(inv, FormatFacturX)
}

// ExportUBL renders UBL BIS 3 XML
func (p *Processor) ExportUBL(inv *Invoice) ([]byte, Diagnostics, error) {
	return p.export(inv, FormatUBL)
}

func (p *Processor) export(inv *Invoice, format Format) ([]byte, Diagnostics, error) {
	result, err := p.pipeline.Export(inv, format)
	if err != nil {
		return nil, nil, err
	}
	return result.XML, result.Diagnostics, nil
}

// ExportOrFail renders XML or fails with the first blocking diagnostic
func (p *Processor) ExportOrFail(inv *Invoice, format Format) ([]byte, error) {
	return p.pipeline.ExportOrFail(inv, format)
}

// Validate runs the rules of format without generating XML
func (p *Processor) Validate(inv *Invoice, format Format) (Diagnostics, error) {
	return p.pipeline.Validate(inv, format)
}

// EmbedIntoPDF attaches Factur-X XML to a PDF
func (p *Processor) EmbedIntoPDF(ctx context.Context, pdf, xml []byte, level string) ([]byte, Diagnostics, error) {
	result, err := p.pipeline.Embed(ctx, pdf, xml, level)
	if err != nil {
		return nil, nil, err
	}
	return result.PDF, result.Diagnostics, nil
}

// ImportDocument parses XML, or the Factur-X XML embedded in a PDF
func (p *Processor) ImportDocument(ctx context.Context, content []byte, res Resolvers, direction Direction) (*Invoice, []string, error) {
	result, err := p.pipeline.Import(ctx, content, res, direction)
	if err != nil {
		return nil, nil, err
	}
	return result.Invoice, result.Logs, nil
}

// DetectFormat identifies the syntax of an XML document or of the XML
// embedded in a PDF
func (p *Processor) DetectFormat(content []byte) Format {
	return p.pipeline.DocumentFormat(content)
}

// BatchResult is the export of one invoice of a batch
type BatchResult struct {
	XML         []byte
	Diagnostics Diagnostics
	Err         error
}

// ExportBatch exports invoices concurrently. Results keep the input order.
func (p *Processor) ExportBatch(invs []*Invoice, format Format) []BatchResult {
	results := make([]BatchResult, len(invs))

	var wg sync.WaitGroup
	for i, inv := range invs {
		wg.Add(1)
		go func(idx int, inv *Invoice) {
			defer wg.Done()
			xml, diags, err := p.export(inv, format)
			results[idx] = BatchResult{XML: xml, Diagnostics: diags, Err: err}
		}(i, inv)
	}
	wg.Wait()

	return results
}

var defaultProcessor = sync.OnceValue(NewDefaultProcessor)

// ExportFacturX renders Factur-X CII XML with the default configuration
func ExportFacturX(inv *Invoice) ([]byte, Diagnostics, error) {
	return defaultProcessor().ExportFacturX(inv)
}

// ExportUBL renders UBL BIS 3 XML with the default configuration
func ExportUBL(inv *Invoice) ([]byte, Diagnostics, error) {
	return defaultProcessor().ExportUBL(inv)
}

// ExportOrFail renders XML with the default configuration, or fails with
// the first blocking diagnostic as *ValidationFailure
func ExportOrFail(inv *Invoice, format Format) ([]byte, error) {
	return defaultProcessor().ExportOrFail(inv, format)
}

// EmbedIntoPDF attaches Factur-X XML to a PDF with the default configuration
func EmbedIntoPDF(ctx context.Context, pdf, xml []byte, level string) ([]byte, Diagnostics, error) {
	return defaultProcessor().EmbedIntoPDF(ctx, pdf, xml, level)
}

// DetectFormat identifies the syntax of a document
func DetectFormat(content []byte) Format {
	return defaultProcessor().DetectFormat(content)
}

// ImportDocument parses a vendor bill. Use a Processor to import sales
// documents.
func ImportDocument(ctx context.Context, content []byte, res Resolvers) (*Invoice, []string, error) {
	return defaultProcessor().ImportDocument(ctx, content, res, DirectionPurchase)
}
