// Package processor runs the export and import flows of the codec: tax
// aggregation, rule checks, XML generation and PDF packaging on the way out,
// container sniffing, parsing and resolution on the way in.
package processor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rezonia/einvoice-codec/internal/builder"
	"github.com/rezonia/einvoice-codec/internal/codelist"
	"github.com/rezonia/einvoice-codec/internal/config"
	money "github.com/rezonia/einvoice-codec/internal/decimal"
	"github.com/rezonia/einvoice-codec/internal/model"
	xmlparser "github.com/rezonia/einvoice-codec/internal/parser/xml"
	"github.com/rezonia/einvoice-codec/internal/pdfa"
	"github.com/rezonia/einvoice-codec/internal/rules"
	"github.com/rezonia/einvoice-codec/internal/tax"
	"github.com/rezonia/einvoice-codec/internal/xmlnode"
)

// Format represents the container of an input document
type Format int

const (
	FormatUnknown Format = iota
	FormatXML
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// UBL BIS 3 amounts always carry two decimals
const ublPlaces = 2

var (
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
	pdfMagic = []byte("%PDF")
)

// DetectFormat detects the container from magic bytes
func DetectFormat(data []byte) Format {
	if bytes.HasPrefix(data, pdfMagic) {
		return FormatPDF
	}
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return FormatXML
	}
	return FormatUnknown
}

// ExportResult is the outcome of an export. XML is nil when a blocking
// diagnostic was raised.
type ExportResult struct {
	Format      model.Format
	XML         []byte
	PDF         []byte
	Filename    string
	Digest      string
	Diagnostics model.Diagnostics
	View        *tax.View
}

// Blocked reports whether a blocking rule prevented the export
func (r *ExportResult) Blocked() bool {
	return r.Diagnostics.HasBlocking()
}

// ImportResult is a parsed draft with its import log
type ImportResult struct {
	Invoice    *model.Invoice
	Format     model.Format
	Container  Format
	Attachment string // embedded file name for PDF inputs
	Logs       []string
}

// Pipeline orchestrates invoice export and import
type Pipeline struct {
	codec    config.Codec
	rules    *rules.Registry
	packager *pdfa.Packager
	parsers  *xmlparser.Registry
	logger   zerolog.Logger
}

// PipelineOption configures the pipeline
type PipelineOption func(*Pipeline)

// WithConfig sets the codec configuration
func WithConfig(c config.Codec) PipelineOption {
	return func(p *Pipeline) {
		p.codec = c
	}
}

// WithRules replaces the rule registry
func WithRules(r *rules.Registry) PipelineOption {
	return func(p *Pipeline) {
		p.rules = r
	}
}

// WithPackager replaces the PDF/A-3 packager
func WithPackager(pk *pdfa.Packager) PipelineOption {
	return func(p *Pipeline) {
		p.packager = pk
	}
}

// WithParserRegistry replaces the XML parser registry
func WithParserRegistry(r *xmlparser.Registry) PipelineOption {
	return func(p *Pipeline) {
		p.parsers = r
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// NewPipeline creates a new processing pipeline
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		codec:  config.DefaultCodec(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.rules == nil {
		p.rules = rules.Default(rules.Options{WarnOnUnmappedUoM: p.codec.WarnOnUnmappedUoM})
	}
	if p.parsers == nil {
		p.parsers = xmlparser.NewRegistry()
	}
	if p.packager == nil {
		p.packager = newPackager(p.codec, p.logger)
	}
	return p
}

func newPackager(c config.Codec, l zerolog.Logger) *pdfa.Packager {
	opts := []pdfa.Option{
		pdfa.WithConversion(c.PDFAEnabled),
		pdfa.WithLogger(l.With().Str("component", "pdfa").Logger()),
	}
	if c.PDFProducer != "" {
		opts = append(opts, pdfa.WithProducer(c.PDFProducer))
	}
	if c.PDFAEnabled {
		gs := pdfa.NewGhostscript(c.ConverterPath)
		if c.ConverterTimeout > 0 {
			gs.SetTimeout(c.ConverterTimeout)
		}
		opts = append(opts, pdfa.WithConverter(gs))
	}
	return pdfa.NewPackager(opts...)
}

// Config returns the codec configuration in use
func (p *Pipeline) Config() config.Codec {
	return p.codec
}

// Validate aggregates the invoice and runs the rules of format without
// generating XML
func (p *Pipeline) Validate(inv *model.Invoice, format model.Format) (model.Diagnostics, error) {
	if err := checkExportFormat(format); err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("invoice is nil")
	}
	doc := p.prepare(inv)
	view := p.aggregate(doc, format)
	return p.rules.Check(doc, view, format), nil
}

// Export generates the XML of the invoice in format. Blocking diagnostics
// leave XML empty; warnings are returned with it.
func (p *Pipeline) Export(inv *model.Invoice, format model.Format) (*ExportResult, error) {
	if err := checkExportFormat(format); err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("invoice is nil")
	}

	doc := p.prepare(inv)
	view := p.aggregate(doc, format)
	result := &ExportResult{
		Format:      format,
		Diagnostics: p.rules.Check(doc, view, format),
		View:        view,
	}

	log := p.logger.With().Str("format", format.String()).Str("number", doc.Number).Logger()
	if result.Blocked() {
		log.Info().
			Int("blocking", len(result.Diagnostics.Blocking())).
			Str("rule", result.Diagnostics.Blocking()[0].RuleID).
			Msg("Export blocked by validation")
		return result, nil
	}

	opts := builder.Options{
		ProcessType:     p.codec.ProcessType,
		NegateHeaderTax: p.codec.NegateHeaderTax,
	}
	var err error
	switch format {
	case model.FormatFacturX:
		result.XML, err = builder.BuildFacturX(doc, view, opts)
		result.Filename = pdfa.FacturXFilename
	case model.FormatUBL:
		result.XML, err = builder.BuildUBL(doc, view, opts)
		result.Filename = builder.UBLFilename(doc.Number)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build %s document: %w", format, err)
	}

	result.Digest, err = xmlnode.Digest(result.XML)
	if err != nil {
		return nil, fmt.Errorf("failed to digest %s document: %w", format, err)
	}

	log.Debug().
		Int("warnings", len(result.Diagnostics.Warnings())).
		Int("size", len(result.XML)).
		Str("digest", result.Digest).
		Msg("Document exported")
	return result, nil
}

// ExportFacturX generates Factur-X CII XML
func (p *Pipeline) ExportFacturX(inv *model.Invoice) (*ExportResult, error) {
	return p.Export(inv, model.FormatFacturX)
}

// ExportUBL generates UBL BIS 3 XML
func (p *Pipeline) ExportUBL(inv *model.Invoice) (*ExportResult, error) {
	return p.Export(inv, model.FormatUBL)
}

// ExportOrFail returns the XML, or the first blocking diagnostic as a
// *model.ValidationFailure
func (p *Pipeline) ExportOrFail(inv *model.Invoice, format model.Format) ([]byte, error) {
	result, err := p.Export(inv, format)
	if err != nil {
		return nil, err
	}
	if result.Blocked() {
		return nil, model.NewValidationFailure(result.Diagnostics)
	}
	return result.XML, nil
}

// Embed attaches Factur-X XML to a PDF. An empty level takes the configured
// conformance level.
func (p *Pipeline) Embed(ctx context.Context, pdf, xml []byte, level string) (*pdfa.Result, error) {
	if level == "" {
		level = p.codec.ConformanceLevel
	}
	return p.packager.Embed(ctx, pdf, xml, level)
}

// ExportFacturXPDF exports the invoice and embeds it into pdf. The packager
// warnings are appended to the export diagnostics.
func (p *Pipeline) ExportFacturXPDF(ctx context.Context, inv *model.Invoice, pdf []byte) (*ExportResult, error) {
	result, err := p.ExportFacturX(inv)
	if err != nil || result.Blocked() {
		return result, err
	}

	packaged, err := p.Embed(ctx, pdf, result.XML, "")
	if err != nil {
		return nil, err
	}
	result.PDF = packaged.PDF
	result.Diagnostics = append(result.Diagnostics, packaged.Diagnostics...)
	return result, nil
}

// DocumentFormat returns the e-invoice syntax of an XML document, or of the
// XML embedded in a PDF
func (p *Pipeline) DocumentFormat(content []byte) model.Format {
	switch DetectFormat(content) {
	case FormatXML:
		return p.parsers.DetectFormat(content)
	case FormatPDF:
		att, err := pdfa.Extract(content)
		if err != nil {
			return model.FormatUnknown
		}
		return p.parsers.DetectFormat(att.Content)
	default:
		return model.FormatUnknown
	}
}

// Import parses an XML document, or the e-invoice embedded in a PDF, into a
// draft invoice
func (p *Pipeline) Import(ctx context.Context, content []byte, res xmlparser.Resolvers, direction xmlparser.Direction) (*ImportResult, error) {
	result := &ImportResult{Container: DetectFormat(content)}

	switch result.Container {
	case FormatXML:
	case FormatPDF:
		att, err := pdfa.Extract(content)
		if err != nil {
			return nil, model.NewExtractionError("pdf", "no e-invoice attachment found", err)
		}
		result.Attachment = att.Name
		content = att.Content
	default:
		return nil, model.NewParseError(model.FormatUnknown, "content", "unsupported input, expected XML or PDF", nil)
	}

	parsed, err := p.parsers.Parse(ctx, content, res, xmlparser.Options{
		Direction: direction,
		Logger:    p.logger.With().Str("component", "import").Logger(),
	})
	if err != nil {
		return nil, err
	}

	result.Invoice = parsed.Invoice
	result.Logs = parsed.Logs
	result.Format = p.parsers.DetectFormat(content)
	if msg := p.checkTotals(result.Invoice, result.Format); msg != "" {
		result.Logs = append(result.Logs, msg)
	}

	p.logger.Debug().
		Str("container", result.Container.String()).
		Str("format", result.Format.String()).
		Str("number", result.Invoice.Number).
		Int("logs", len(result.Logs)).
		Msg("Document imported")
	return result, nil
}

// checkTotals compares the grand total read from the document with the one
// recomputed from the imported lines
func (p *Pipeline) checkTotals(inv *model.Invoice, format model.Format) string {
	if inv.Totals == nil || len(inv.Lines) == 0 {
		return ""
	}
	view := p.aggregate(inv, format)
	if money.WithinTolerance(inv.Totals.TaxInclusive, view.Totals.TaxInclusive, view.Places) {
		return ""
	}
	return fmt.Sprintf("Document total %s differs from the total %s computed from the lines",
		inv.Totals.TaxInclusive.StringFixed(view.Places), view.Totals.TaxInclusive.StringFixed(view.Places))
}

// prepare returns a copy of the invoice with configured defaults applied
// and VAT identifiers in their wire form, so the rules check what the
// builders write. The caller's value is never modified.
func (p *Pipeline) prepare(inv *model.Invoice) *model.Invoice {
	doc := *inv
	doc.Supplier.VAT = codelist.NormalizeVAT(doc.Supplier.VAT)
	doc.Customer.VAT = codelist.NormalizeVAT(doc.Customer.VAT)
	if doc.Shipping != nil {
		shipping := *doc.Shipping
		shipping.VAT = codelist.NormalizeVAT(shipping.VAT)
		doc.Shipping = &shipping
	}
	if doc.TaxRepresentative != nil {
		rep := *doc.TaxRepresentative
		rep.VAT = codelist.NormalizeVAT(rep.VAT)
		doc.TaxRepresentative = &rep
	}
	if country := p.codec.Country(); country != "" {
		if doc.Supplier.Address.Country == "" {
			doc.Supplier.Address.Country = country
		}
		if doc.Customer.Address.Country == "" {
			doc.Customer.Address.Country = country
		}
	}
	return &doc
}

func (p *Pipeline) aggregate(doc *model.Invoice, format model.Format) *tax.View {
	places := int32(ublPlaces)
	if format == model.FormatFacturX {
		places = p.codec.FacturXPlaces(doc.Currency)
	}
	return tax.Aggregate(doc, tax.Options{
		Places:                places,
		FrenchExemptionReason: p.codec.FrenchExemptionReason,
	})
}

func checkExportFormat(format model.Format) error {
	switch format {
	case model.FormatFacturX, model.FormatUBL:
		return nil
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
