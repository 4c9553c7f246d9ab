package xml

import (
	"bytes"
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rezonia/einvoice-codec/internal/model"
)

// Direction tells the tax resolver which side of the books a document is on
type Direction string

const (
	DirectionPurchase Direction = "purchase"
	DirectionSale     Direction = "sale"
)

// PartnerResolver returns the caller's partner id, or "" when not found
type PartnerResolver func(name, vat, email string) string

// CurrencyResolver returns the caller's currency id, or "" when not found
type CurrencyResolver func(code string) string

// TaxResolver returns the caller's tax id for a rate, or "" when not found
type TaxResolver func(rate decimal.Decimal, direction Direction) string

// Resolvers map document references to caller records. Nil resolvers are
// skipped without a log entry.
type Resolvers struct {
	Partner  PartnerResolver
	Currency CurrencyResolver
	Tax      TaxResolver
}

// Options controls an import
type Options struct {
	// Direction selects the counterparty: the supplier of a purchase, the
	// customer of a sale
	Direction Direction
	Logger    zerolog.Logger
}

// DefaultOptions returns options for importing vendor bills
func DefaultOptions() Options {
	return Options{Direction: DirectionPurchase, Logger: zerolog.Nop()}
}

// Result is a draft invoice with the import log
type Result struct {
	Invoice *model.Invoice
	Logs    []string
}

// Adapter parses one e-invoice syntax into the value model
type Adapter interface {
	// Parse parses XML content into a draft invoice
	Parse(ctx context.Context, r io.Reader, res Resolvers, opts Options) (*Result, error)

	// CanParse returns true if adapter can handle this content
	CanParse(content []byte) bool

	// Format returns the document format
	Format() model.Format
}

// Registry holds all registered adapters
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates registry with the Factur-X and UBL adapters
func NewRegistry() *Registry {
	return &Registry{
		adapters: []Adapter{
			NewFacturXAdapter(),
			NewUBLAdapter(),
		},
	}
}

// Detect identifies the adapter from the root element namespace
func (r *Registry) Detect(content []byte) (Adapter, error) {
	for _, a := range r.adapters {
		if a.CanParse(content) {
			return a, nil
		}
	}
	return nil, model.NewParseError(model.FormatUnknown, "root", "unknown XML format, no matching adapter found", nil)
}

// DetectFormat returns the format of content, or FormatUnknown
func (r *Registry) DetectFormat(content []byte) model.Format {
	a, err := r.Detect(content)
	if err != nil {
		return model.FormatUnknown
	}
	return a.Format()
}

// Parse parses XML using appropriate adapter
func (r *Registry) Parse(ctx context.Context, content []byte, res Resolvers, opts Options) (*Result, error) {
	adapter, err := r.Detect(content)
	if err != nil {
		return nil, err
	}
	return adapter.Parse(ctx, bytes.NewReader(content), res, opts)
}

// RegisterAdapter adds a custom adapter to the registry
func (r *Registry) RegisterAdapter(a Adapter) {
	// custom adapters take priority
	r.adapters = append([]Adapter{a}, r.adapters...)
}

// GetAdapter returns adapter for a specific format
func (r *Registry) GetAdapter(format model.Format) Adapter {
	for _, a := range r.adapters {
		if a.Format() == format {
			return a
		}
	}
	return nil
}
