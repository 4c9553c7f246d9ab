// Package pdfa embeds Factur-X XML into PDF documents as a PDF/A-3
// associated file and reads it back.
package pdfa

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rezonia/einvoice-codec/internal/model"
)

// FacturXFilename is the attachment name mandated by Factur-X
const FacturXFilename = "factur-x.xml"

// Factur-X conformance levels
const (
	LevelMinimum   = "MINIMUM"
	LevelBasicWL   = "BASIC WL"
	LevelBasic     = "BASIC"
	LevelEN16931   = "EN 16931"
	LevelExtended  = "EXTENDED"
	LevelXRechnung = "XRECHNUNG"

	DefaultLevel = LevelBasic
)

// RuleConversionFailed is the warning raised when the PDF/A-3 conversion
// could not run and the source PDF was used
const RuleConversionFailed = "pdfa_conversion_failed"

var levels = map[string]string{
	"MINIMUM":   LevelMinimum,
	"BASICWL":   LevelBasicWL,
	"BASIC WL":  LevelBasicWL,
	"BASIC":     LevelBasic,
	"EN16931":   LevelEN16931,
	"EN 16931":  LevelEN16931,
	"COMFORT":   LevelEN16931,
	"EXTENDED":  LevelExtended,
	"XRECHNUNG": LevelXRechnung,
}

// ParseLevel normalises a conformance level; empty means DefaultLevel
func ParseLevel(level string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(level))
	if key == "" {
		return DefaultLevel, nil
	}
	if l, ok := levels[key]; ok {
		return l, nil
	}
	return "", ErrInvalidLevel(level)
}

var pdfMagic = []byte("%PDF")

// IsPDF checks the PDF header
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// Result is the packaged PDF with its warnings
type Result struct {
	PDF         []byte
	Converted   bool
	Diagnostics model.Diagnostics
}

// Packager embeds Factur-X XML into PDFs
type Packager struct {
	converter Converter
	convert   bool
	producer  string
	logger    zerolog.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Packager
type Option func(*Packager)

// WithConverter sets the PDF/A-3 converter
func WithConverter(c Converter) Option {
	return func(p *Packager) {
		p.converter = c
	}
}

// WithConversion enables or disables the PDF/A-3 conversion step
func WithConversion(enabled bool) Option {
	return func(p *Packager) {
		p.convert = enabled
	}
}

// WithProducer sets the producer recorded in the XMP metadata
func WithProducer(producer string) Option {
	return func(p *Packager) {
		p.producer = producer
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(p *Packager) {
		p.logger = l
	}
}

// WithClock sets the time source of metadata dates
func WithClock(now func() time.Time) Option {
	return func(p *Packager) {
		p.now = now
	}
}

// NewPackager creates a packager. Without WithConverter, Ghostscript is
// looked up on the host.
func NewPackager(opts ...Option) *Packager {
	p := &Packager{
		convert:  true,
		producer: "einvoice-codec",
		logger:   zerolog.Nop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.convert && p.converter == nil {
		p.converter = NewGhostscript("")
	}
	return p
}

// Embed attaches xml as factur-x.xml with relationship Alternative and
// writes the Factur-X XMP metadata. A failed PDF/A-3 conversion is reported
// as a warning and the source PDF is used.
func (p *Packager) Embed(ctx context.Context, pdf, xml []byte, level string) (*Result, error) {
	if !IsPDF(pdf) {
		return nil, ErrNotPDF()
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	source := pdf
	if p.convert {
		converted, err := p.toPDFA(ctx, pdf)
		if err != nil {
			p.logger.Warn().Err(err).Msg("PDF/A-3 conversion failed, using the source PDF")
			result.Diagnostics = append(result.Diagnostics,
				model.Warning(RuleConversionFailed, "", fmt.Sprintf("PDF/A-3 conversion failed: %v", err)))
		} else {
			source = converted
			result.Converted = true
		}
	}

	now := p.now()
	metadata, err := xmpPacket(xmpInfo{
		Title:      "Factur-X invoice",
		Level:      lvl,
		DocumentID: p.newID(),
		Producer:   p.producer,
		Date:       now,
	})
	if err != nil {
		return nil, NewPackageError(ErrCodeWriteFailed, "failed to render XMP metadata", err)
	}

	out, err := attach(source, Attachment{
		Name:         FacturXFilename,
		MIME:         "application/xml",
		Relationship: "Alternative",
		Description:  "Factur-X invoice",
		Content:      xml,
		ModTime:      now,
	}, metadata)
	if err != nil {
		return nil, err
	}
	result.PDF = out

	p.logger.Debug().
		Str("level", lvl).
		Bool("converted", result.Converted).
		Int("size", len(out)).
		Msg("Factur-X attachment embedded")
	return result, nil
}

func (p *Packager) toPDFA(ctx context.Context, pdf []byte) ([]byte, error) {
	if p.converter == nil || !p.converter.IsAvailable() {
		return nil, ErrToolUnavailable("gs")
	}
	return p.converter.Convert(ctx, pdf)
}
