// Package config loads the codec and server configuration from the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/rezonia/einvoice-codec/internal/builder"
	"github.com/rezonia/einvoice-codec/internal/codelist"
	"github.com/rezonia/einvoice-codec/internal/pdfa"
)

// Config is the full application configuration, one section per concern
type Config struct {
	HTTP   HTTP
	Logger Logger
	Codec  Codec
}

// HTTP configures the serve command
type HTTP struct {
	Port         int   `env:"HTTP_PORT" envDefault:"8080"`
	MaxBodyBytes int64 `env:"HTTP_MAX_BODY_BYTES" envDefault:"20971520"`
	Debug        bool  `env:"HTTP_DEBUG" envDefault:"false"`
}

// Logger selects the zerolog level and the console or JSON output
type Logger struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

// Codec is the configuration record of the export and import pipelines
type Codec struct {
	ProcessType string `env:"EINVOICE_PROCESS_TYPE" envDefault:"billing"`
	// CurrencyDecimals is the Factur-X money precision; 0 takes the ISO 4217
	// minor unit of the invoice currency
	CurrencyDecimals      int32         `env:"EINVOICE_CURRENCY_DECIMALS" envDefault:"2"`
	PDFAEnabled           bool          `env:"EINVOICE_PDFA_ENABLED" envDefault:"true"`
	DefaultCountry        string        `env:"EINVOICE_DEFAULT_COUNTRY"`
	WarnOnUnmappedUoM     bool          `env:"EINVOICE_WARN_ON_UNMAPPED_UOM" envDefault:"true"`
	ConformanceLevel      string        `env:"EINVOICE_CONFORMANCE_LEVEL" envDefault:"BASIC"`
	FrenchExemptionReason string        `env:"EINVOICE_FR_EXEMPTION_REASON"`
	NegateHeaderTax       bool          `env:"EINVOICE_NEGATE_HEADER_TAX" envDefault:"true"`
	ConverterPath         string        `env:"EINVOICE_CONVERTER_PATH"`
	ConverterTimeout      time.Duration `env:"EINVOICE_CONVERTER_TIMEOUT" envDefault:"60s"`
	// PDFProducer is recorded as pdf:Producer and xmp:CreatorTool
	PDFProducer string `env:"EINVOICE_PDF_PRODUCER" envDefault:"einvoice-codec"`
}

// New loads envPath when it exists, then parses the process environment
func New(envPath string) (Config, error) {
	if envPath != "" {
		err := godotenv.Load(envPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}
	return Parse(nil)
}

// Parse reads the configuration from environment, or from the process
// environment when nil
func Parse(environment map[string]string) (Config, error) {
	c, err := env.ParseAsWithOptions[Config](env.Options{
		Environment: environment,
	})
	if err != nil {
		return Config{}, err
	}
	if err := c.Codec.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// DefaultCodec returns the codec defaults, as loaded from an empty
// environment
func DefaultCodec() Codec {
	return Codec{
		ProcessType:       builder.ProcessBilling,
		CurrencyDecimals:  2,
		PDFAEnabled:       true,
		WarnOnUnmappedUoM: true,
		ConformanceLevel:  pdfa.DefaultLevel,
		NegateHeaderTax:   true,
		ConverterTimeout:  pdfa.DefaultConverterTimeout,
		PDFProducer:       "einvoice-codec",
	}
}

// Validate checks enumerations and codes
func (c Codec) Validate() error {
	switch c.ProcessType {
	case builder.ProcessBilling, builder.ProcessSelfBilling:
	default:
		return fmt.Errorf("EINVOICE_PROCESS_TYPE must be %q or %q, got %q", builder.ProcessBilling, builder.ProcessSelfBilling, c.ProcessType)
	}
	if c.CurrencyDecimals < 0 || c.CurrencyDecimals > 4 {
		return fmt.Errorf("EINVOICE_CURRENCY_DECIMALS must be between 0 and 4, got %d", c.CurrencyDecimals)
	}
	if c.DefaultCountry != "" && !codelist.IsCountry(c.DefaultCountry) {
		return fmt.Errorf("EINVOICE_DEFAULT_COUNTRY is not an ISO 3166 code: %q", c.DefaultCountry)
	}
	if _, err := pdfa.ParseLevel(c.ConformanceLevel); err != nil {
		return fmt.Errorf("EINVOICE_CONFORMANCE_LEVEL: %w", err)
	}
	return nil
}

// FacturXPlaces returns the money precision of a Factur-X export
func (c Codec) FacturXPlaces(currency string) int32 {
	if c.CurrencyDecimals > 0 {
		return c.CurrencyDecimals
	}
	return codelist.CurrencyDecimals(currency, 2)
}

// Country returns the default country in upper case
func (c Codec) Country() string {
	return strings.ToUpper(strings.TrimSpace(c.DefaultCountry))
}
