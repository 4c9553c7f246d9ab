package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-codec/internal/builder"
	"github.com/rezonia/einvoice-codec/internal/config"
)

func TestParse_Defaults(t *testing.T) {
	c, err := config.Parse(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, 8080, c.HTTP.Port)
	assert.Equal(t, "info", c.Logger.Level)
	assert.Equal(t, config.DefaultCodec(), c.Codec)
}

func TestParse_Overrides(t *testing.T) {
	c, err := config.Parse(map[string]string{
		"HTTP_PORT":                    "9090",
		"LOG_FORMAT":                   "json",
		"EINVOICE_PROCESS_TYPE":        "selfbilling",
		"EINVOICE_CURRENCY_DECIMALS":   "0",
		"EINVOICE_PDFA_ENABLED":        "false",
		"EINVOICE_DEFAULT_COUNTRY":     "fr",
		"EINVOICE_CONFORMANCE_LEVEL":   "EN 16931",
		"EINVOICE_NEGATE_HEADER_TAX":   "false",
		"EINVOICE_CONVERTER_TIMEOUT":   "5s",
		"EINVOICE_FR_EXEMPTION_REASON": "Exonération de TVA, article 262 ter I du CGI",
		"EINVOICE_PDF_PRODUCER":        "Acme Billing 4.2",
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, c.HTTP.Port)
	assert.Equal(t, "json", c.Logger.Format)
	assert.Equal(t, builder.ProcessSelfBilling, c.Codec.ProcessType)
	assert.False(t, c.Codec.PDFAEnabled)
	assert.False(t, c.Codec.NegateHeaderTax)
	assert.Equal(t, "FR", c.Codec.Country())
	assert.Equal(t, 5*time.Second, c.Codec.ConverterTimeout)
	assert.Equal(t, "Exonération de TVA, article 262 ter I du CGI", c.Codec.FrenchExemptionReason)
	assert.Equal(t, "Acme Billing 4.2", c.Codec.PDFProducer)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"process type", map[string]string{"EINVOICE_PROCESS_TYPE": "invoice"}},
		{"currency decimals", map[string]string{"EINVOICE_CURRENCY_DECIMALS": "7"}},
		{"country", map[string]string{"EINVOICE_DEFAULT_COUNTRY": "XX"}},
		{"conformance level", map[string]string{"EINVOICE_CONFORMANCE_LEVEL": "GOLD"}},
		{"port", map[string]string{"HTTP_PORT": "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse(tt.env)
			assert.Error(t, err)
		})
	}
}

func TestCodec_FacturXPlaces(t *testing.T) {
	c := config.DefaultCodec()
	assert.Equal(t, int32(2), c.FacturXPlaces("JPY"))

	c.CurrencyDecimals = 0
	assert.Equal(t, int32(0), c.FacturXPlaces("JPY"))
	assert.Equal(t, int32(3), c.FacturXPlaces("KWD"))
	assert.Equal(t, int32(2), c.FacturXPlaces("EUR"))
}

func TestNew_LoadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EINVOICE_CONFORMANCE_LEVEL=EXTENDED\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("EINVOICE_CONFORMANCE_LEVEL") })

	c, err := config.New(path)
	require.NoError(t, err)
	assert.Equal(t, "EXTENDED", c.Codec.ConformanceLevel)
}

func TestNew_MissingEnvFile(t *testing.T) {
	_, err := config.New(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
