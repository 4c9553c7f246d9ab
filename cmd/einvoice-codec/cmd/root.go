package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-codec/internal/config"
	"github.com/rezonia/einvoice-codec/internal/logger"
	"github.com/rezonia/einvoice-codec/internal/processor"
)

var (
	version = "1.0.0"

	// Global flags
	verbose          bool
	outputFormat     string
	envFile          string
	logLevel         string
	processType      string
	conformanceLevel string
	defaultCountry   string
	noPDFA           bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "einvoice-codec",
	Short: "Export and import Factur-X and UBL BIS 3 e-invoices",
	Long: `einvoice-codec converts invoices between a JSON value model and the
European e-invoice syntaxes.

Supports:
  - Factur-X 2.2 (CII, EN 16931) with CIUS-FR extras
  - Peppol BIS Billing 3.0 (UBL Invoice and CreditNote)
  - PDF/A-3 packaging of factur-x.xml

Examples:
  # Export an invoice as Factur-X XML
  einvoice-codec export --format facturx invoice.json -o factur-x.xml

  # Import XML or Factur-X PDFs
  einvoice-codec import bills/*.xml bills/*.pdf -F table

  # Embed XML into a PDF
  einvoice-codec embed --pdf layout.pdf --xml factur-x.xml -o invoice.pdf

  # Check an invoice against the rules
  einvoice-codec validate --format ubl invoice.json`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output-format", "F", "json", "Report format (json, csv, table)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the process environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (env: LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&processType, "process-type", "", "billing or selfbilling (env: EINVOICE_PROCESS_TYPE)")
	rootCmd.PersistentFlags().StringVar(&conformanceLevel, "level", "", "Factur-X conformance level (env: EINVOICE_CONFORMANCE_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&defaultCountry, "country", "", "Default party country (env: EINVOICE_DEFAULT_COUNTRY)")
	rootCmd.PersistentFlags().BoolVar(&noPDFA, "no-pdfa", false, "Skip the PDF/A-3 conversion (env: EINVOICE_PDFA_ENABLED=false)")
}

// initConfig loads the environment, then applies the flags set on the
// command line
func initConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.New(envFile)
	if err != nil {
		return err
	}

	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	if verbose {
		cfg.Logger.Level = "debug"
	}
	if processType != "" {
		cfg.Codec.ProcessType = processType
	}
	if conformanceLevel != "" {
		cfg.Codec.ConformanceLevel = conformanceLevel
	}
	if defaultCountry != "" {
		cfg.Codec.DefaultCountry = defaultCountry
	}
	if noPDFA {
		cfg.Codec.PDFAEnabled = false
	}
	if err := cfg.Codec.Validate(); err != nil {
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Logger.Level
	logCfg.Format = cfg.Logger.Format
	return logger.Setup(logCfg)
}

func newPipeline() *processor.Pipeline {
	return processor.NewPipeline(
		processor.WithConfig(cfg.Codec),
		processor.WithLogger(log.Logger),
	)
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
