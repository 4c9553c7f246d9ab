package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-codec/internal/model"
	"github.com/rezonia/einvoice-codec/internal/processor"
)

var (
	exportSyntax string
	exportOutput string
	exportPDF    string
	timeout      time.Duration
)

var exportCmd = &cobra.Command{
	Use:   "export [invoice.json]",
	Short: "Export an invoice as Factur-X or UBL BIS 3 XML",
	Long: `Export a JSON invoice as Factur-X (CII) or UBL BIS 3 XML.

The invoice is checked against the EN 16931, Peppol and national rules
first. Blocking diagnostics stop the export; warnings are printed to stderr.

With --pdf, the Factur-X XML is embedded into the given PDF and the PDF is
written instead.

Examples:
  einvoice-codec export --format facturx invoice.json -o factur-x.xml
  einvoice-codec export --format ubl invoice.json
  einvoice-codec export invoice.json --pdf layout.pdf -o invoice.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportSyntax, "format", "facturx", "Syntax (facturx, ubl)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportPDF, "pdf", "", "PDF to embed the Factur-X XML into")
	exportCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "PDF/A-3 conversion timeout")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := parseSyntax(exportSyntax)
	if err != nil {
		return err
	}
	inv, err := readInvoice(args[0])
	if err != nil {
		return err
	}
	pipeline := newPipeline()

	var result *processor.ExportResult
	if exportPDF != "" {
		if format != model.FormatFacturX {
			return fmt.Errorf("--pdf requires the facturx format")
		}
		if exportOutput == "" {
			return fmt.Errorf("--pdf requires an output file")
		}
		pdf, err := os.ReadFile(exportPDF)
		if err != nil {
			return fmt.Errorf("failed to read PDF: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		result, err = pipeline.ExportFacturXPDF(ctx, inv, pdf)
		if err != nil {
			return err
		}
	} else {
		result, err = pipeline.Export(inv, format)
		if err != nil {
			return err
		}
	}

	printDiagnostics(result.Diagnostics)
	if result.Blocked() {
		return model.NewValidationFailure(result.Diagnostics)
	}

	content := result.XML
	if result.PDF != nil {
		content = result.PDF
	}
	printVerbose("Exported %s (%d bytes, digest %s)\n", result.Filename, len(content), result.Digest)
	return writeOutput(exportOutput, content)
}

func parseSyntax(s string) (model.Format, error) {
	switch strings.ToLower(s) {
	case "facturx", "factur-x", "cii":
		return model.FormatFacturX, nil
	case "ubl", "ubl_bis3":
		return model.FormatUBL, nil
	default:
		return model.FormatUnknown, fmt.Errorf("unsupported format: %s", s)
	}
}

func readInvoice(path string) (*model.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice: %w", err)
	}
	var inv model.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("invalid invoice JSON in %s: %w", path, err)
	}
	return &inv, nil
}

func printDiagnostics(diags model.Diagnostics) {
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "  %s\n", d)
	}
}

func writeOutput(path string, content []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(content)
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
