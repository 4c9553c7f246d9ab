package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	embedPDF    string
	embedXML    string
	embedOutput string
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed Factur-X XML into a PDF",
	Long: `Attach an XML document to a PDF as factur-x.xml (AFRelationship
Alternative) and write the Factur-X XMP metadata.

The PDF is converted to PDF/A-3 with Ghostscript when it is installed and
--no-pdfa is not set. A failed conversion is reported as a warning and the
source PDF is used.

Examples:
  einvoice-codec embed --pdf layout.pdf --xml factur-x.xml -o invoice.pdf
  einvoice-codec embed --pdf layout.pdf --xml factur-x.xml -o invoice.pdf --level "EN 16931"`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().StringVar(&embedPDF, "pdf", "", "Source PDF")
	embedCmd.Flags().StringVar(&embedXML, "xml", "", "Factur-X XML")
	embedCmd.Flags().StringVarP(&embedOutput, "output", "o", "", "Output PDF")
	embedCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "PDF/A-3 conversion timeout")
	_ = embedCmd.MarkFlagRequired("pdf")
	_ = embedCmd.MarkFlagRequired("xml")
	_ = embedCmd.MarkFlagRequired("output")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	pdf, err := os.ReadFile(embedPDF)
	if err != nil {
		return fmt.Errorf("failed to read PDF: %w", err)
	}
	xml, err := os.ReadFile(embedXML)
	if err != nil {
		return fmt.Errorf("failed to read XML: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := newPipeline().Embed(ctx, pdf, xml, "")
	if err != nil {
		return err
	}
	printDiagnostics(result.Diagnostics)
	printVerbose("Embedded %s into %s (converted: %t)\n", embedXML, embedOutput, result.Converted)

	return writeOutput(embedOutput, result.PDF)
}
