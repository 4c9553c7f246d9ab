package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-codec/internal/model"
	"github.com/rezonia/einvoice-codec/internal/processor"
)

var validateSyntax string

var validateCmd = &cobra.Command{
	Use:   "validate [invoice.json...]",
	Short: "Check invoices against the export rules",
	Long: `Run the export rules on one or more JSON invoices without writing XML.

Checks performed:
  - EN 16931 business rules (mandatory fields, VAT categories, totals)
  - Peppol BIS 3 rules when --format ubl is set
  - CIUS-FR extras for French suppliers
  - Code list membership (countries, currencies, units, EAS schemes)

Examples:
  einvoice-codec validate invoice.json
  einvoice-codec validate --format ubl invoices/*.json -F table`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateSyntax, "format", "facturx", "Syntax whose rules apply (facturx, ubl)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := parseSyntax(validateSyntax)
	if err != nil {
		return err
	}

	pipeline := newPipeline()
	results := make([]*ValidationResult, 0, len(args))
	allValid := true

	for _, file := range args {
		result := validateFile(pipeline, file, format)
		results = append(results, result)
		if !result.Valid {
			allValid = false
		}
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Printf("✓ %s: VALID\n", r.File)
			} else {
				fmt.Printf("✗ %s: INVALID\n", r.File)
				if r.Error != "" {
					fmt.Printf("  - %s\n", r.Error)
				}
			}
			for _, d := range r.Diagnostics {
				if d.Severity == model.SeverityBlocking {
					fmt.Printf("  - %s\n", d)
				} else {
					fmt.Printf("  ⚠ %s\n", d)
				}
			}
		}
	}

	if !allValid {
		return fmt.Errorf("validation failed for some files")
	}
	return nil
}

func validateFile(pipeline *processor.Pipeline, filePath string, format model.Format) *ValidationResult {
	result := &ValidationResult{File: filePath, Format: format.String()}

	inv, err := readInvoice(filePath)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	diags, err := pipeline.Validate(inv, format)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Diagnostics = diags
	result.Valid = !diags.HasBlocking()
	return result
}

// ValidationResult holds the rule outcome of a single invoice
type ValidationResult struct {
	File        string            `json:"file"`
	Format      string            `json:"format"`
	Valid       bool              `json:"valid"`
	Diagnostics model.Diagnostics `json:"diagnostics,omitempty"`
	Error       string            `json:"error,omitempty"`
}
