package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-codec/internal/model"
	xmlparser "github.com/rezonia/einvoice-codec/internal/parser/xml"
	"github.com/rezonia/einvoice-codec/internal/processor"
)

var (
	importOutput    string
	importDirection string
)

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import Factur-X, UBL and CII documents",
	Long: `Parse one or more e-invoice documents into draft invoices.

Supported inputs:
  - XML: Factur-X / ZUGFeRD CII, UBL BIS 3 Invoice and CreditNote
  - PDF: Factur-X PDFs carrying an embedded XML attachment

Parties, currencies and taxes are not resolved from the command line; the
import log lists every value that would need a lookup.

Examples:
  einvoice-codec import bill.xml
  einvoice-codec import bills/ -F table
  einvoice-codec import *.pdf --direction sale -o drafts.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Output file (default: stdout)")
	importCmd.Flags().StringVar(&importDirection, "direction", "purchase", "purchase (vendor bill) or sale (customer invoice)")
	importCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Processing timeout per file")
}

func runImport(cmd *cobra.Command, args []string) error {
	direction, err := parseDirection(importDirection)
	if err != nil {
		return err
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to import")
	}

	printVerbose("Found %d files to import\n", len(files))

	pipeline := newPipeline()
	results := make([]*ImportResult, 0, len(files))
	for _, file := range files {
		printVerbose("Importing: %s\n", file)

		result := importFile(pipeline, file, direction)
		results = append(results, result)

		if result.Error != "" {
			printVerbose("  Error: %s\n", result.Error)
		} else {
			printVerbose("  Format: %s, Container: %s\n", result.Format, result.Container)
		}
	}

	return outputResults(results)
}

func parseDirection(s string) (xmlparser.Direction, error) {
	switch strings.ToLower(s) {
	case "purchase", "in_invoice":
		return xmlparser.DirectionPurchase, nil
	case "sale", "out_invoice":
		return xmlparser.DirectionSale, nil
	default:
		return "", fmt.Errorf("invalid direction: %s", s)
	}
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}

		if len(matches) == 0 {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}

			if info.IsDir() {
				err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
					if err != nil {
						return err
					}
					if !info.IsDir() && isSupportedFile(path) {
						files = append(files, path)
					}
					return nil
				})
				if err != nil {
					return nil, err
				}
			} else {
				files = append(files, arg)
			}
			continue
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}
			if !info.IsDir() && isSupportedFile(match) {
				files = append(files, match)
			}
		}
	}

	return files, nil
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".pdf":
		return true
	default:
		return false
	}
}

func importFile(pipeline *processor.Pipeline, filePath string, direction xmlparser.Direction) *ImportResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result := &ImportResult{File: filePath}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	imported, err := pipeline.Import(ctx, data, xmlparser.Resolvers{}, direction)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Invoice = imported.Invoice
	result.Format = imported.Format.String()
	result.Container = imported.Container.String()
	result.Logs = imported.Logs
	return result
}

func outputResults(results []*ImportResult) error {
	var writer = os.Stdout
	if importOutput != "" {
		f, err := os.Create(importOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	switch outputFormat {
	case "json":
		return outputJSON(writer, results)
	case "table":
		return outputTable(writer, results)
	case "csv":
		return outputCSV(writer, results)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func outputJSON(w *os.File, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputTable(w *os.File, results []*ImportResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tNUMBER\tTYPE\tDATE\tSUPPLIER\tTOTAL\tCURRENCY\tFORMAT\tLOGS")
	fmt.Fprintln(tw, "----\t------\t----\t----\t--------\t-----\t--------\t------\t----")

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\tERROR: %s\t\t\t\t\t\t\t\n", r.File, r.Error)
			continue
		}
		inv := r.Invoice
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.File,
			inv.Number,
			inv.Type,
			formatDate(inv),
			inv.Supplier.Name,
			documentTotal(inv),
			inv.Currency,
			r.Format,
			len(r.Logs),
		)
	}

	return tw.Flush()
}

func outputCSV(w *os.File, results []*ImportResult) error {
	fmt.Fprintln(w, "file,number,type,date,supplier_name,supplier_vat,customer_name,customer_vat,total_amount,currency,format,container,error")

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(w, "%s,,,,,,,,,,,,%s\n", escapeCSV(r.File), escapeCSV(r.Error))
			continue
		}
		inv := r.Invoice
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,\n",
			escapeCSV(r.File),
			escapeCSV(inv.Number),
			inv.Type,
			formatDate(inv),
			escapeCSV(inv.Supplier.Name),
			inv.Supplier.VAT,
			escapeCSV(inv.Customer.Name),
			inv.Customer.VAT,
			documentTotal(inv),
			inv.Currency,
			r.Format,
			r.Container,
		)
	}

	return nil
}

func formatDate(inv *model.Invoice) string {
	if inv.IssueDate.IsZero() {
		return ""
	}
	return inv.IssueDate.Format("2006-01-02")
}

func documentTotal(inv *model.Invoice) string {
	if inv.Totals == nil {
		return ""
	}
	return inv.Totals.TaxInclusive.String()
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}

// ImportResult holds the result of importing a single file
type ImportResult struct {
	File      string         `json:"file"`
	Invoice   *model.Invoice `json:"invoice,omitempty"`
	Format    string         `json:"format,omitempty"`
	Container string         `json:"container,omitempty"`
	Logs      []string       `json:"logs,omitempty"`
	Error     string         `json:"error,omitempty"`
}
