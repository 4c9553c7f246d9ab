package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-codec/internal/pdfa"
	"github.com/rezonia/einvoice-codec/internal/processor"
)

var detectCmd = &cobra.Command{
	Use:   "detect [files...]",
	Short: "Show the e-invoice syntax of documents",
	Long: `Display the container and e-invoice syntax of documents without
parsing them.

Shows:
  - Container (XML, PDF)
  - Syntax (factur-x, ubl_bis3)
  - Embedded files of PDFs

Examples:
  einvoice-codec detect invoice.xml
  einvoice-codec detect *.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	pipeline := newPipeline()
	for _, file := range files {
		printFileInfo(pipeline, file)
		fmt.Println()
	}

	return nil
}

func printFileInfo(pipeline *processor.Pipeline, filePath string) {
	fmt.Printf("File: %s\n", filePath)

	info, err := os.Stat(filePath)
	if err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}

	fmt.Printf("  Size: %d bytes\n", info.Size())
	fmt.Printf("  Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))

	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Printf("  Error reading file: %v\n", err)
		return
	}

	container := processor.DetectFormat(data)
	fmt.Printf("  Container: %s\n", container)
	fmt.Printf("  Format: %s\n", pipeline.DocumentFormat(data))

	switch container {
	case processor.FormatXML:
		if preview := getPreview(string(data), 200); preview != "" {
			fmt.Printf("  Preview: %s\n", preview)
		}
	case processor.FormatPDF:
		files, err := pdfa.Attachments(data)
		if err != nil {
			fmt.Printf("  Attachments: %v\n", err)
			return
		}
		for _, f := range files {
			fmt.Printf("  Attachment: %s (%s, %s, %d bytes)\n", f.Name, f.MIME, f.Relationship, len(f.Content))
		}
	}
}

func getPreview(content string, maxLen int) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) > maxLen {
		return content[:maxLen] + "..."
	}
	return content
}
