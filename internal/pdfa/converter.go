package pdfa

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Converter rewrites a PDF as PDF/A-3
type Converter interface {
	Convert(ctx context.Context, pdf []byte) ([]byte, error)
	IsAvailable() bool
}

// Ghostscript converts PDFs to PDF/A-3 with the gs command line tool
type Ghostscript struct {
	path      string
	available bool
	timeout   time.Duration
}

// DefaultConverterTimeout bounds one Ghostscript run
const DefaultConverterTimeout = 60 * time.Second

// NewGhostscript creates a converter. An empty path searches the usual
// install locations.
func NewGhostscript(path string) *Ghostscript {
	g := &Ghostscript{timeout: DefaultConverterTimeout}
	if path == "" {
		g.path, g.available = detectGhostscript()
		return g
	}
	if p, err := exec.LookPath(path); err == nil {
		g.path, g.available = p, true
	}
	return g
}

// Convert runs gs with the PDF/A-3 pdfwrite device
func (g *Ghostscript) Convert(ctx context.Context, pdf []byte) ([]byte, error) {
	if !g.available {
		return nil, ErrToolUnavailable("gs")
	}

	// gs reads and writes files only
	dir, err := os.MkdirTemp("", "pdfa-*")
	if err != nil {
		return nil, NewPackageError(ErrCodeConversionFailed, "failed to create temp dir", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return nil, NewPackageError(ErrCodeConversionFailed, "failed to write temp file", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.path,
		"-dPDFA=3",
		"-dBATCH",
		"-dNOPAUSE",
		"-dNOOUTERSAVE",
		"-dQUIET",
		"-dPDFACompatibilityPolicy=1",
		"-sColorConversionStrategy=RGB",
		"-sDEVICE=pdfwrite",
		"-sOutputFile="+out,
		in,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, NewPackageError(ErrCodeConversionFailed, fmt.Sprintf("gs failed: %s", bytes.TrimSpace(stderr.Bytes())), err)
	}

	converted, err := os.ReadFile(out)
	if err != nil {
		return nil, NewPackageError(ErrCodeConversionFailed, "gs produced no output", err)
	}
	if !IsPDF(converted) {
		return nil, NewPackageError(ErrCodeConversionFailed, "gs output is not a PDF", nil)
	}
	return converted, nil
}

// IsAvailable returns whether gs was found
func (g *Ghostscript) IsAvailable() bool {
	return g.available
}

// Path returns the detected gs path
func (g *Ghostscript) Path() string {
	return g.path
}

// SetTimeout sets the execution timeout for gs
func (g *Ghostscript) SetTimeout(d time.Duration) {
	if d > 0 {
		g.timeout = d
	}
}

func detectGhostscript() (string, bool) {
	paths := []string{
		"gs",
		"/usr/bin/gs",
		"/usr/local/bin/gs",
		"/opt/homebrew/bin/gs",
		"gswin64c",
	}

	for _, p := range paths {
		if path, err := exec.LookPath(p); err == nil {
			return path, true
		}
	}
	return "", false
}
