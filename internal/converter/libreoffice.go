// Package converter turns office documents (docx, pptx, odt, ...) into PDFs
// with headless LibreOffice so the rest of the pipeline only ever sees PDF
// input.
package converter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// LibreOffice is a one-shot `soffice --convert-to pdf` wrapper. Unlike a
// long-running conversion server it pays startup cost per document, which is
// fine at slidecast's volumes.
type LibreOffice struct {
	Binary  string
	Timeout time.Duration
}

// New returns a converter with defaults filled in.
func New(binary string, timeout time.Duration) *LibreOffice {
	if binary == "" {
		binary = "soffice"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &LibreOffice{Binary: binary, Timeout: timeout}
}

// Available reports whether LibreOffice is installed.
func (l *LibreOffice) Available() bool {
	_, err := exec.LookPath(l.Binary)
	return err == nil
}

// ToPDF converts inputPath into a PDF inside outDir and returns the PDF path.
func (l *LibreOffice) ToPDF(ctx context.Context, inputPath, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create conversion dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, l.Binary,
		"--headless", "--norestore", "--convert-to", "pdf",
		"--outdir", outDir, inputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("libreoffice convert: %w: %s", err, msg)
		}
		return "", fmt.Errorf("libreoffice convert: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	pdfPath := filepath.Join(outDir, base+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("converted pdf missing: %w", err)
	}

	log.Info().
		Str("input", inputPath).
		Str("pdf", pdfPath).
		Dur("took", time.Since(start)).
		Msg("converted document to pdf")
	return pdfPath, nil
}
