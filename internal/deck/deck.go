// Package deck assembles the per-slide visuals into a distributable deck PDF
// and writes the narration script as a DOCX document.
package deck

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gomutex/godocx"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/local/slidecast/internal/slides"
)

const (
	scriptFont     = "Calibri"
	scriptFontSize = 12
)

// BuildPDF imports the slide images, in order, as full-size pages of a single
// PDF at outPath.
func BuildPDF(imagePaths []string, outPath string) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("no slide images to assemble")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create deck dir: %w", err)
	}
	if err := api.ImportImagesFile(imagePaths, outPath, nil, nil); err != nil {
		return fmt.Errorf("assemble deck pdf: %w", err)
	}
	log.Info().Int("pages", len(imagePaths)).Str("file", outPath).Msg("assembled deck")
	return nil
}

// WriteScript writes the narration script: one headline plus its note per
// slide, in deck order.
func WriteScript(deck []slides.Slide, title, outPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new docx: %w", err)
	}

	doc.AddParagraph("").AddText(title).Font(scriptFont).Size(16).Bold(true)

	for _, s := range deck {
		heading := fmt.Sprintf("Slide %d: %s", s.Index+1, s.Headline)
		doc.AddParagraph("").AddText(heading).Font(scriptFont).Size(13).Bold(true)
		doc.AddParagraph("").AddText(s.Note).Font(scriptFont).Size(scriptFontSize)
		doc.AddParagraph("")
	}

	if err := doc.SaveTo(outPath); err != nil {
		return fmt.Errorf("save script docx: %w", err)
	}
	log.Info().Int("slides", len(deck)).Str("file", outPath).Msg("wrote narration script")
	return nil
}
