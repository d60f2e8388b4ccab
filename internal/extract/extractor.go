// Package extract pulls raw per-page text out of a PDF using go-fitz (MuPDF)
// and cleans common print artifacts before segmentation sees the text.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// ErrEmptyDocument is returned when the PDF yields no extractable text at all.
var ErrEmptyDocument = errors.New("no extractable text in document")

// Page is one physical page of the source document. Pages are produced once,
// ordered by Number (1-based), and never mutated afterwards.
type Page struct {
	Number int
	Text   string
}

// Extractor reads page text through MuPDF.
type Extractor struct{}

func New() *Extractor { return &Extractor{} }

// PageCount returns the number of pages in the PDF.
func (e *Extractor) PageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// Pages extracts and cleans text for every page. Pages that fail to extract
// are kept with empty text so page numbering stays aligned with the source.
// Returns ErrEmptyDocument when the whole document is blank.
func (e *Extractor) Pages(path string) ([]Page, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	pages := make([]Page, 0, total)
	chars := 0
	for i := 0; i < total; i++ {
		raw, err := doc.Text(i)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("page text extraction failed")
			raw = ""
		}
		text := cleanText(raw, i+1)
		chars += len(text)
		pages = append(pages, Page{Number: i + 1, Text: text})
	}

	if strings.TrimSpace(joinPages(pages)) == "" {
		return nil, ErrEmptyDocument
	}

	log.Debug().Int("pages", total).Int("chars", chars).Msg("extracted document text")
	return pages, nil
}

func joinPages(pages []Page) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(p.Text)
	}
	return b.String()
}

// cleanText drops page-number lines, short header/footer boilerplate and
// symbol-only noise, then rejoins sentences broken by hard line wraps.
func cleanText(text string, pageNum int) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isPageNumber(trimmed, pageNum) || isBoilerplate(trimmed) || isNoise(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.TrimSpace(fixBrokenLines(kept))
}

func isPageNumber(line string, pageNum int) bool {
	if line == fmt.Sprintf("%d", pageNum) {
		return true
	}
	for _, p := range []string{
		fmt.Sprintf("Page %d", pageNum),
		fmt.Sprintf("- %d -", pageNum),
		fmt.Sprintf("[%d]", pageNum),
	} {
		if strings.EqualFold(line, p) {
			return true
		}
	}
	return false
}

var boilerplate = []string{"CONFIDENTIAL", "COPYRIGHT", "ALL RIGHTS RESERVED", "PROPRIETARY", "DRAFT"}

func isBoilerplate(line string) bool {
	if len(line) >= 100 {
		return false
	}
	upper := strings.ToUpper(line)
	for _, p := range boilerplate {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}

func isNoise(line string) bool {
	for _, r := range line {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// fixBrokenLines merges a line into the next when it lacks sentence-ending
// punctuation and the next line starts lower-case, which is how hard-wrapped
// prose comes out of MuPDF.
func fixBrokenLines(lines []string) string {
	var fixed []string
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		for i+1 < len(lines) && shouldJoin(line, lines[i+1]) {
			line = line + " " + lines[i+1]
			i++
		}
		fixed = append(fixed, line)
	}
	return strings.Join(fixed, "\n")
}

func shouldJoin(cur, next string) bool {
	if cur == "" || next == "" {
		return false
	}
	last := cur[len(cur)-1]
	switch last {
	case '.', '!', '?', ':', ';':
		return false
	}
	if strings.HasSuffix(cur, "-") {
		return false
	}
	first := next[0]
	return first >= 'a' && first <= 'z'
}
