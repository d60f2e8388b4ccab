package extract

import (
	"fmt"
	"regexp"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// DefaultProbeThreshold is the minimum number of non-whitespace characters a
// sampled page set must yield for the document to count as text-extractable.
const DefaultProbeThreshold = 300

var whitespaceRe = regexp.MustCompile(`\s+`)

// Preflight reports the result of the cheap pre-extraction checks: structural
// validity (pdfcpu) and a sampled text probe (MuPDF).
type Preflight struct {
	TotalPages   int   `json:"total_pages"`
	SampledPages []int `json:"sampled_pages"`
	SampledChars int   `json:"sampled_chars"`
	Threshold    int   `json:"threshold"`
	HasText      bool  `json:"has_text"`
}

// Empty reports whether the probe found no text at all. Only this condition
// rejects a document outright; a non-zero sample below the threshold merely
// flags a likely scanned document, and full extraction makes the final call.
func (p *Preflight) Empty() bool { return p.SampledChars == 0 }

// Check validates the PDF structurally and probes a handful of pages for
// extractable text, so a scanned-image document is flagged before the full
// pipeline spins up. threshold <= 0 selects DefaultProbeThreshold.
func Check(path string, threshold int) (*Preflight, error) {
	if threshold <= 0 {
		threshold = DefaultProbeThreshold
	}

	total, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdf page count: %w", err)
	}

	pf := &Preflight{TotalPages: total, Threshold: threshold}
	if total == 0 {
		return pf, nil
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pf.SampledPages = sampleIndices(total)
	for _, idx := range pf.SampledPages {
		text, err := doc.Text(idx)
		if err != nil {
			log.Warn().Err(err).Int("page", idx+1).Msg("probe page failed")
			continue
		}
		pf.SampledChars += len([]rune(whitespaceRe.ReplaceAllString(text, "")))
		if pf.SampledChars >= threshold {
			break
		}
	}
	pf.HasText = pf.SampledChars >= threshold

	log.Debug().
		Int("pages", total).
		Ints("sampled", pf.SampledPages).
		Int("chars", pf.SampledChars).
		Bool("has_text", pf.HasText).
		Msg("preflight probe")
	return pf, nil
}

// sampleIndices picks first, middle and last page, plus the quarter points
// for longer documents. Deterministic, unlike random sampling, so preflight
// results are reproducible.
func sampleIndices(total int) []int {
	if total <= 5 {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	set := map[int]struct{}{
		0:             {},
		total / 4:     {},
		total / 2:     {},
		3 * total / 4: {},
		total - 1:     {},
	}
	out := make([]int, 0, len(set))
	for i := 0; i < total; i++ {
		if _, ok := set[i]; ok {
			out = append(out, i)
		}
	}
	return out
}
