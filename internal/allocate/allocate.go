// Package allocate maps a requested slide budget onto the segmented sections,
// merging or splitting sections so the deck comes out at the requested count
// whenever the text allows it.
package allocate

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/slidecast/internal/segment"
	"github.com/local/slidecast/internal/summarize"
)

// BudgetError reports that the requested slide count could not be reached
// exactly. It is advisory: the returned sections are the best achievable
// allocation and the run should proceed with them.
type BudgetError struct {
	Requested int
	Achieved  int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("slide budget unreachable: requested %d, achieved %d", e.Requested, e.Achieved)
}

// Allocate resizes sections to exactly target entries. Sections with empty
// bodies are dropped first; they have nothing to summarize. When there are
// too many sections, adjacent pairs with the smallest combined body merge
// until the count matches. When there are too few, the largest sections split
// at the sentence boundary nearest their midpoint. If the target cannot be
// reached (more slides requested than sentences exist), the best achievable
// allocation is returned together with a *BudgetError.
func Allocate(sections []segment.Section, target int) ([]segment.Section, error) {
	if target <= 0 {
		target = 1
	}

	out := make([]segment.Section, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s.Body) == "" {
			log.Debug().Str("title", s.Title).Msg("dropping section with empty body")
			continue
		}
		out = append(out, s)
	}

	for len(out) > target {
		out = mergeSmallest(out)
	}

	for len(out) < target {
		split, ok := splitLargest(out)
		if !ok {
			return out, &BudgetError{Requested: target, Achieved: len(out)}
		}
		out = split
	}

	return out, nil
}

// mergeSmallest joins the adjacent pair whose combined body is shortest,
// keeping document order. The merged section takes the first title and the
// first start page.
func mergeSmallest(sections []segment.Section) []segment.Section {
	best := 0
	bestLen := -1
	for i := 0; i+1 < len(sections); i++ {
		l := len(sections[i].Body) + len(sections[i+1].Body)
		if bestLen < 0 || l < bestLen {
			best, bestLen = i, l
		}
	}

	merged := segment.Section{
		Title:     sections[best].Title,
		Body:      sections[best].Body + " " + sections[best+1].Body,
		StartPage: sections[best].StartPage,
	}
	out := make([]segment.Section, 0, len(sections)-1)
	out = append(out, sections[:best]...)
	out = append(out, merged)
	out = append(out, sections[best+2:]...)
	return out
}

// splitLargest splits the section with the longest body at the sentence
// boundary nearest its midpoint. Only sections with at least two sentences
// can split; returns false when none can.
func splitLargest(sections []segment.Section) ([]segment.Section, bool) {
	best := -1
	bestLen := -1
	for i, s := range sections {
		if len(s.Body) <= bestLen {
			continue
		}
		if len(summarize.SplitSentences(s.Body)) < 2 {
			continue
		}
		best, bestLen = i, len(s.Body)
	}
	if best < 0 {
		return sections, false
	}

	sec := sections[best]
	sentences := summarize.SplitSentences(sec.Body)

	// Pick the boundary whose left half is closest to half the body length.
	mid := len(sec.Body) / 2
	cut := 1
	cum := 0
	bestDist := -1
	for i := 0; i < len(sentences)-1; i++ {
		cum += len(sentences[i]) + 1
		dist := cum - mid
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			cut, bestDist = i+1, dist
		}
	}

	head := segment.Section{
		Title:     sec.Title,
		Body:      strings.Join(sentences[:cut], " "),
		StartPage: sec.StartPage,
	}
	tail := segment.Section{
		Title:     sec.Title + " (cont.)",
		Body:      strings.Join(sentences[cut:], " "),
		StartPage: sec.StartPage,
	}

	out := make([]segment.Section, 0, len(sections)+1)
	out = append(out, sections[:best]...)
	out = append(out, head, tail)
	out = append(out, sections[best+1:]...)
	return out, true
}
