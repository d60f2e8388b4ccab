// Package slides runs the content-reduction core end to end: budget
// allocation followed by per-section summarization, producing the ordered
// Slide sequence that every rendering stage downstream consumes.
package slides

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/slidecast/internal/allocate"
	"github.com/local/slidecast/internal/segment"
	"github.com/local/slidecast/internal/summarize"
)

// Slide is the terminal per-section content unit: headline and bullets go on
// the visual, the note becomes the narration script. Index is the zero-based
// position in the deck.
type Slide struct {
	Headline string
	Bullets  []string
	Note     string
	Section  segment.Section
	Index    int
}

// Options bounds the reduction.
type Options struct {
	TargetCount int // requested number of slides
	BulletCap   int // max bullets per slide
	Weights     summarize.Weights
}

// Build maps the sections onto at most opts.TargetCount slides. A returned
// *allocate.BudgetError is advisory: the slides alongside it are complete and
// usable, there are just fewer of them than requested.
func Build(sections []segment.Section, opts Options) ([]Slide, error) {
	allocated, budgetErr := allocate.Allocate(sections, opts.TargetCount)
	if budgetErr != nil {
		var be *allocate.BudgetError
		if !errors.As(budgetErr, &be) {
			return nil, budgetErr
		}
		log.Warn().Int("requested", be.Requested).Int("achieved", be.Achieved).
			Msg("slide budget unreachable, proceeding with fewer slides")
	}

	out := make([]Slide, 0, len(allocated))
	for _, sec := range allocated {
		sum, err := summarize.Summarize(sec, opts.BulletCap, opts.Weights)
		if err != nil {
			if errors.Is(err, summarize.ErrEmptyBody) {
				// Allocate drops empty bodies up front, so this only fires on
				// bodies that are whitespace-only after sentence splitting.
				log.Warn().Str("title", sec.Title).Msg("skipping section with no sentences")
				continue
			}
			return nil, fmt.Errorf("summarize %q: %w", sec.Title, err)
		}
		out = append(out, Slide{
			Headline: sum.Headline,
			Bullets:  sum.Bullets,
			Note:     sum.Note,
			Section:  sec,
			Index:    len(out),
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no summarizable sections in document")
	}
	return out, budgetErr
}
