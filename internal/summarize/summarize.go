// Package summarize reduces a section of document text to a headline, a
// bounded set of bullet sentences and a narration note. Summarization is
// purely extractive: it selects and reorders the section's own sentences and
// never generates new text.
package summarize

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/local/slidecast/internal/segment"
)

// ErrEmptyBody is returned when a section body yields no sentences. Callers
// are expected to drop or merge such sections rather than abort the run.
var ErrEmptyBody = errors.New("section body has no sentences")

// Summary is the reduced form of one section: what goes on the slide and
// what gets spoken over it.
type Summary struct {
	Headline string
	Bullets  []string
	Note     string
}

// Summarize reduces section to a headline, at most bulletCap bullets, and a
// narration note. Bullets keep their original order in the body text; scoring
// decides only which sentences make the cut, never their sequence.
func Summarize(sec segment.Section, bulletCap int, w Weights) (Summary, error) {
	sentences := SplitSentences(sec.Body)
	if len(sentences) == 0 {
		return Summary{}, ErrEmptyBody
	}
	if bulletCap <= 0 {
		bulletCap = 3
	}

	ranked := scoreSentences(sentences, w)

	headline := strings.TrimSpace(sec.Title)
	pool := ranked
	if !usableTitle(headline) {
		// Top sentence stands in for a missing title and leaves the pool so
		// it cannot repeat as a bullet.
		headline = sentences[ranked[0].index]
		pool = ranked[1:]
	}

	if len(pool) > bulletCap {
		pool = pool[:bulletCap]
	}
	picked := make([]int, len(pool))
	for i, s := range pool {
		picked[i] = s.index
	}
	sort.Ints(picked)

	bullets := make([]string, len(picked))
	for i, idx := range picked {
		bullets[i] = sentences[idx]
	}

	var note strings.Builder
	note.WriteString(headline)
	for _, b := range bullets {
		note.WriteByte(' ')
		note.WriteString(b)
	}

	return Summary{Headline: headline, Bullets: bullets, Note: note.String()}, nil
}

// usableTitle rejects empty and purely numeric titles ("3.", "4.2") that say
// nothing on a slide.
func usableTitle(title string) bool {
	if title == "" {
		return false
	}
	for _, r := range title {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
