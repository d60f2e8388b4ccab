package segment

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/local/slidecast/internal/extract"
)

// ImplicitTitle names the section that collects text found before the first
// detected heading. A document with no headings at all becomes a single
// section under this title.
const ImplicitTitle = "Introduction"

// Section is a contiguous, titled span of extracted document text.
// Sections are non-overlapping and ordered by StartPage. Body may be empty
// when a heading is not followed by any text before the next heading.
type Section struct {
	Title     string
	Body      string
	StartPage int
}

// HeadingDetector classifies a single trimmed line as a section heading.
// It is an interface so alternative classifiers (font metadata, a model)
// can replace the lexical heuristic without touching Segment.
type HeadingDetector interface {
	IsHeading(line string) bool
}

var numberedPrefix = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+\S`)

// HeuristicDetector flags short lines without terminal punctuation that look
// like titles: numbered ("2. Methods"), ALL CAPS, or mostly capitalized words.
type HeuristicDetector struct {
	MaxWords int // lines with more words are never headings
}

// NewHeuristicDetector returns a detector with the given word limit,
// falling back to the default of 6 for non-positive values.
func NewHeuristicDetector(maxWords int) *HeuristicDetector {
	if maxWords <= 0 {
		maxWords = 6
	}
	return &HeuristicDetector{MaxWords: maxWords}
}

func (d *HeuristicDetector) IsHeading(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	words := strings.Fields(line)
	if len(words) > d.MaxWords {
		return false
	}
	if hasTerminalPunct(line) {
		return false
	}
	if numberedPrefix.MatchString(line) {
		return true
	}
	if isAllCaps(line) {
		return true
	}
	// Title case: at least half the words start with an upper-case letter.
	caps := 0
	for _, w := range words {
		r := []rune(w)
		if unicode.IsUpper(r[0]) {
			caps++
		}
	}
	min := len(words) / 2
	if min < 1 {
		min = 1
	}
	return caps >= min
}

func hasTerminalPunct(line string) bool {
	r := []rune(line)
	switch r[len(r)-1] {
	case '.', '!', '?', ',', ';', ':':
		return true
	}
	return false
}

func isAllCaps(line string) bool {
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

// Segment scans the page-ordered text stream and splits it into titled
// sections. Each heading candidate starts a new section; lines until the next
// candidate become its body. Text preceding the first heading is emitted as an
// implicit "Introduction" section when non-empty. Headings with no following
// body are retained with an empty body.
func Segment(pages []extract.Page, det HeadingDetector) ([]Section, error) {
	if det == nil {
		det = NewHeuristicDetector(0)
	}

	var sections []Section
	cur := Section{Title: ImplicitTitle, StartPage: 1}
	implicit := true
	var body strings.Builder

	flush := func() {
		cur.Body = strings.TrimSpace(body.String())
		// The implicit lead-in is only worth keeping if it collected text;
		// detected headings are kept even with an empty body.
		if !implicit || cur.Body != "" {
			sections = append(sections, cur)
		}
		body.Reset()
	}

	for _, page := range pages {
		for _, line := range strings.Split(page.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if det.IsHeading(line) {
				flush()
				cur = Section{Title: line, StartPage: page.Number}
				implicit = false
				continue
			}
			if body.Len() > 0 {
				body.WriteByte(' ')
			}
			body.WriteString(line)
		}
	}
	flush()

	if len(sections) == 0 {
		return nil, extract.ErrEmptyDocument
	}
	log.Debug().Int("sections", len(sections)).Msg("segmented document")
	return sections, nil
}
