package summarize

import "strings"

// SplitSentences does rule-based sentence splitting: a sentence ends at
// '.', '!' or '?' followed by whitespace or end of text. Trailing text
// without a terminator still counts as a sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		cur.Reset()
	}

	runes := []rune(strings.TrimSpace(text))
	for i, r := range runes {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				flush()
			}
		}
	}
	flush()

	return sentences
}

// Tokenize lowercases text and splits it into alphanumeric word tokens.
func Tokenize(text string) []string {
	var words []string
	var cur strings.Builder
	for _, r := range strings.ToLower(text) {
		if isWordRune(r) {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '\''
}

// stopwords are excluded from salience scoring; frequency of these words says
// nothing about what a sentence is about.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(
		"a an the and or but if then else when while of to in on at by for " +
			"with without about as into from up down out over under again is " +
			"are was were be been being am do does did doing have has had " +
			"having it its it's this that these those i you he she we they " +
			"them his her their our your my me him us not no nor so than too " +
			"very can will just should now there here what which who whom " +
			"such own same each few more most other some any both all only") {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether a lowercased token carries no topical content.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}
