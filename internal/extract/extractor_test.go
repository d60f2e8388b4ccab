package extract

import (
	"strings"
	"testing"
)

func TestCleanText_DropsPageArtifacts(t *testing.T) {
	raw := strings.Join([]string{
		"Page 3",
		"CONFIDENTIAL - internal use only",
		"Real content stays on the page.",
		"- 3 -",
		"***",
		"3",
	}, "\n")
	got := cleanText(raw, 3)
	if got != "Real content stays on the page." {
		t.Errorf("cleanText = %q", got)
	}
}

func TestCleanText_RejoinsHardWrappedProse(t *testing.T) {
	raw := "The extraction stage reads every page and\nnormalizes whitespace before anything\ndownstream runs."
	got := cleanText(raw, 1)
	if strings.Contains(got, "\n") {
		t.Errorf("hard-wrapped prose not rejoined: %q", got)
	}
	if !strings.Contains(got, "every page and normalizes") {
		t.Errorf("join lost words: %q", got)
	}
}

func TestCleanText_KeepsHeadingsOnOwnLines(t *testing.T) {
	// A heading followed by a capitalized sentence must not merge into it.
	raw := "Results\nThe experiment concluded on schedule."
	got := cleanText(raw, 1)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 || lines[0] != "Results" {
		t.Errorf("heading merged into body: %q", got)
	}
}

func TestIsPageNumber(t *testing.T) {
	cases := []struct {
		line string
		page int
		want bool
	}{
		{"7", 7, true},
		{"Page 7", 7, true},
		{"page 7", 7, true},
		{"- 7 -", 7, true},
		{"[7]", 7, true},
		{"7", 8, false},
		{"Chapter 7", 7, false},
	}
	for _, c := range cases {
		if got := isPageNumber(c.line, c.page); got != c.want {
			t.Errorf("isPageNumber(%q, %d) = %v, want %v", c.line, c.page, got, c.want)
		}
	}
}

func TestIsNoise(t *testing.T) {
	if !isNoise("....___---") {
		t.Error("symbol run should be noise")
	}
	if isNoise("a.") {
		t.Error("line with a letter is not noise")
	}
}

func TestShouldJoin(t *testing.T) {
	cases := []struct {
		cur, next string
		want      bool
	}{
		{"broken mid sentence and", "continues here", true},
		{"complete sentence.", "next paragraph", false},
		{"hyphen-", "ated word", false},
		{"runs into", "Capitalized start", false},
	}
	for _, c := range cases {
		if got := shouldJoin(c.cur, c.next); got != c.want {
			t.Errorf("shouldJoin(%q, %q) = %v, want %v", c.cur, c.next, got, c.want)
		}
	}
}
