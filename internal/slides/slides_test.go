package slides

import (
	"errors"
	"testing"

	"github.com/local/slidecast/internal/allocate"
	"github.com/local/slidecast/internal/segment"
	"github.com/local/slidecast/internal/summarize"
)

func opts(target int) Options {
	return Options{TargetCount: target, BulletCap: 3, Weights: summarize.DefaultWeights()}
}

func TestBuild_ProducesOrderedSlides(t *testing.T) {
	sections := []segment.Section{
		{Title: "Intro", Body: "The system turns documents into decks. Each section becomes a slide.", StartPage: 1},
		{Title: "Design", Body: "Stages run in a fixed order. Each stage owns one artifact.", StartPage: 2},
		{Title: "Results", Body: "Throughput met the target. Latency stayed within bounds.", StartPage: 3},
	}
	out, err := Build(sections, opts(3))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(out))
	}
	for i, s := range out {
		if s.Index != i {
			t.Errorf("slide %d has index %d", i, s.Index)
		}
		if s.Headline == "" || s.Note == "" {
			t.Errorf("slide %d incomplete: %+v", i, s)
		}
		if len(s.Bullets) == 0 || len(s.Bullets) > 3 {
			t.Errorf("slide %d bullet count %d out of range", i, len(s.Bullets))
		}
	}
	if out[0].Section.StartPage > out[2].Section.StartPage {
		t.Error("slides out of document order")
	}
}

func TestBuild_BudgetShortfallStillReturnsSlides(t *testing.T) {
	sections := []segment.Section{
		{Title: "Only", Body: "A single sentence cannot fill five slides.", StartPage: 1},
	}
	out, err := Build(sections, opts(5))
	var be *allocate.BudgetError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BudgetError, got %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected the achievable slide alongside the error, got %d", len(out))
	}
	if out[0].Headline != "Only" {
		t.Errorf("headline = %q", out[0].Headline)
	}
}

func TestBuild_ThreeSectionsThreeSlidesTwoBullets(t *testing.T) {
	sections := []segment.Section{
		{Title: "Introduction", Body: "The pipeline reduces documents. It is deterministic. It never invents text.", StartPage: 1},
		{Title: "Methods", Body: "Sections are detected by headings. Budgets are met by merging or splitting. Scores pick the bullets.", StartPage: 2},
		{Title: "Conclusion", Body: "The approach works well. Future work remains.", StartPage: 3},
	}
	out, err := Build(sections, Options{TargetCount: 3, BulletCap: 2, Weights: summarize.DefaultWeights()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(out))
	}
	for i, s := range out {
		if len(s.Bullets) > 2 {
			t.Errorf("slide %d has %d bullets, cap is 2", i, len(s.Bullets))
		}
	}
}

func TestBuild_UnheadedParagraphSingleSlide(t *testing.T) {
	// Ten sentences, no structure, budget of one: everything collapses into a
	// single slide with the bullet cap still honored.
	body := "Sentence one sets the scene. Sentence two adds detail. Sentence three elaborates. " +
		"Sentence four continues. Sentence five digresses. Sentence six returns. " +
		"Sentence seven recaps. Sentence eight narrows. Sentence nine concludes. Sentence ten closes."
	sections := []segment.Section{{Title: segment.ImplicitTitle, Body: body, StartPage: 1}}

	out, err := Build(sections, opts(1))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 slide, got %d", len(out))
	}
	if out[0].Headline != segment.ImplicitTitle {
		t.Errorf("headline = %q", out[0].Headline)
	}
	if len(out[0].Bullets) != 3 {
		t.Errorf("expected bullet cap of 3, got %d", len(out[0].Bullets))
	}
}

func TestBuild_NothingSummarizable(t *testing.T) {
	sections := []segment.Section{
		{Title: "Empty", Body: "", StartPage: 1},
	}
	if _, err := Build(sections, opts(2)); err == nil {
		t.Fatal("expected error for document with no summarizable sections")
	}
}
