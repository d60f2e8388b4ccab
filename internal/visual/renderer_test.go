package visual

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/local/slidecast/internal/segment"
	"github.com/local/slidecast/internal/slides"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Background and Motivation", "background-and-motivation"},
		{"2.1 Data Collection", "2-1-data-collection"},
		{"  spaced   out  ", "spaced-out"},
	}
	for _, c := range cases {
		if got := Slug(c.in); got != c.want {
			t.Errorf("Slug(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	// Headlines with no usable characters still get a stable non-empty name.
	a, b := Slug("!!!"), Slug("!!!")
	if a == "" || a != b {
		t.Errorf("fallback slug unstable: %q vs %q", a, b)
	}
}

func TestAccentColorDeterministic(t *testing.T) {
	if accentColor("Results") != accentColor("Results") {
		t.Error("accent color must be stable per headline")
	}
	if accentColor("Results") == accentColor("Methods") {
		t.Error("different headlines should rarely collide; these do")
	}
}

func TestWrap(t *testing.T) {
	r, err := New(1280, 720)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lines := wrap("a headline long enough that it cannot possibly fit on one rendered line at this width", r.headFace, 400)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %d line(s)", len(lines))
	}
	for _, l := range lines {
		if textWidth(r.headFace, l) > 400 {
			t.Errorf("wrapped line still too wide: %q", l)
		}
	}
}

func TestRenderAllWritesOrderedPNGs(t *testing.T) {
	r, err := New(640, 360)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	deck := []slides.Slide{
		{Headline: "First Slide", Bullets: []string{"one point", "another point"}, Index: 0,
			Section: segment.Section{StartPage: 1}},
		{Headline: "Second Slide", Bullets: []string{"closing point"}, Index: 1,
			Section: segment.Section{StartPage: 4}},
	}

	dir := t.TempDir()
	paths, err := r.RenderAll(deck, dir)
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 images, got %d", len(paths))
	}
	for i, p := range paths {
		if filepath.Dir(p) != dir {
			t.Errorf("image %d outside target dir: %s", i, p)
		}
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if info.Size() == 0 {
			t.Errorf("image %d is empty", i)
		}
	}
	if filepath.Base(paths[0]) >= filepath.Base(paths[1]) {
		t.Errorf("image names not in slide order: %v", paths)
	}
}
