// Package visual renders one PNG card per slide: headline, bullets, page tag
// and a deterministic accent color. A single fixed template, by intent.
package visual

import (
	"crypto/sha1"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/local/slidecast/internal/slides"
)

var (
	background = color.RGBA{R: 250, G: 250, B: 255, A: 255}
	ink        = color.RGBA{R: 28, G: 30, B: 38, A: 255}
	subtleInk  = color.RGBA{R: 110, G: 114, B: 126, A: 255}
)

// Renderer draws slide cards at a fixed size with embedded Go fonts, so the
// output is identical across hosts with no system font dependency.
type Renderer struct {
	width    int
	height   int
	headFace font.Face
	bodyFace font.Face
	footFace font.Face
}

// New builds a renderer for the given card size. Sizes below 640x360 are
// raised to the minimum so text layout cannot degenerate.
func New(width, height int) (*Renderer, error) {
	if width < 640 {
		width = 640
	}
	if height < 360 {
		height = 360
	}

	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}

	scale := float64(height) / 720.0
	headFace, err := newFace(bold, 46*scale)
	if err != nil {
		return nil, err
	}
	bodyFace, err := newFace(regular, 27*scale)
	if err != nil {
		return nil, err
	}
	footFace, err := newFace(regular, 18*scale)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		width:    width,
		height:   height,
		headFace: headFace,
		bodyFace: bodyFace,
		footFace: footFace,
	}, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build font face: %w", err)
	}
	return face, nil
}

// RenderAll writes one card per slide into dir and returns the image paths in
// slide order.
func (r *Renderer) RenderAll(deck []slides.Slide, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create visuals dir: %w", err)
	}
	paths := make([]string, 0, len(deck))
	for _, s := range deck {
		name := fmt.Sprintf("slide_%02d_%s.png", s.Index+1, Slug(s.Headline))
		path := filepath.Join(dir, name)
		if err := r.Render(s, path); err != nil {
			return nil, fmt.Errorf("render slide %d: %w", s.Index, err)
		}
		paths = append(paths, path)
	}
	log.Info().Int("count", len(paths)).Str("dir", dir).Msg("rendered slide visuals")
	return paths, nil
}

// Render draws a single slide card to path.
func (r *Renderer) Render(s slides.Slide, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	margin := r.width / 20
	accent := accentColor(s.Headline)

	// Accent bar down the left edge.
	bar := image.Rect(0, 0, r.width/80, r.height)
	draw.Draw(img, bar, &image.Uniform{C: accent}, image.Point{}, draw.Src)

	maxTextWidth := r.width - 2*margin

	y := margin + faceAscent(r.headFace)
	for _, line := range wrap(s.Headline, r.headFace, maxTextWidth) {
		drawText(img, r.headFace, ink, margin, y, line)
		y += faceHeight(r.headFace)
	}

	// Thin rule under the headline.
	y += faceHeight(r.bodyFace) / 2
	rule := image.Rect(margin, y, margin+maxTextWidth/3, y+2)
	draw.Draw(img, rule, &image.Uniform{C: accent}, image.Point{}, draw.Src)
	y += faceHeight(r.bodyFace)

	for _, b := range s.Bullets {
		lines := wrap(b, r.bodyFace, maxTextWidth-margin/2)
		for i, line := range lines {
			x := margin + margin/2
			if i == 0 {
				drawText(img, r.bodyFace, accent, margin, y, "•")
			}
			drawText(img, r.bodyFace, ink, x, y, line)
			y += faceHeight(r.bodyFace)
			if y > r.height-2*faceHeight(r.bodyFace) {
				break
			}
		}
		y += faceHeight(r.bodyFace) / 3
	}

	footer := fmt.Sprintf("p. %d", s.Section.StartPage)
	drawText(img, r.footFace, subtleInk, r.width-margin-textWidth(r.footFace, footer), r.height-margin/2, footer)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func drawText(dst draw.Image, face font.Face, c color.Color, x, y int, text string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// wrap splits text into lines that fit within maxWidth when drawn with face.
func wrap(text string, face font.Face, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	cur := words[0]
	for _, w := range words[1:] {
		if textWidth(face, cur+" "+w) <= maxWidth {
			cur += " " + w
			continue
		}
		lines = append(lines, cur)
		cur = w
	}
	return append(lines, cur)
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

func faceHeight(face font.Face) int { return face.Metrics().Height.Ceil() }
func faceAscent(face font.Face) int { return face.Metrics().Ascent.Ceil() }

// accentColor derives a stable, reasonably dark color from the headline so
// reruns produce identical cards.
func accentColor(seed string) color.RGBA {
	sum := sha1.Sum([]byte(seed))
	return color.RGBA{
		R: 60 + sum[0]%140,
		G: 60 + sum[1]%140,
		B: 60 + sum[2]%140,
		A: 255,
	}
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a headline into a filesystem-safe name fragment.
func Slug(s string) string {
	out := slugRe.ReplaceAllString(strings.ToLower(s), "-")
	out = strings.Trim(out, "-")
	if out == "" {
		sum := sha1.Sum([]byte(s))
		return fmt.Sprintf("%x", sum[:4])
	}
	if len(out) > 48 {
		out = out[:48]
	}
	return out
}
