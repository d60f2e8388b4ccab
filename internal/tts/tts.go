// Package tts synthesizes per-slide narration audio by shelling out to an
// offline speech engine (espeak-ng by default). Slides are narrated from
// their note text, one WAV per slide.
package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/slidecast/internal/slides"
)

// Engine wraps the external speech binary.
type Engine struct {
	Binary  string
	Voice   string
	RateWPM int
	Timeout time.Duration
}

// New returns an engine with defaults filled in.
func New(binary, voice string, rateWPM int, timeout time.Duration) *Engine {
	if binary == "" {
		binary = "espeak-ng"
	}
	if rateWPM <= 0 {
		rateWPM = 150
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Engine{Binary: binary, Voice: voice, RateWPM: rateWPM, Timeout: timeout}
}

// Available reports whether the speech binary is on PATH.
func (e *Engine) Available() bool {
	_, err := exec.LookPath(e.Binary)
	return err == nil
}

// SynthesizeAll writes one WAV per slide into dir and returns the audio paths
// in slide order. A slide with an empty note gets an empty path; the video
// stage substitutes a fixed still duration for those.
func (e *Engine) SynthesizeAll(ctx context.Context, deck []slides.Slide, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	paths := make([]string, len(deck))
	for i, s := range deck {
		if strings.TrimSpace(s.Note) == "" {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("slide_%02d.wav", s.Index+1))
		if err := e.synthesize(ctx, s.Note, path); err != nil {
			return nil, fmt.Errorf("synthesize slide %d: %w", s.Index+1, err)
		}
		paths[i] = path
	}
	log.Info().Int("clips", len(deck)).Str("dir", dir).Msg("synthesized narration")
	return paths, nil
}

func (e *Engine) synthesize(ctx context.Context, text, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	args := []string{"-s", strconv.Itoa(e.RateWPM), "-w", outPath}
	if e.Voice != "" {
		args = append(args, "-v", e.Voice)
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, e.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", e.Binary, err, msg)
		}
		return fmt.Errorf("%s: %w", e.Binary, err)
	}
	return nil
}
