// Package pipeline runs a full slidecast job: ingest, segment, allocate,
// summarize, then render visuals, deck, narration and video. The content
// reduction stages are synchronous and share nothing but the immutable
// slices they pass forward.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/slidecast/internal/allocate"
	"github.com/local/slidecast/internal/config"
	"github.com/local/slidecast/internal/converter"
	"github.com/local/slidecast/internal/deck"
	"github.com/local/slidecast/internal/extract"
	"github.com/local/slidecast/internal/filetype"
	"github.com/local/slidecast/internal/limiter"
	"github.com/local/slidecast/internal/metrics"
	"github.com/local/slidecast/internal/segment"
	"github.com/local/slidecast/internal/slides"
	"github.com/local/slidecast/internal/summarize"
	"github.com/local/slidecast/internal/tts"
	"github.com/local/slidecast/internal/video"
	"github.com/local/slidecast/internal/visual"
)

// Request describes one render job.
type Request struct {
	Input      string // path to the source document
	SlideCount int    // requested slide budget; 0 uses the configured default
	OutDir     string

	// OnProgress, when set, receives coarse stage updates for status stores.
	OnProgress func(stage string, percent int)
}

// Result is everything a run produced.
type Result struct {
	RunID           string         `json:"run_id"`
	Requested       int            `json:"requested_slides"`
	Produced        int            `json:"produced_slides"`
	BudgetShortfall bool           `json:"budget_shortfall"`
	Slides          []slides.Slide `json:"-"`
	ImagePaths      []string       `json:"image_paths"`
	DeckPath        string         `json:"deck_path"`
	ScriptPath      string         `json:"script_path"`
	VideoPath       string         `json:"video_path,omitempty"`
	AudioDir        string         `json:"audio_dir,omitempty"`
	Runtime         time.Duration  `json:"-"` // estimated video length
}

// Pipeline wires the stages with shared configuration. The gate bounds
// concurrent runs of the heavy external tools when several queue workers
// share one host.
type Pipeline struct {
	cfg  config.Config
	gate *limiter.Gate
}

func New(cfg config.Config) *Pipeline {
	return &Pipeline{cfg: cfg, gate: limiter.New(cfg.Worker.EncodeMaxInflight)}
}

// Run executes the whole pipeline for one document. Fatal errors abort the
// run; an unreachable slide budget does not, it is reported in the result.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	target := req.SlideCount
	if target <= 0 {
		target = p.cfg.Pipeline.SlideCount
	}
	if req.OutDir == "" {
		req.OutDir = "out"
	}
	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	res := &Result{RunID: runID, Requested: target}
	lg := log.With().Str("run_id", runID).Str("input", req.Input).Logger()
	lg.Info().Int("slides", target).Msg("run started")

	report := func(stage string, pct int) {
		if req.OnProgress != nil {
			req.OnProgress(stage, pct)
		}
	}

	// Ingest: sniff the input and convert office documents to PDF.
	report("ingest", 5)
	pdfPath, err := p.ingest(ctx, req.Input, req.OutDir)
	if err != nil {
		metrics.IncRun("failed")
		return nil, err
	}

	// Core reduction.
	report("extract", 15)
	var pages []extract.Page
	err = timed("extract", func() error {
		pf, err := extract.Check(pdfPath, p.cfg.Pipeline.Tuning.ProbeThreshold)
		if err != nil {
			return err
		}
		if pf.Empty() {
			return fmt.Errorf("%w: no text on %d sampled pages",
				extract.ErrEmptyDocument, len(pf.SampledPages))
		}
		if !pf.HasText {
			// Below the density threshold but not blank. Short valid
			// documents land here; let full extraction decide.
			lg.Warn().Int("chars", pf.SampledChars).Int("threshold", pf.Threshold).
				Msg("low sampled text density, document may be scanned")
		}
		pages, err = extract.New().Pages(pdfPath)
		return err
	})
	if err != nil {
		metrics.IncRun("failed")
		return nil, err
	}

	report("segment", 30)
	var sections []segment.Section
	err = timed("segment", func() error {
		det := segment.NewHeuristicDetector(p.cfg.Pipeline.Tuning.HeadingMaxWords)
		sections, err = segment.Segment(pages, det)
		return err
	})
	if err != nil {
		metrics.IncRun("failed")
		return nil, err
	}

	report("summarize", 45)
	var built []slides.Slide
	err = timed("summarize", func() error {
		built, err = slides.Build(sections, slides.Options{
			TargetCount: target,
			BulletCap:   p.cfg.Pipeline.BulletCap,
			Weights:     p.weights(),
		})
		return err
	})
	var budgetErr *allocate.BudgetError
	if errors.As(err, &budgetErr) {
		res.BudgetShortfall = true
		metrics.IncBudgetUnreachable()
	} else if err != nil {
		metrics.IncRun("failed")
		return nil, err
	}
	res.Slides = built
	res.Produced = len(built)
	metrics.ObserveSlides(len(built))

	// Rendering stages.
	report("visuals", 60)
	err = timed("visuals", func() error {
		r, err := visual.New(p.cfg.Visual.Width, p.cfg.Visual.Height)
		if err != nil {
			return err
		}
		res.ImagePaths, err = r.RenderAll(built, filepath.Join(req.OutDir, "visuals"))
		return err
	})
	if err != nil {
		metrics.IncRun("failed")
		return nil, err
	}

	report("deck", 70)
	err = timed("deck", func() error {
		res.DeckPath = filepath.Join(req.OutDir, "deck.pdf")
		if err := deck.BuildPDF(res.ImagePaths, res.DeckPath); err != nil {
			return err
		}
		res.ScriptPath = filepath.Join(req.OutDir, "script.docx")
		title := filepath.Base(req.Input)
		return deck.WriteScript(built, title, res.ScriptPath)
	})
	if err != nil {
		metrics.IncRun("failed")
		return nil, err
	}

	report("narration", 80)
	audioPaths := make([]string, len(built))
	engine := tts.New(p.cfg.TTS.Binary, p.cfg.TTS.Voice, p.cfg.TTS.RateWPM, p.cfg.TTS.Timeout)
	if p.cfg.TTS.Enabled && engine.Available() {
		err = timed("narration", func() error {
			res.AudioDir = filepath.Join(req.OutDir, "audio")
			audioPaths, err = engine.SynthesizeAll(ctx, built, res.AudioDir)
			return err
		})
		if err != nil {
			metrics.IncRun("failed")
			return nil, err
		}
	} else {
		lg.Warn().Str("binary", p.cfg.TTS.Binary).Msg("tts unavailable, slides will be silent")
	}

	res.Runtime = video.TotalDuration(audioPaths, p.cfg.Video.SlideSeconds)

	report("video", 90)
	asm := video.New(p.cfg.Video.FFmpegBinary, p.cfg.Video.FPS, p.cfg.Video.SlideSeconds, p.cfg.Video.EncodeTimeout)
	asm.MusicFile = p.cfg.Video.MusicFile
	asm.MusicVolume = p.cfg.Video.MusicVolume
	if asm.Available() {
		err = timed("video", func() error {
			if err := p.gate.Acquire(ctx, "ffmpeg"); err != nil {
				return err
			}
			defer p.gate.Release("ffmpeg")
			res.VideoPath = filepath.Join(req.OutDir, "presentation.mp4")
			return asm.Build(ctx, res.ImagePaths, audioPaths, filepath.Join(req.OutDir, "segments"), res.VideoPath)
		})
		if err != nil {
			metrics.IncRun("failed")
			return nil, err
		}
	} else {
		lg.Warn().Str("binary", p.cfg.Video.FFmpegBinary).Msg("ffmpeg unavailable, skipping video")
	}

	report("done", 100)
	metrics.IncRun("success")
	lg.Info().
		Int("requested", res.Requested).
		Int("produced", res.Produced).
		Bool("budget_shortfall", res.BudgetShortfall).
		Dur("runtime", res.Runtime).
		Msg("run finished")
	return res, nil
}

// ingest resolves the input to a local PDF path, converting office formats.
func (p *Pipeline) ingest(ctx context.Context, input, outDir string) (string, error) {
	info, err := filetype.Detect(input)
	if err != nil {
		return "", err
	}
	switch info.Kind {
	case filetype.KindPDF:
		return input, nil
	case filetype.KindOffice:
		lo := converter.New(p.cfg.Converter.Binary, p.cfg.Converter.Timeout)
		if !lo.Available() {
			return "", fmt.Errorf("input needs pdf conversion but libreoffice is not installed: %s", info.Description)
		}
		if err := p.gate.Acquire(ctx, "soffice"); err != nil {
			return "", err
		}
		defer p.gate.Release("soffice")
		return lo.ToPDF(ctx, input, filepath.Join(outDir, "converted"))
	default:
		return "", fmt.Errorf("unsupported input: %s", info.Description)
	}
}

func (p *Pipeline) weights() summarize.Weights {
	t := p.cfg.Pipeline.Tuning
	return summarize.Weights{
		Position: t.PositionWeight,
		Salience: t.SalienceWeight,
		Length:   t.LengthWeight,
		IdealLen: t.IdealSentenceLen,
	}
}

func timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveStage(stage, time.Since(start))
	return err
}
