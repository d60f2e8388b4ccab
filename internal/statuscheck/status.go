// Package statuscheck aggregates readiness probes for the external tools and
// services a render run may touch. The server surfaces the summary at /ready.
package statuscheck

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// Pinger models the minimal connectivity check for redis and s3 clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker bundles the probes. Nil fields mark subsystems as unconfigured.
type Checker struct {
	redis      Pinger
	s3         Pinger
	ttsBinary  string
	ffmpegBin  string
	sofficeBin string
}

// Options configures the Checker.
type Options struct {
	Redis     Pinger
	S3        Pinger
	TTSBinary string
	FFmpeg    string
	Soffice   string
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Redis       Status `json:"redis"`
	S3          Status `json:"s3"`
	TTS         Status `json:"tts"`
	FFmpeg      Status `json:"ffmpeg"`
	LibreOffice Status `json:"libreoffice"`
}

// OK reports whether the subsystems required for basic operation are up.
// S3 and LibreOffice are optional features and do not gate readiness.
func (s Summary) OK() bool { return s.Redis.OK && s.FFmpeg.OK }

// New creates a Checker with the provided options.
func New(opts Options) *Checker {
	tts := opts.TTSBinary
	if tts == "" {
		tts = "espeak-ng"
	}
	ffmpeg := opts.FFmpeg
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	soffice := opts.Soffice
	if soffice == "" {
		soffice = "soffice"
	}
	return &Checker{
		redis:      opts.Redis,
		s3:         opts.S3,
		ttsBinary:  tts,
		ffmpegBin:  ffmpeg,
		sofficeBin: soffice,
	}
}

// Summary returns the current readiness snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Redis:       c.checkPinger(ctx, c.redis, 2*time.Second),
		S3:          c.checkPinger(ctx, c.s3, 5*time.Second),
		TTS:         checkBinary(c.ttsBinary),
		FFmpeg:      checkBinary(c.ffmpegBin),
		LibreOffice: checkBinary(c.sofficeBin),
	}
}

func (c *Checker) checkPinger(ctx context.Context, p Pinger, timeout time.Duration) Status {
	if p == nil {
		return Status{OK: false, Message: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "connected"}
}

func checkBinary(name string) Status {
	if _, err := exec.LookPath(name); err != nil {
		return Status{OK: false, Message: "binary not found"}
	}
	return Status{OK: true, Message: "available"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
