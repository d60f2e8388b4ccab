// Package video muxes slide images and narration clips into the final MP4
// with ffmpeg: one still segment per slide, concatenated, with optional
// background music mixed underneath the narration.
package video

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Assembler drives ffmpeg.
type Assembler struct {
	Binary       string
	FPS          int
	SlideSeconds int     // duration for slides without narration
	MusicFile    string  // optional background track
	MusicVolume  float64 // 0..1, applied to the background track
	Timeout      time.Duration
}

// New returns an assembler with defaults filled in.
func New(binary string, fps, slideSeconds int, timeout time.Duration) *Assembler {
	if binary == "" {
		binary = "ffmpeg"
	}
	if fps <= 0 {
		fps = 24
	}
	if slideSeconds <= 0 {
		slideSeconds = 6
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Assembler{Binary: binary, FPS: fps, SlideSeconds: slideSeconds, Timeout: timeout}
}

// Available reports whether ffmpeg is on PATH.
func (a *Assembler) Available() bool {
	_, err := exec.LookPath(a.Binary)
	return err == nil
}

// Build renders outPath from parallel slices of image and audio paths.
// audioPaths may contain empty entries for silent slides. workDir holds the
// intermediate per-slide segments.
func (a *Assembler) Build(ctx context.Context, imagePaths, audioPaths []string, workDir, outPath string) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("no slide images")
	}
	if len(audioPaths) != len(imagePaths) {
		return fmt.Errorf("image/audio count mismatch: %d vs %d", len(imagePaths), len(audioPaths))
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create video workdir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	segments := make([]string, len(imagePaths))
	for i := range imagePaths {
		seg := filepath.Join(workDir, fmt.Sprintf("seg_%02d.mp4", i+1))
		if err := a.buildSegment(ctx, imagePaths[i], audioPaths[i], seg); err != nil {
			return fmt.Errorf("segment %d: %w", i+1, err)
		}
		segments[i] = seg
	}

	joined := outPath
	if a.MusicFile != "" {
		joined = filepath.Join(workDir, "joined.mp4")
	}
	if err := a.concat(ctx, segments, workDir, joined); err != nil {
		return fmt.Errorf("concat segments: %w", err)
	}

	if a.MusicFile != "" {
		if err := a.mixMusic(ctx, joined, outPath); err != nil {
			return fmt.Errorf("mix background music: %w", err)
		}
	}

	log.Info().Int("slides", len(segments)).Str("file", outPath).Msg("assembled video")
	return nil
}

// buildSegment loops the still image for the narration duration (or the fixed
// still duration when there is no audio) and encodes a uniform H.264/AAC
// segment so concat can stream-copy.
func (a *Assembler) buildSegment(ctx context.Context, imagePath, audioPath, outPath string) error {
	args := []string{"-y", "-loop", "1", "-i", imagePath}

	if audioPath != "" {
		args = append(args, "-i", audioPath, "-shortest")
	} else {
		// Silent slides still need an audio stream for uniform concat.
		args = append(args,
			"-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
			"-t", strconv.Itoa(a.SlideSeconds),
		)
	}

	args = append(args,
		"-r", strconv.Itoa(a.FPS),
		"-c:v", "libx264", "-tune", "stillimage", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-b:a", "192k", "-ar", "44100", "-ac", "2",
		outPath,
	)
	return a.run(ctx, args)
}

func (a *Assembler) concat(ctx context.Context, segments []string, workDir, outPath string) error {
	list := filepath.Join(workDir, "concat.txt")
	var b strings.Builder
	for _, seg := range segments {
		abs, err := filepath.Abs(seg)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "file '%s'\n", abs)
	}
	if err := os.WriteFile(list, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	return a.run(ctx, []string{
		"-y", "-f", "concat", "-safe", "0", "-i", list, "-c", "copy", outPath,
	})
}

func (a *Assembler) mixMusic(ctx context.Context, inPath, outPath string) error {
	vol := a.MusicVolume
	if vol <= 0 || vol > 1 {
		vol = 0.08
	}
	filter := fmt.Sprintf("[1:a]volume=%.3f[m];[0:a][m]amix=inputs=2:duration=first[a]", vol)
	return a.run(ctx, []string{
		"-y", "-i", inPath, "-stream_loop", "-1", "-i", a.MusicFile,
		"-filter_complex", filter,
		"-map", "0:v", "-map", "[a]",
		"-c:v", "copy", "-c:a", "aac", "-b:a", "192k",
		outPath,
	})
}

func (a *Assembler) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, a.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 500 {
			msg = msg[len(msg)-500:]
		}
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", a.Binary, err, msg)
		}
		return fmt.Errorf("%s: %w", a.Binary, err)
	}
	return nil
}

// TotalDuration estimates the assembled video length: the narration clip
// duration per voiced slide, the fixed still duration per silent slide or
// when a clip header cannot be read.
func TotalDuration(audioPaths []string, slideSeconds int) time.Duration {
	if slideSeconds <= 0 {
		slideSeconds = 6
	}
	var total time.Duration
	for _, p := range audioPaths {
		if p != "" {
			if d, err := WAVDuration(p); err == nil {
				total += d
				continue
			}
		}
		total += time.Duration(slideSeconds) * time.Second
	}
	return total
}

// WAVDuration reads a PCM WAV header and returns the clip duration. ffmpeg
// itself derives segment timing from the stream; this only feeds the runtime
// estimate reported alongside run results.
func WAVDuration(path string) (time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, fmt.Errorf("not a wav file: %s", path)
	}

	// Walk chunks for fmt (byte rate) and data (payload size).
	var byteRate uint32
	var dataSize uint32
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + 8
		switch id {
		case "fmt ":
			if body+16 <= len(data) {
				byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
			}
		case "data":
			dataSize = size
		}
		off = body + int(size)
		if size%2 == 1 {
			off++
		}
	}
	if byteRate == 0 || dataSize == 0 {
		return 0, fmt.Errorf("malformed wav header: %s", path)
	}
	secs := float64(dataSize) / float64(byteRate)
	return time.Duration(secs * float64(time.Second)), nil
}
