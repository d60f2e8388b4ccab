package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Pipeline.SlideCount != 8 {
		t.Errorf("SlideCount = %d, want 8", cfg.Pipeline.SlideCount)
	}
	if cfg.Pipeline.BulletCap != 3 {
		t.Errorf("BulletCap = %d, want 3", cfg.Pipeline.BulletCap)
	}
	if cfg.Pipeline.Tuning.SalienceWeight != 0.5 {
		t.Errorf("SalienceWeight = %v, want 0.5", cfg.Pipeline.Tuning.SalienceWeight)
	}
	if cfg.TTS.RateWPM != 150 {
		t.Errorf("RateWPM = %d, want 150", cfg.TTS.RateWPM)
	}
	if cfg.Video.FPS != 24 {
		t.Errorf("FPS = %d, want 24", cfg.Video.FPS)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SLIDE_COUNT", "12")
	t.Setenv("HEADING_MAX_WORDS", "8")
	t.Setenv("VIDEO_MUSIC_VOLUME", "0.2")
	t.Setenv("SOFFICE_BINARY", "libreoffice")
	cfg := FromEnv()
	if cfg.Pipeline.SlideCount != 12 {
		t.Errorf("SlideCount = %d, want 12", cfg.Pipeline.SlideCount)
	}
	if cfg.Pipeline.Tuning.HeadingMaxWords != 8 {
		t.Errorf("HeadingMaxWords = %d, want 8", cfg.Pipeline.Tuning.HeadingMaxWords)
	}
	if cfg.Video.MusicVolume != 0.2 {
		t.Errorf("MusicVolume = %v, want 0.2", cfg.Video.MusicVolume)
	}
	if cfg.Converter.Binary != "libreoffice" {
		t.Errorf("Converter.Binary = %q, want libreoffice", cfg.Converter.Binary)
	}
}

func TestTuningOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	yaml := "salience_weight: 0.7\nideal_sentence_len: 15\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SLIDECAST_TUNING", path)

	cfg := FromEnv()
	if cfg.Pipeline.Tuning.SalienceWeight != 0.7 {
		t.Errorf("SalienceWeight = %v, want 0.7", cfg.Pipeline.Tuning.SalienceWeight)
	}
	if cfg.Pipeline.Tuning.IdealSentenceLen != 15 {
		t.Errorf("IdealSentenceLen = %d, want 15", cfg.Pipeline.Tuning.IdealSentenceLen)
	}
	// Fields absent from the overlay keep their defaults.
	if cfg.Pipeline.Tuning.PositionWeight != 0.3 {
		t.Errorf("PositionWeight = %v, want 0.3", cfg.Pipeline.Tuning.PositionWeight)
	}
}

func TestParseHelpers(t *testing.T) {
	if parseInt("not a number", 7) != 7 {
		t.Error("parseInt should fall back to default")
	}
	if !parseBool("YES") || !parseBool("1") || parseBool("off") {
		t.Error("parseBool mismatch")
	}
	if parseFloat("0.25", 0) != 0.25 {
		t.Error("parseFloat mismatch")
	}
}
