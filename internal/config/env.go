package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds optional Axiom log forwarding configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// TuningConfig exposes the content-reduction knobs: heading detection limits
// and the sentence-scoring weights. Overridable via a SLIDECAST_TUNING yaml
// file so weights stay configuration rather than magic constants.
type TuningConfig struct {
	HeadingMaxWords  int     `yaml:"heading_max_words"`
	PositionWeight   float64 `yaml:"position_weight"`
	SalienceWeight   float64 `yaml:"salience_weight"`
	LengthWeight     float64 `yaml:"length_weight"`
	IdealSentenceLen int     `yaml:"ideal_sentence_len"`
	ProbeThreshold   int     `yaml:"probe_threshold"`
}

// PipelineConfig holds per-run defaults for the reduction core.
type PipelineConfig struct {
	SlideCount int // default slide budget when the caller passes none
	BulletCap  int
	Tuning     TuningConfig
}

// VisualConfig controls the rendered slide cards.
type VisualConfig struct {
	Width  int
	Height int
}

// TTSConfig selects and tunes the external speech engine.
type TTSConfig struct {
	Enabled bool
	Binary  string
	Voice   string
	RateWPM int
	Timeout time.Duration
}

// VideoConfig controls the final MP4 assembly.
type VideoConfig struct {
	FPS           int
	SlideSeconds  int // still duration for slides without audio
	MusicFile     string
	MusicVolume   float64
	FFmpegBinary  string
	EncodeTimeout time.Duration
}

// ConverterConfig selects the office-to-pdf converter.
type ConverterConfig struct {
	Binary  string
	Timeout time.Duration
}

// QueueConfig defines queue connectivity for server mode.
type QueueConfig struct {
	RedisURL     string
	Stream       string
	Group        string
	PollInterval time.Duration
}

// StorageConfig defines optional S3 artifact upload.
type StorageConfig struct {
	Upload bool
	Bucket string
	Prefix string
}

// WorkerConfig defines server-mode worker behavior.
type WorkerConfig struct {
	Concurrency       int
	JobTimeout        time.Duration
	EncodeMaxInflight int // concurrent ffmpeg/soffice runs per host
}

// ServerConfig defines the HTTP front end.
type ServerConfig struct {
	Addr    string
	DataDir string // per-job output directories live under here
}

// Config is the top-level configuration.
type Config struct {
	Logging   LoggingConfig
	Axiom     AxiomConfig
	Pipeline  PipelineConfig
	Visual    VisualConfig
	TTS       TTSConfig
	Video     VideoConfig
	Converter ConverterConfig
	Queue     QueueConfig
	Storage   StorageConfig
	Worker    WorkerConfig
	Server    ServerConfig
}

// FromEnv loads configuration from environment with sensible defaults, then
// applies the optional yaml tuning overlay named by SLIDECAST_TUNING.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/slidecast.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_slidecast",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Pipeline = PipelineConfig{
		SlideCount: parseInt(getEnv("SLIDE_COUNT", "8"), 8),
		BulletCap:  parseInt(getEnv("BULLET_CAP", "3"), 3),
		Tuning: TuningConfig{
			HeadingMaxWords:  parseInt(getEnv("HEADING_MAX_WORDS", "6"), 6),
			PositionWeight:   parseFloat(getEnv("SCORE_POSITION_WEIGHT", "0.3"), 0.3),
			SalienceWeight:   parseFloat(getEnv("SCORE_SALIENCE_WEIGHT", "0.5"), 0.5),
			LengthWeight:     parseFloat(getEnv("SCORE_LENGTH_WEIGHT", "0.2"), 0.2),
			IdealSentenceLen: parseInt(getEnv("SCORE_IDEAL_SENTENCE_LEN", "20"), 20),
			ProbeThreshold:   parseInt(getEnv("PROBE_THRESHOLD", "300"), 300),
		},
	}

	cfg.Visual = VisualConfig{
		Width:  parseInt(getEnv("VISUAL_WIDTH", "1280"), 1280),
		Height: parseInt(getEnv("VISUAL_HEIGHT", "720"), 720),
	}

	cfg.TTS = TTSConfig{
		Enabled: parseBool(getEnv("TTS_ENABLED", "true")),
		Binary:  getEnv("TTS_BINARY", "espeak-ng"),
		Voice:   getEnv("TTS_VOICE", "en"),
		RateWPM: parseInt(getEnv("TTS_RATE_WPM", "150"), 150),
		Timeout: parseDuration(getEnv("TTS_TIMEOUT", "60s"), 60*time.Second),
	}

	cfg.Video = VideoConfig{
		FPS:           parseInt(getEnv("VIDEO_FPS", "24"), 24),
		SlideSeconds:  parseInt(getEnv("VIDEO_SLIDE_SECONDS", "6"), 6),
		MusicFile:     getEnv("VIDEO_MUSIC_FILE", ""),
		MusicVolume:   parseFloat(getEnv("VIDEO_MUSIC_VOLUME", "0.08"), 0.08),
		FFmpegBinary:  getEnv("FFMPEG_BINARY", "ffmpeg"),
		EncodeTimeout: parseDuration(getEnv("VIDEO_ENCODE_TIMEOUT", "10m"), 10*time.Minute),
	}

	cfg.Converter = ConverterConfig{
		Binary:  getEnv("SOFFICE_BINARY", "soffice"),
		Timeout: parseDuration(getEnv("CONVERT_TIMEOUT", "2m"), 2*time.Minute),
	}

	cfg.Queue = QueueConfig{
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		Stream:       getEnv("QUEUE_STREAM", "jobs:slidecast:render"),
		Group:        getEnv("QUEUE_GROUP", "workers:render"),
		PollInterval: parseDuration(getEnv("QUEUE_POLL_INTERVAL", "100ms"), 100*time.Millisecond),
	}

	cfg.Storage = StorageConfig{
		Upload: parseBool(getEnv("S3_UPLOAD", "0")),
		Bucket: getEnv("S3_BUCKET", ""),
		Prefix: getEnv("S3_PREFIX", "slidecast"),
	}

	cfg.Worker = WorkerConfig{
		Concurrency:       parseInt(getEnv("WORKER_CONCURRENCY", "2"), 2),
		JobTimeout:        parseDuration(getEnv("JOB_TIMEOUT", "15m"), 15*time.Minute),
		EncodeMaxInflight: parseInt(getEnv("ENCODE_MAX_INFLIGHT", "1"), 1),
	}

	cfg.Server = ServerConfig{
		Addr:    getEnv("LISTEN_ADDR", ":8080"),
		DataDir: getEnv("DATA_DIR", "data/jobs"),
	}

	if path := os.Getenv("SLIDECAST_TUNING"); path != "" {
		if err := cfg.Pipeline.Tuning.loadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "tuning overlay ignored: %v\n", err)
		}
	}

	return cfg
}

// loadFile overlays tuning values from a yaml file; zero values in the file
// leave the current setting untouched.
func (t *TuningConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tuning file: %w", err)
	}
	var overlay TuningConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse tuning file: %w", err)
	}
	if overlay.HeadingMaxWords > 0 {
		t.HeadingMaxWords = overlay.HeadingMaxWords
	}
	if overlay.PositionWeight > 0 {
		t.PositionWeight = overlay.PositionWeight
	}
	if overlay.SalienceWeight > 0 {
		t.SalienceWeight = overlay.SalienceWeight
	}
	if overlay.LengthWeight > 0 {
		t.LengthWeight = overlay.LengthWeight
	}
	if overlay.IdealSentenceLen > 0 {
		t.IdealSentenceLen = overlay.IdealSentenceLen
	}
	if overlay.ProbeThreshold > 0 {
		t.ProbeThreshold = overlay.ProbeThreshold
	}
	return nil
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
