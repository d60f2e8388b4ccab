package video

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeWAV writes a minimal PCM WAV with the given byte rate and payload size.
func writeWAV(t *testing.T, path string, byteRate, dataSize uint32) {
	t.Helper()
	buf := make([]byte, 0, 44+int(dataSize))

	buf = append(buf, []byte("RIFF")...)
	buf = binary.LittleEndian.AppendUint32(buf, 36+dataSize)
	buf = append(buf, []byte("WAVE")...)

	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, 1) // mono
	buf = binary.LittleEndian.AppendUint32(buf, 22050)
	buf = binary.LittleEndian.AppendUint32(buf, byteRate)
	buf = binary.LittleEndian.AppendUint16(buf, 2)
	buf = binary.LittleEndian.AppendUint16(buf, 16)

	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, dataSize)
	buf = append(buf, make([]byte, dataSize)...)

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
}

func TestWAVDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	writeWAV(t, path, 44100, 220500) // 5 seconds at 44100 B/s

	d, err := WAVDuration(path)
	if err != nil {
		t.Fatalf("WAVDuration: %v", err)
	}
	if d != 5*time.Second {
		t.Errorf("duration = %v, want 5s", d)
	}
}

func TestWAVDuration_RejectsNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	if err := os.WriteFile(path, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := WAVDuration(path); err == nil {
		t.Fatal("expected error for non-wav input")
	}
}

func TestTotalDuration(t *testing.T) {
	dir := t.TempDir()
	voiced := filepath.Join(dir, "voiced.wav")
	writeWAV(t, voiced, 44100, 220500) // 5 seconds

	// One narrated slide, one silent, one with an unreadable clip: 5 + 6 + 6.
	broken := filepath.Join(dir, "broken.wav")
	if err := os.WriteFile(broken, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := TotalDuration([]string{voiced, "", broken}, 6)
	if got != 17*time.Second {
		t.Errorf("TotalDuration = %v, want 17s", got)
	}
}

func TestNewDefaults(t *testing.T) {
	a := New("", 0, 0, 0)
	if a.Binary != "ffmpeg" || a.FPS != 24 || a.SlideSeconds != 6 {
		t.Errorf("defaults not applied: %+v", a)
	}
}

func TestBuild_CountMismatch(t *testing.T) {
	a := New("ffmpeg", 24, 6, time.Minute)
	err := a.Build(context.Background(), []string{"a.png", "b.png"}, []string{"a.wav"}, t.TempDir(), "out.mp4")
	if err == nil {
		t.Fatal("expected mismatch error")
	}
}
