package audio

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestCombineNoInput(t *testing.T) {
	s := NewStitcher(StitcherConfig{FFmpegPath: "/usr/bin/ffmpeg"})
	if _, err := s.Combine(context.Background(), nil, "doc", t.TempDir()); !errors.Is(err, ErrNoInput) {
		t.Errorf("err = %v, want ErrNoInput", err)
	}
}

func TestCombineEncoderUnavailable(t *testing.T) {
	s := &Stitcher{path: "", cfg: StitcherConfig{Bitrate: "128k", SampleRate: 22050, Timeout: time.Second}}
	if s.Available() {
		t.Fatal("stitcher with empty path reports available")
	}
	_, err := s.Combine(context.Background(), []string{"a.wav"}, "doc", t.TempDir())
	if !errors.Is(err, ErrEncoderUnavailable) {
		t.Errorf("err = %v, want ErrEncoderUnavailable", err)
	}
}

func TestCombineMissingInputFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStitcher(StitcherConfig{FFmpegPath: "/usr/bin/ffmpeg"})
	_, err := s.Combine(context.Background(), []string{"absent.wav"}, "doc", dir)
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestNewStitcherDefaults(t *testing.T) {
	s := NewStitcher(StitcherConfig{FFmpegPath: "/usr/bin/ffmpeg"})
	if s.cfg.Bitrate != "128k" {
		t.Errorf("bitrate = %q, want 128k", s.cfg.Bitrate)
	}
	if s.cfg.SampleRate != 22050 {
		t.Errorf("sample rate = %d, want 22050", s.cfg.SampleRate)
	}
	if s.cfg.Timeout != 300*time.Second {
		t.Errorf("timeout = %s, want 300s", s.cfg.Timeout)
	}
}

// TestCombineRealEncoder exercises the full concat pipeline when ffmpeg is
// installed; skipped otherwise.
func TestCombineRealEncoder(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	dir := t.TempDir()
	encodeTestWAV(t, dir, 0.3)
	first := filepath.Join(dir, "clip.wav")

	s := NewStitcher(StitcherConfig{})
	name, err := s.Combine(context.Background(), []string{first, first}, "doc", dir)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if name != "doc_combined.mp3" {
		t.Errorf("output = %q, want doc_combined.mp3", name)
	}
	if d, err := MeasureWAVDuration(filepath.Join(dir, name)); err == nil {
		t.Errorf("combined mp3 decoded as wav (%.2fs), encoding profile ignored", d)
	}
}

func TestTail(t *testing.T) {
	if got := tail("short", 10); got != "short" {
		t.Errorf("tail = %q", got)
	}
	long := "0123456789abcdef"
	if got := tail(long, 4); got != "...cdef" {
		t.Errorf("tail = %q, want ...cdef", got)
	}
}
