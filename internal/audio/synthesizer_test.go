package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nikhilbhutani/pdfnarrator/internal/tts"
)

func TestSynthesizePartialFailure(t *testing.T) {
	dir := t.TempDir()
	engine := &tts.MockEngine{
		TraitsValue: tts.Traits{Name: "mock-tts", OutputFormat: "wav"},
		GenerateFunc: func(_ context.Context, text string) ([]byte, error) {
			if strings.Contains(text, "two") {
				return nil, errors.New("synthesis exploded")
			}
			return []byte("audio"), nil
		},
	}

	s := NewSynthesizer(SynthesizerConfig{})
	files, failed := s.Synthesize(context.Background(), engine, []string{"chunk one", "chunk two", "chunk three"}, "doc", dir)

	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	want := []string{"doc_part01.wav", "doc_part03.wav"}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
		if _, err := os.Stat(filepath.Join(dir, want[i])); err != nil {
			t.Errorf("expected %s on disk: %v", want[i], err)
		}
	}
}

func TestSynthesizeSkipsEmptyAndSentinelSegments(t *testing.T) {
	dir := t.TempDir()
	engine := &tts.MockEngine{TraitsValue: tts.Traits{Name: "mock-tts", OutputFormat: "wav"}}

	segments := []string{"", "Error during OCR: boom", "LLM cleaning skipped for this text", "readable text"}
	s := NewSynthesizer(SynthesizerConfig{})
	files, failed := s.Synthesize(context.Background(), engine, segments, "doc", dir)

	if failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
	if len(files) != 1 || files[0] != "doc_part04.wav" {
		t.Errorf("files = %v, want [doc_part04.wav]", files)
	}
	if calls := engine.Calls(); len(calls) != 1 || calls[0] != "readable text" {
		t.Errorf("engine calls = %v, want only the readable segment", calls)
	}
}

func TestSynthesizeParallelPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	engine := &tts.MockEngine{
		TraitsValue: tts.Traits{Name: "mock-tts", OutputFormat: "wav"},
		GenerateFunc: func(_ context.Context, text string) ([]byte, error) {
			// Later segments finish first.
			if strings.HasPrefix(text, "a") {
				time.Sleep(20 * time.Millisecond)
			}
			return []byte(text), nil
		},
	}

	segments := []string{"a one", "b two", "a three", "b four", "a five", "b six"}
	s := NewSynthesizer(SynthesizerConfig{ParallelEnabled: true, MaxConcurrent: 3})
	files, failed := s.Synthesize(context.Background(), engine, segments, "doc", dir)

	if failed != 0 {
		t.Fatalf("failed = %d, want 0", failed)
	}
	want := []string{"doc_part01.wav", "doc_part02.wav", "doc_part03.wav", "doc_part04.wav", "doc_part05.wav", "doc_part06.wav"}
	if len(files) != len(want) {
		t.Fatalf("files = %v", files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q (completion order leaked)", i, files[i], want[i])
		}
	}
}

func TestUseParallelPolicy(t *testing.T) {
	async := tts.Traits{Name: "cloud", PrefersSync: false}
	sync := tts.Traits{Name: "local", PrefersSync: true}

	cases := []struct {
		name   string
		cfg    SynthesizerConfig
		traits tts.Traits
		count  int
		want   bool
	}{
		{"single segment always sequential", SynthesizerConfig{ParallelEnabled: true}, async, 1, false},
		{"async engine goes parallel", SynthesizerConfig{ParallelEnabled: true}, async, 2, true},
		{"sync engine stays sequential", SynthesizerConfig{ParallelEnabled: true}, sync, 5, false},
		{"sync engine overridden on large jobs", SynthesizerConfig{ParallelEnabled: true}, sync, 11, true},
		{"sync engine at threshold stays sequential", SynthesizerConfig{ParallelEnabled: true}, sync, 10, false},
		{"master flag off wins", SynthesizerConfig{ParallelEnabled: false}, async, 8, false},
		{"force sequential wins", SynthesizerConfig{ParallelEnabled: true, ForceSequential: true}, async, 8, false},
		{"force parallel wins over sync preference", SynthesizerConfig{ParallelEnabled: true, ForceParallel: true}, sync, 3, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSynthesizer(tc.cfg)
			if got := s.useParallel(tc.traits, tc.count); got != tc.want {
				t.Errorf("useParallel(%s, %d) = %v, want %v", tc.traits.Name, tc.count, got, tc.want)
			}
		})
	}
}

func TestNextBackoffDelay(t *testing.T) {
	cases := []struct {
		in, want time.Duration
	}{
		{0, time.Second},
		{time.Second, 2 * time.Second},
		{8 * time.Second, 16 * time.Second},
		{20 * time.Second, 30 * time.Second},
		{30 * time.Second, 30 * time.Second},
	}
	for _, tc := range cases {
		if got := nextBackoffDelay(tc.in); got != tc.want {
			t.Errorf("nextBackoffDelay(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestIsRateLimitError(t *testing.T) {
	hits := []string{
		"http 429 from upstream",
		"RESOURCE_EXHAUSTED: try later",
		"daily quota exceeded",
		"Rate Limit reached",
		"Too Many Requests",
	}
	for _, msg := range hits {
		if !isRateLimitError(errors.New(msg)) {
			t.Errorf("expected %q to read as rate limit", msg)
		}
	}
	if isRateLimitError(errors.New("connection refused")) {
		t.Error("connection refused misread as rate limit")
	}
}
