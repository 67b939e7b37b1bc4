package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nikhilbhutani/pdfnarrator/internal/models"
	"github.com/nikhilbhutani/pdfnarrator/internal/tts"
)

// SynthesizerConfig tunes segment synthesis. The force flags and the master
// enable flag take precedence over the engine's declared preference.
type SynthesizerConfig struct {
	MaxConcurrent   int  // bounded worker pool width, default 4
	ParallelEnabled bool // master switch for the parallel path
	ForceParallel   bool
	ForceSequential bool
}

// syncOverrideThreshold: above this many segments, parallel setup cost is
// amortized even for engines that prefer sequential processing.
const syncOverrideThreshold = 10

// maxBackoffDelay caps the sequential path's growing inter-request delay.
const maxBackoffDelay = 30 * time.Second

// Synthesizer drives a TTS engine over an ordered sequence of text segments,
// writing one audio file per segment. A single segment's failure is absorbed:
// it is logged and skipped, and the remaining segments still render.
type Synthesizer struct {
	cfg SynthesizerConfig
}

func NewSynthesizer(cfg SynthesizerConfig) *Synthesizer {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	return &Synthesizer{cfg: cfg}
}

// Synthesize renders each usable segment to {baseName}_partNN.{ext} in
// outputDir, NN being the segment's original 1-based index (failed or
// skipped segments leave holes rather than renumbering). Returns the written
// filenames in segment order and the number of failed engine calls.
func (s *Synthesizer) Synthesize(ctx context.Context, engine tts.Engine, segments []string, baseName, outputDir string) ([]string, int) {
	traits := engine.Traits()

	type job struct {
		index int // original position, 1-based in filenames
		text  string
	}
	var jobs []job
	for i, seg := range segments {
		if strings.TrimSpace(seg) == "" {
			slog.Debug("skipping empty segment", "index", i+1)
			continue
		}
		if models.IsUpstreamError(seg) {
			slog.Warn("skipping upstream-error segment", "index", i+1)
			continue
		}
		jobs = append(jobs, job{index: i, text: seg})
	}
	if len(jobs) == 0 {
		return nil, 0
	}

	filename := func(idx int) string {
		return fmt.Sprintf("%s_part%02d.%s", baseName, idx+1, traits.OutputFormat)
	}

	parallel := s.useParallel(traits, len(jobs))
	slog.Info("synthesizing segments",
		"engine", traits.Name, "segments", len(jobs), "parallel", parallel)

	results := make([]string, len(jobs)) // slot per job, indexed by position

	if parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.MaxConcurrent)
		for i, j := range jobs {
			g.Go(func() error {
				data, err := engine.GenerateAudio(gctx, j.text)
				if err != nil {
					slog.Error("segment synthesis failed", "segment", j.index+1, "error", err)
					return nil // partial failure is non-fatal
				}
				name := filename(j.index)
				if err := os.WriteFile(filepath.Join(outputDir, name), data, 0o644); err != nil {
					slog.Error("write segment audio", "segment", j.index+1, "error", err)
					return nil
				}
				results[i] = name
				return nil
			})
		}
		g.Wait()
	} else {
		delay := traits.RequestDelay
		for i, j := range jobs {
			if i > 0 && delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
				}
			}
			if ctx.Err() != nil {
				break
			}
			data, err := engine.GenerateAudio(ctx, j.text)
			if err != nil {
				slog.Error("segment synthesis failed", "segment", j.index+1, "error", err)
				if isRateLimitError(err) {
					delay = nextBackoffDelay(delay)
					slog.Warn("rate limit detected, increasing inter-request delay", "delay", delay)
				}
				continue
			}
			name := filename(j.index)
			if err := os.WriteFile(filepath.Join(outputDir, name), data, 0o644); err != nil {
				slog.Error("write segment audio", "segment", j.index+1, "error", err)
				continue
			}
			results[i] = name
		}
	}

	var files []string
	failed := 0
	for _, name := range results {
		if name == "" {
			failed++
			continue
		}
		files = append(files, name)
	}
	return files, failed
}

// useParallel applies the concurrency policy: one segment is always
// sequential; the force flags and master enable flag win over the engine's
// declared preference; sync-preferring engines go parallel only past the
// override threshold.
func (s *Synthesizer) useParallel(traits tts.Traits, segmentCount int) bool {
	if segmentCount <= 1 {
		return false
	}
	if s.cfg.ForceSequential {
		return false
	}
	if !s.cfg.ParallelEnabled {
		return false
	}
	if s.cfg.ForceParallel {
		return true
	}
	if traits.PrefersSync {
		return segmentCount > syncOverrideThreshold
	}
	return true
}

var rateLimitIndicators = []string{
	"429", "resource_exhausted", "quota", "rate limit", "too many requests",
}

func isRateLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, ind := range rateLimitIndicators {
		if strings.Contains(msg, ind) {
			return true
		}
	}
	return false
}

// nextBackoffDelay doubles the inter-request delay, capped at
// maxBackoffDelay. The failed segment is abandoned; only subsequent
// requests benefit from the longer spacing.
func nextBackoffDelay(current time.Duration) time.Duration {
	if current <= 0 {
		return time.Second
	}
	next := current * 2
	if next > maxBackoffDelay {
		return maxBackoffDelay
	}
	return next
}
