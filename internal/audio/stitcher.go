package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrEncoderUnavailable means ffmpeg was not found; callers treat this
	// as "no combined file", not a request failure.
	ErrEncoderUnavailable = errors.New("ffmpeg not available")
	// ErrNoInput means there was nothing to combine.
	ErrNoInput = errors.New("no audio files to combine")
)

// StitcherConfig fixes the output encoding profile. 128 kbps at 22050 Hz is
// speech-appropriate and keeps files small.
type StitcherConfig struct {
	FFmpegPath string        // looked up on PATH when empty
	Bitrate    string        // default "128k"
	SampleRate int           // default 22050
	Timeout    time.Duration // per-encode bound, default 300s
}

// Stitcher combines per-segment audio files into one compressed output via
// ffmpeg, trying a fast concat-demuxer pass first and falling back to a
// filter-graph concatenation. Both preserve input order exactly.
type Stitcher struct {
	path string
	cfg  StitcherConfig
}

func NewStitcher(cfg StitcherConfig) *Stitcher {
	if cfg.Bitrate == "" {
		cfg.Bitrate = "128k"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 22050
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	path := cfg.FFmpegPath
	if path == "" {
		path, _ = exec.LookPath("ffmpeg")
	}
	return &Stitcher{path: path, cfg: cfg}
}

// Available reports whether the external encoder can be invoked.
func (s *Stitcher) Available() bool { return s.path != "" }

// Combine concatenates the given audio files (paths resolved against
// outputDir when relative) into {baseName}_combined.mp3 and returns that
// filename. Failures never propagate as panics: every error return means
// "no combined file" and the individual segment files remain usable.
func (s *Stitcher) Combine(ctx context.Context, audioFiles []string, baseName, outputDir string) (string, error) {
	if len(audioFiles) == 0 {
		return "", ErrNoInput
	}
	if !s.Available() {
		return "", ErrEncoderUnavailable
	}

	inputs := make([]string, len(audioFiles))
	for i, f := range audioFiles {
		if filepath.IsAbs(f) {
			inputs[i] = f
		} else {
			inputs[i] = filepath.Join(outputDir, f)
		}
		if _, err := os.Stat(inputs[i]); err != nil {
			return "", fmt.Errorf("input file missing: %s", inputs[i])
		}
	}

	combinedName := baseName + "_combined.mp3"
	outPath := filepath.Join(outputDir, combinedName)

	if len(inputs) == 1 {
		if err := s.convertSingle(ctx, inputs[0], outPath); err != nil {
			return "", err
		}
		return combinedName, nil
	}

	type strategy struct {
		name string
		run  func(ctx context.Context, inputs []string, outPath string) error
	}
	strategies := []strategy{
		{"concat-demuxer", s.concatDemuxer},
		{"concat-filter", s.concatFilter},
	}

	var lastErr error
	for _, strat := range strategies {
		err := strat.run(ctx, inputs, outPath)
		if err == nil {
			if _, statErr := os.Stat(outPath); statErr == nil {
				return combinedName, nil
			}
			err = fmt.Errorf("encoder reported success but output missing")
		}
		slog.Warn("stitch strategy failed", "strategy", strat.name, "error", err)
		lastErr = err
	}
	return "", fmt.Errorf("all stitch strategies failed: %w", lastErr)
}

func (s *Stitcher) convertSingle(ctx context.Context, input, outPath string) error {
	args := []string{
		"-y", "-i", input,
		"-c:a", "libmp3lame",
		"-b:a", s.cfg.Bitrate,
		"-ar", fmt.Sprintf("%d", s.cfg.SampleRate),
		outPath,
	}
	return s.run(ctx, args)
}

// concatDemuxer writes a manifest of absolute paths and feeds it to ffmpeg's
// concat demuxer. Fast: one input stream, no graph.
func (s *Stitcher) concatDemuxer(ctx context.Context, inputs []string, outPath string) error {
	manifest := outPath + ".concat.txt"
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return fmt.Errorf("resolve input path: %w", err)
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	if err := os.WriteFile(manifest, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat manifest: %w", err)
	}
	defer os.Remove(manifest)

	args := []string{
		"-y", "-f", "concat", "-safe", "0", "-i", manifest,
		"-c:a", "libmp3lame",
		"-b:a", s.cfg.Bitrate,
		"-ar", fmt.Sprintf("%d", s.cfg.SampleRate),
		outPath,
	}
	return s.run(ctx, args)
}

// concatFilter builds an explicit multi-input concat graph. Slower but
// tolerant of inputs the demuxer rejects (mixed codecs or parameters).
func (s *Stitcher) concatFilter(ctx context.Context, inputs []string, outPath string) error {
	var args []string
	args = append(args, "-y")
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	filter := fmt.Sprintf("concat=n=%d:v=0:a=1", len(inputs))
	args = append(args,
		"-filter_complex", filter,
		"-c:a", "libmp3lame",
		"-b:a", s.cfg.Bitrate,
		"-ar", fmt.Sprintf("%d", s.cfg.SampleRate),
		outPath,
	)
	return s.run(ctx, args)
}

func (s *Stitcher) run(ctx context.Context, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.path, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("encoder timed out after %s", s.cfg.Timeout)
		}
		return fmt.Errorf("ffmpeg: %w (stderr: %s)", err, tail(stderr.String(), 400))
	}
	return nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
