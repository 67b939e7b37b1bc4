// Package pipeline orchestrates the PDF-to-narration flow: validate,
// extract, clean, chunk, synthesize, stitch, and optionally reconstruct
// sentence timing. Stages run linearly with early exit; the first stage
// failure becomes the result. Retries live inside stages, never across them.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/nikhilbhutani/pdfnarrator/internal/audio"
	"github.com/nikhilbhutani/pdfnarrator/internal/models"
	"github.com/nikhilbhutani/pdfnarrator/internal/ssml"
	"github.com/nikhilbhutani/pdfnarrator/internal/storage"
	"github.com/nikhilbhutani/pdfnarrator/internal/tts"
	"github.com/nikhilbhutani/pdfnarrator/pkg/chunker"
)

// TextSource produces narratable text from a PDF on disk.
type TextSource interface {
	ValidateRange(path string, pages models.PageRange) (*models.PDFInfo, error)
	ExtractText(ctx context.Context, path string, pages models.PageRange) []string
}

// TextCleaner rewrites raw extracted text into speech-ready prose.
type TextCleaner interface {
	Clean(ctx context.Context, rawText string) string
}

// Config is the complete, explicit tuning of one pipeline instance. It is
// threaded through construction and echoed in every result's DebugInfo;
// nothing is read from ambient globals at processing time.
type Config struct {
	ChunkSize      int  // default chunker.DefaultChunkSize
	SSMLEnabled    bool // annotate only when the engine supports it
	SSML           ssml.Config
	WordsPerSecond float64
	Synth          audio.SynthesizerConfig
}

type Pipeline struct {
	source        TextSource
	cleaner       TextCleaner
	engine        tts.Engine
	synth         *audio.Synthesizer
	stitcher      *audio.Stitcher
	reconstructor *audio.Reconstructor
	files         *storage.FileManager
	annotate      func(string) string
	cfg           Config
}

// New wires a pipeline. A nil stitcher degrades to per-segment output files.
func New(source TextSource, cl TextCleaner, engine tts.Engine, stitcher *audio.Stitcher, files *storage.FileManager, cfg Config) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
	}
	p := &Pipeline{
		source:   source,
		cleaner:  cl,
		engine:   engine,
		synth:    audio.NewSynthesizer(cfg.Synth),
		stitcher: stitcher,
		files:    files,
		cfg:      cfg,
	}
	if cfg.SSMLEnabled && engine.Traits().SupportsSSML {
		sc := cfg.SSML
		sc.Emphasis = true
		p.annotate = ssml.NewAnnotator(sc).Annotate
	}
	p.reconstructor = audio.NewReconstructor(engine, stitcher, audio.ReconstructorConfig{
		WordsPerSecond: cfg.WordsPerSecond,
	})
	p.reconstructor.Annotate = p.annotate
	return p
}

// Process runs one narration request end to end.
func (p *Pipeline) Process(ctx context.Context, req models.ProcessingRequest) ProcessingResult {
	debug := p.debugInfo(req)

	if _, err := os.Stat(req.PDFPath); err != nil {
		return failureResult(newFailure(CodeFileNotFound, "pdf not found: %s", req.PDFPath), debug)
	}
	info, err := p.source.ValidateRange(req.PDFPath, req.PageRange)
	if err != nil {
		var bad models.ErrInvalidPageRange
		if errors.As(err, &bad) {
			return failureResult(newFailure(CodeInvalidPageRange, "%v", err), debug)
		}
		return failureResult(newFailure(CodeExtractionFailed, "could not read pdf: %v", err), debug)
	}
	debug["total_pages"] = info.TotalPages

	pages := p.source.ExtractText(ctx, req.PDFPath, req.PageRange)
	raw := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if raw == "" {
		return failureResult(newFailure(CodeExtractionFailed, "no text could be extracted"), debug)
	}
	if models.IsUpstreamError(raw) {
		return failureResult(newFailure(CodeExtractionFailed, "%s", truncate(raw, 300)), debug)
	}

	cleaned := strings.TrimSpace(p.cleaner.Clean(ctx, raw))
	if cleaned == "" || models.IsUpstreamError(cleaned) {
		return failureResult(newFailure(CodeCleaningFailed, "cleaning failed: %s", truncate(cleaned, 300)), debug)
	}

	chunks := chunker.Split(cleaned, p.cfg.ChunkSize)
	if countUsable(chunks) == 0 {
		return failureResult(newFailure(CodeCleaningFailed, "cleaning failed: no narratable chunks"), debug)
	}
	debug["chunks"] = len(chunks)

	base := storage.SanitizeBaseName(req.OutputName)
	outDir := p.files.AudioDir()

	if req.ReadAlong {
		return p.processReadAlong(ctx, chunks, base, outDir, debug)
	}

	files, failed := p.synth.Synthesize(ctx, p.engine, p.annotateChunks(chunks), base, outDir)
	debug["failed_segments"] = failed
	if len(files) == 0 {
		// Every engine call failed: that is the provider misbehaving, not the
		// document, so the job is worth re-running.
		return failureResult(newTransientFailure(CodeSynthesisFailed, "no audio segments produced (%d failed)", failed), debug)
	}

	combined := ""
	if p.stitcher != nil && p.stitcher.Available() {
		name, err := p.stitcher.Combine(ctx, files, base, outDir)
		if err != nil {
			// Non-fatal: per-segment files are still a usable result.
			slog.Warn("stitching failed, keeping segment files", "error", err)
			debug["stitch_error"] = err.Error()
		} else {
			combined = name
		}
	} else {
		debug["stitch_available"] = false
	}

	return ProcessingResult{
		Success:     true,
		AudioFiles:  files,
		CombinedMP3: combined,
		DebugInfo:   debug,
	}
}

func (p *Pipeline) processReadAlong(ctx context.Context, chunks []string, base, outDir string, debug map[string]any) ProcessingResult {
	result := p.reconstructor.GenerateWithTiming(ctx, chunks, base, outDir)
	if len(result.AudioFiles) == 0 {
		return failureResult(newTransientFailure(CodeSynthesisFailed, "no audio segments produced"), debug)
	}

	timingFile := ""
	if result.HasTimingData() {
		name, err := p.files.WriteTimingSidecar(base, result.TimingData)
		if err != nil {
			slog.Error("writing timing sidecar failed", "error", err)
			debug["timing_sidecar_error"] = err.Error()
		} else {
			timingFile = name
			debug["sentences"] = len(result.TimingData.TextSegments)
		}
	}

	return ProcessingResult{
		Success:     true,
		AudioFiles:  result.AudioFiles,
		CombinedMP3: result.CombinedMP3,
		TimingFile:  timingFile,
		DebugInfo:   debug,
	}
}

// annotateChunks applies SSML to chunks headed for the engine. Sentinel and
// empty chunks pass through untouched so the synthesizer still recognizes
// and skips them.
func (p *Pipeline) annotateChunks(chunks []string) []string {
	if p.annotate == nil {
		return chunks
	}
	out := make([]string, len(chunks))
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" || models.IsUpstreamError(c) {
			out[i] = c
			continue
		}
		out[i] = p.annotate(c)
	}
	return out
}

// debugInfo echoes the effective configuration into the result so a job
// record shows what it actually ran with.
func (p *Pipeline) debugInfo(req models.ProcessingRequest) map[string]any {
	traits := p.engine.Traits()
	return map[string]any{
		"tts_engine":       traits.Name,
		"output_format":    traits.OutputFormat,
		"prefers_sync":     traits.PrefersSync,
		"supports_ssml":    traits.SupportsSSML,
		"chunk_size":       p.cfg.ChunkSize,
		"ssml_enabled":     p.annotate != nil,
		"parallel_enabled": p.cfg.Synth.ParallelEnabled,
		"max_concurrent":   p.cfg.Synth.MaxConcurrent,
		"read_along":       req.ReadAlong,
	}
}

func countUsable(chunks []string) int {
	n := 0
	for _, c := range chunks {
		if strings.TrimSpace(c) == "" || models.IsUpstreamError(c) {
			continue
		}
		n++
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
