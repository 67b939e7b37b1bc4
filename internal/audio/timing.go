package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nikhilbhutani/pdfnarrator/internal/models"
	"github.com/nikhilbhutani/pdfnarrator/internal/tts"
	"github.com/nikhilbhutani/pdfnarrator/pkg/chunker"
)

// ReconstructorConfig tunes duration estimation for sentences whose audio
// cannot be measured.
type ReconstructorConfig struct {
	WordsPerSecond float64 // default 2.5
}

// Reconstructor produces sentence-accurate timing for engines that report no
// timing information of their own: each sentence is synthesized
// individually, its rendered duration measured from the WAV container (or
// estimated from word count when measurement fails), and the results laid
// out on a contiguous timeline. Strictly slower than chunk-level synthesis
// (one engine call per sentence) but the only way to get sentence boundaries
// without engine cooperation.
type Reconstructor struct {
	engine   tts.Engine
	stitcher *Stitcher
	cfg      ReconstructorConfig

	// Annotate, when set, rewrites a sentence (e.g. SSML markup) before the
	// engine call. Timeline text stays unannotated.
	Annotate func(string) string
}

func NewReconstructor(engine tts.Engine, stitcher *Stitcher, cfg ReconstructorConfig) *Reconstructor {
	if cfg.WordsPerSecond <= 0 {
		cfg.WordsPerSecond = DefaultWordsPerSecond
	}
	return &Reconstructor{engine: engine, stitcher: stitcher, cfg: cfg}
}

// sentencesPerChunkGroup maps sentences back to coarse chunk indices in the
// timing metadata.
const sentencesPerChunkGroup = 10

// GenerateWithTiming synthesizes the chunks sentence-by-sentence and returns
// the combined audio plus a sentence-to-time mapping. Zero sentences after
// cleaning is a valid "nothing to narrate" outcome: an empty result, not an
// error. Temp files are removed on every exit path.
func (r *Reconstructor) GenerateWithTiming(ctx context.Context, textChunks []string, baseName, outputDir string) models.TimedAudioResult {
	var full string
	for _, c := range textChunks {
		if full != "" {
			full += " "
		}
		full += c
	}
	sentences := chunker.Sentences(full)
	if len(sentences) == 0 {
		slog.Info("no sentences to narrate", "base", baseName)
		return models.TimedAudioResult{}
	}

	traits := r.engine.Traits()
	slog.Info("reconstructing timing sentence-by-sentence",
		"engine", traits.Name, "sentences", len(sentences))

	tmpDir, err := os.MkdirTemp("", "narrator-timing-")
	if err != nil {
		slog.Error("create temp dir", "error", err)
		return models.TimedAudioResult{}
	}
	defer os.RemoveAll(tmpDir)

	var tempFiles []string
	var segments []models.TextSegment
	cumulative := 0.0

	for i, sentence := range sentences {
		if i > 0 && traits.RequestDelay > 0 {
			select {
			case <-time.After(traits.RequestDelay):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			break
		}

		engineText := sentence
		if r.Annotate != nil {
			engineText = r.Annotate(sentence)
		}

		data, err := r.engine.GenerateAudio(ctx, engineText)
		if err != nil {
			slog.Error("sentence synthesis failed", "sentence", i+1, "error", err)
			continue
		}

		tempPath := filepath.Join(tmpDir, fmt.Sprintf("sentence_%04d.%s", i, traits.OutputFormat))
		if err := os.WriteFile(tempPath, data, 0o644); err != nil {
			slog.Error("write sentence audio", "sentence", i+1, "error", err)
			continue
		}
		tempFiles = append(tempFiles, tempPath)

		duration, err := MeasureWAVDuration(tempPath)
		if err != nil {
			duration = EstimateDuration(sentence, r.cfg.WordsPerSecond)
			slog.Debug("estimated sentence duration", "sentence", i+1, "duration", duration)
		}

		segments = append(segments, models.TextSegment{
			Text:          sentence,
			StartTime:     cumulative,
			Duration:      duration,
			SegmentType:   models.SegmentTypeSentence,
			ChunkIndex:    i / sentencesPerChunkGroup,
			SentenceIndex: i,
		})
		cumulative += duration
	}

	finalFiles, combined := r.placeOutputs(ctx, tempFiles, baseName, outputDir, traits.OutputFormat)

	var timing *models.TimingMetadata
	if len(segments) > 0 {
		timing = &models.TimingMetadata{
			TotalDuration: cumulative,
			TextSegments:  segments,
			AudioFiles:    finalFiles,
		}
	}

	slog.Info("timing reconstruction finished",
		"sentences", len(segments), "total_duration", cumulative, "files", len(finalFiles))

	return models.TimedAudioResult{
		AudioFiles:  finalFiles,
		CombinedMP3: combined,
		TimingData:  timing,
	}
}

// placeOutputs moves the per-sentence temp audio into its final shape:
// stitched into one file when possible, otherwise copied as-is. The combined
// name is reported only when one file really holds the whole narration; a set
// of per-sentence parts has no combined artifact. All segment times are
// relative to the start of the combined file.
func (r *Reconstructor) placeOutputs(ctx context.Context, tempFiles []string, baseName, outputDir, ext string) (files []string, combined string) {
	switch {
	case len(tempFiles) == 0:
		return nil, ""

	case len(tempFiles) >= 2 && r.stitcher != nil && r.stitcher.Available():
		name, err := r.stitcher.Combine(ctx, tempFiles, baseName, outputDir)
		if err != nil {
			slog.Warn("stitching sentence audio failed, copying parts", "error", err)
			return r.copyParts(tempFiles, baseName, outputDir, ext), ""
		}
		return []string{name}, name

	case len(tempFiles) == 1:
		name := fmt.Sprintf("%s.%s", baseName, ext)
		if err := copyFile(tempFiles[0], filepath.Join(outputDir, name)); err != nil {
			slog.Error("copy sentence audio", "error", err)
			return nil, ""
		}
		return []string{name}, name

	default:
		// Multiple sentences, no stitcher: individual files are still a
		// usable result for a player that handles playlists.
		return r.copyParts(tempFiles, baseName, outputDir, ext), ""
	}
}

func (r *Reconstructor) copyParts(tempFiles []string, baseName, outputDir, ext string) []string {
	var names []string
	for i, tmp := range tempFiles {
		name := fmt.Sprintf("%s_part%02d.%s", baseName, i+1, ext)
		if err := copyFile(tmp, filepath.Join(outputDir, name)); err != nil {
			slog.Error("copy sentence audio", "part", i+1, "error", err)
			continue
		}
		names = append(names, name)
	}
	return names
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
