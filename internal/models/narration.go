package models

import "strings"

// PageRange selects a span of pages from a PDF. Zero means unset; a range
// with both ends unset addresses the whole document.
type PageRange struct {
	StartPage int `json:"start_page,omitempty"`
	EndPage   int `json:"end_page,omitempty"`
}

func (pr PageRange) IsFullDocument() bool {
	return pr.StartPage == 0 && pr.EndPage == 0
}

// Validate checks internal consistency; totalPages of 0 skips the upper-bound
// check (document size unknown).
func (pr PageRange) Validate(totalPages int) error {
	if pr.IsFullDocument() {
		return nil
	}
	if pr.StartPage < 1 {
		return ErrInvalidPageRange("start page must be >= 1")
	}
	if pr.EndPage != 0 && pr.EndPage < pr.StartPage {
		return ErrInvalidPageRange("end page precedes start page")
	}
	if totalPages > 0 && pr.StartPage > totalPages {
		return ErrInvalidPageRange("start page past end of document")
	}
	return nil
}

// Bounds resolves the range to concrete 1-based [start, end] page numbers,
// clamped to the document. Call Validate first; Bounds does not reject
// inverted ranges, it only clamps.
func (pr PageRange) Bounds(totalPages int) (start, end int) {
	start = pr.StartPage
	if start < 1 {
		start = 1
	}
	end = pr.EndPage
	if end == 0 || end > totalPages {
		end = totalPages
	}
	if end < start {
		end = start
	}
	return start, end
}

type ErrInvalidPageRange string

func (e ErrInvalidPageRange) Error() string { return "invalid page range: " + string(e) }

// ProcessingRequest is the immutable input to the narration pipeline.
type ProcessingRequest struct {
	PDFPath    string    `json:"pdf_path"`
	OutputName string    `json:"output_name"`
	PageRange  PageRange `json:"page_range"`
	ReadAlong  bool      `json:"read_along"`
}

// PDFInfo is the document summary surfaced at upload time.
type PDFInfo struct {
	TotalPages int    `json:"total_pages"`
	Title      string `json:"title"`
	Author     string `json:"author"`
}

// TextSegment maps one unit of narrated text to an interval on the combined
// audio timeline. Within a timeline, segments are ordered by SentenceIndex
// and back-to-back: a segment starts exactly where the previous one ends.
type TextSegment struct {
	Text          string  `json:"text"`
	StartTime     float64 `json:"start_time"`
	Duration      float64 `json:"duration"`
	SegmentType   string  `json:"segment_type"` // "sentence" or "chunk"
	ChunkIndex    int     `json:"chunk_index"`
	SentenceIndex int     `json:"sentence_index"`
}

func (s TextSegment) EndTime() float64 { return s.StartTime + s.Duration }

const (
	SegmentTypeSentence = "sentence"
	SegmentTypeChunk    = "chunk"
)

// TimingMetadata is the read-along sidecar: a sentence-to-time mapping for
// the listed audio files. Built once after synthesis, immutable after.
type TimingMetadata struct {
	TotalDuration float64       `json:"total_duration"`
	AudioFiles    []string      `json:"audio_files"`
	TextSegments  []TextSegment `json:"text_segments"`
}

// SegmentAt returns the segment covering time t, by binary search over the
// ordered, non-overlapping segments. Returns false when t falls outside the
// timeline.
func (tm TimingMetadata) SegmentAt(t float64) (TextSegment, bool) {
	lo, hi := 0, len(tm.TextSegments)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		seg := tm.TextSegments[mid]
		switch {
		case t < seg.StartTime:
			hi = mid - 1
		case t >= seg.EndTime():
			lo = mid + 1
		default:
			return seg, true
		}
	}
	return TextSegment{}, false
}

// TimedAudioResult is the outcome of the read-along synthesis path.
type TimedAudioResult struct {
	AudioFiles  []string        `json:"audio_files"`
	CombinedMP3 string          `json:"combined_mp3,omitempty"`
	TimingData  *TimingMetadata `json:"timing_data,omitempty"`
}

func (r TimedAudioResult) HasTimingData() bool { return r.TimingData != nil }

// Upstream-error sentinels: early pipeline stages report failure as string
// values flowing with the data, recognized by prefix, never as panics.
var sentinelPrefixes = []string{
	"Error",
	"LLM cleaning skipped",
	"Could not convert",
	"No text could be extracted",
	"Tesseract",
}

// IsUpstreamError reports whether text is a sentinel produced by extraction
// or cleaning rather than narratable content.
func IsUpstreamError(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, p := range sentinelPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}
