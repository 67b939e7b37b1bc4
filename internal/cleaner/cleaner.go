// Package cleaner rewrites raw PDF text into speech-ready prose via an LLM:
// extraction artifacts removed, pause markers inserted, long academic
// sentences broken up. Without a configured provider it degrades to a light
// mechanical cleanup rather than failing the pipeline.
package cleaner

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/nikhilbhutani/pdfnarrator/internal/llm"
	"github.com/nikhilbhutani/pdfnarrator/internal/models"
	"github.com/nikhilbhutani/pdfnarrator/pkg/chunker"
)

// DefaultMaxChunkSize bounds how much text goes into a single LLM call.
const DefaultMaxChunkSize = 100_000

// maxOverlapChars bounds the suffix/prefix window inspected when adjacent
// cleaned chunks repeat text across their shared boundary.
const maxOverlapChars = 200

// sectionJoin separates independently cleaned chunks; the marker reads as a
// long pause downstream.
const sectionJoin = "\n\n... ...\n\n"

type Config struct {
	Provider     string // gateway routing key; empty uses the gateway default
	Model        string
	Temperature  float64
	MaxChunkSize int           // default DefaultMaxChunkSize
	ChunkDelay   time.Duration // spacing between per-chunk LLM calls, default 1s
}

// Cleaner drives the LLM cleaning stage. A nil gateway is valid and selects
// the mechanical fallback.
type Cleaner struct {
	gateway llm.Gateway
	cfg     Config
}

func New(gateway llm.Gateway, cfg Config) *Cleaner {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = DefaultMaxChunkSize
	}
	if cfg.ChunkDelay <= 0 {
		cfg.ChunkDelay = time.Second
	}
	return &Cleaner{gateway: gateway, cfg: cfg}
}

// Clean returns the speech-ready version of rawText. Upstream-error
// sentinels pass through unchanged so later stages can recognize them; they
// are data, not errors. Oversize input is cleaned in sentence-boundary
// chunks and reassembled, with any chunk's LLM failure falling back to that
// chunk's raw text.
func (c *Cleaner) Clean(ctx context.Context, rawText string) string {
	if strings.TrimSpace(rawText) == "" {
		return ""
	}
	if models.IsUpstreamError(rawText) {
		slog.Warn("skipping cleaning, upstream error text")
		return rawText
	}
	if c.gateway == nil {
		slog.Info("no LLM configured, using mechanical cleanup")
		return mechanicalCleanup(rawText)
	}

	if len(rawText) <= c.cfg.MaxChunkSize {
		return c.cleanChunk(ctx, rawText)
	}

	parts := chunker.Split(rawText, c.cfg.MaxChunkSize)
	slog.Info("cleaning large text in chunks", "chars", len(rawText), "chunks", len(parts))

	cleaned := make([]string, 0, len(parts))
	for i, part := range parts {
		if i > 0 {
			select {
			case <-time.After(c.cfg.ChunkDelay):
			case <-ctx.Done():
				cleaned = append(cleaned, parts[i:]...)
				return mergeChunks(cleaned)
			}
		}
		cleaned = append(cleaned, c.cleanChunk(ctx, part))
	}
	return mergeChunks(cleaned)
}

func (c *Cleaner) cleanChunk(ctx context.Context, text string) string {
	resp, err := c.gateway.Chat(ctx, llm.ChatRequest{
		Provider:    c.cfg.Provider,
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []llm.Message{
			{Role: "user", Content: cleaningPrompt(text)},
		},
	})
	if err != nil {
		slog.Error("LLM cleaning failed, keeping raw chunk", "error", err)
		return mechanicalCleanup(text)
	}
	out := strings.TrimSpace(resp.Content)
	if out == "" {
		slog.Warn("LLM returned empty cleaning result, keeping raw chunk")
		return mechanicalCleanup(text)
	}
	slog.Debug("cleaned chunk", "in_chars", len(text), "out_chars", len(out),
		"provider", resp.Provider, "cost_usd", resp.CostUSD)
	return out
}

func cleaningPrompt(text string) string {
	return fmt.Sprintf(`Your primary goal is to clean the following text from a document and optimize it for text-to-speech conversion.

Key cleaning tasks:
- Remove headers, footers, page numbers, running titles, journal names
- Remove line numbers, marginalia, watermarks, scanning artifacts
- Skip in-text citations (e.g., [1], (Author, 2023))
- Skip mathematical formulas and equations
- Clean URLs to just domain names

Speech optimization:
- Add natural pause markers using ellipses (...) where a speaker would pause
- Before major topic transitions, add "... ... ..." for a longer pause
- For transition words (however, therefore, moreover), add a preceding pause
- Break overly long sentences at natural points
- Join hyphenated words split across lines (e.g., "effec-
tive" becomes "effective")
- Replace bullet points with speech-friendly enumeration: "First... Second... Third..."

Here is the text to clean:
---
%s
---

Cleaned text:`, text)
}

var paragraphBreakRe = regexp.MustCompile(`\n\s*\n`)

// mechanicalCleanup is the no-LLM path: collapse paragraph breaks into pause
// markers so the narration still breathes.
func mechanicalCleanup(text string) string {
	return strings.TrimSpace(paragraphBreakRe.ReplaceAllString(text, "\n\n... "))
}

// mergeChunks reassembles independently cleaned chunks as a pure left fold.
// When the tail of the accumulated text reappears at the head of the next
// chunk (the LLM re-emitting boundary context), the duplicated span is
// stripped once; otherwise the chunks are joined with a section pause.
func mergeChunks(chunks []string) string {
	out := ""
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if out == "" {
			out = chunk
			continue
		}
		if n := overlapLength(out, chunk); n > 0 {
			chunk = strings.TrimSpace(chunk[n:])
			if chunk == "" {
				continue
			}
			out += " " + chunk
			continue
		}
		out += sectionJoin + chunk
	}
	return out
}

// overlapLength returns the length of the longest suffix of prev that is
// also a prefix of next, considering only word-boundary-aligned spans up to
// maxOverlapChars. Zero means no overlap.
func overlapLength(prev, next string) int {
	window := prev
	if len(window) > maxOverlapChars {
		window = window[len(window)-maxOverlapChars:]
		// Align the window start to a word boundary.
		if i := strings.IndexByte(window, ' '); i >= 0 {
			window = window[i+1:]
		}
	}
	for start := 0; start < len(window); {
		candidate := window[start:]
		if strings.HasPrefix(next, candidate) {
			end := len(candidate)
			if end == len(next) || next[end] == ' ' || next[end] == '\n' {
				return end
			}
		}
		i := strings.IndexByte(window[start:], ' ')
		if i < 0 {
			break
		}
		start += i + 1
	}
	return 0
}
