package cleaner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nikhilbhutani/pdfnarrator/internal/llm"
)

type fakeGateway struct {
	chat  func(req llm.ChatRequest) (*llm.ChatResponse, error)
	calls []llm.ChatRequest
}

func (g *fakeGateway) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	g.calls = append(g.calls, req)
	if g.chat != nil {
		return g.chat(req)
	}
	return &llm.ChatResponse{Content: "cleaned text"}, nil
}

func (g *fakeGateway) Provider(string) (llm.Provider, error) { return nil, errors.New("not used") }
func (g *fakeGateway) ListModels() []llm.ModelInfo           { return nil }

func TestCleanEmptyInput(t *testing.T) {
	c := New(&fakeGateway{}, Config{})
	if got := c.Clean(context.Background(), "   \n"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestCleanSentinelPassthrough(t *testing.T) {
	gw := &fakeGateway{}
	c := New(gw, Config{})
	in := "Error during OCR: tesseract not found"
	if got := c.Clean(context.Background(), in); got != in {
		t.Errorf("sentinel rewritten: %q", got)
	}
	if len(gw.calls) != 0 {
		t.Errorf("LLM called %d times for sentinel input", len(gw.calls))
	}
}

func TestCleanNoGatewayFallback(t *testing.T) {
	c := New(nil, Config{})
	got := c.Clean(context.Background(), "First paragraph.\n\nSecond paragraph.")
	if !strings.Contains(got, "... ") {
		t.Errorf("fallback added no pause markers: %q", got)
	}
	if !strings.Contains(got, "First paragraph.") || !strings.Contains(got, "Second paragraph.") {
		t.Errorf("fallback lost content: %q", got)
	}
}

func TestCleanSingleChunk(t *testing.T) {
	gw := &fakeGateway{
		chat: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
			if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "raw pdf text") {
				t.Errorf("prompt missing source text: %+v", req.Messages)
			}
			return &llm.ChatResponse{Content: "  polished narration  "}, nil
		},
	}
	c := New(gw, Config{Model: "gpt-4o-mini"})
	got := c.Clean(context.Background(), "raw pdf text")
	if got != "polished narration" {
		t.Errorf("got %q", got)
	}
	if len(gw.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(gw.calls))
	}
	if gw.calls[0].Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gw.calls[0].Model)
	}
}

func TestCleanChunkFailureFallsBackToRawChunk(t *testing.T) {
	gw := &fakeGateway{
		chat: func(llm.ChatRequest) (*llm.ChatResponse, error) {
			return nil, errors.New("provider down")
		},
	}
	c := New(gw, Config{})
	got := c.Clean(context.Background(), "Original sentence survives.")
	if !strings.Contains(got, "Original sentence survives.") {
		t.Errorf("raw text lost on LLM failure: %q", got)
	}
}

func TestCleanLargeTextChunksAndReassembles(t *testing.T) {
	first := strings.Repeat("Sentence in part one. ", 10)
	second := strings.Repeat("Sentence in part two. ", 10)
	raw := first + second

	gw := &fakeGateway{
		chat: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
			if strings.Contains(req.Messages[0].Content, "part one") {
				return &llm.ChatResponse{Content: "cleaned part one."}, nil
			}
			return &llm.ChatResponse{Content: "cleaned part two."}, nil
		},
	}
	c := New(gw, Config{MaxChunkSize: len(first) + 5, ChunkDelay: 1})
	got := c.Clean(context.Background(), raw)

	if len(gw.calls) < 2 {
		t.Fatalf("calls = %d, want chunked cleaning", len(gw.calls))
	}
	if !strings.Contains(got, "cleaned part one.") || !strings.Contains(got, "cleaned part two.") {
		t.Errorf("reassembly lost a chunk: %q", got)
	}
	if strings.Index(got, "part one") > strings.Index(got, "part two") {
		t.Errorf("chunk order not preserved: %q", got)
	}
}

func TestMergeChunksStripsBoundaryOverlap(t *testing.T) {
	got := mergeChunks([]string{
		"The study ran for ten years. The results were clear.",
		"The results were clear. Further work is planned.",
	})
	if strings.Count(got, "The results were clear.") != 1 {
		t.Errorf("overlap not stripped: %q", got)
	}
	if !strings.Contains(got, "Further work is planned.") {
		t.Errorf("tail lost: %q", got)
	}
}

func TestMergeChunksNoOverlapJoinsWithPause(t *testing.T) {
	got := mergeChunks([]string{"Part one ends here.", "Part two starts here."})
	if !strings.Contains(got, "... ...") {
		t.Errorf("no section pause between chunks: %q", got)
	}
}

func TestMergeChunksPureFold(t *testing.T) {
	in := []string{"alpha.", "beta.", "gamma."}
	a := mergeChunks(in)
	b := mergeChunks(in)
	if a != b {
		t.Errorf("merge not deterministic: %q vs %q", a, b)
	}
	if got := mergeChunks(nil); got != "" {
		t.Errorf("empty input → %q", got)
	}
	if got := mergeChunks([]string{"", "only.", ""}); got != "only." {
		t.Errorf("blank chunks not skipped: %q", got)
	}
}

func TestOverlapLength(t *testing.T) {
	cases := []struct {
		name       string
		prev, next string
		want       int
	}{
		{"exact sentence overlap", "a b c shared tail", "shared tail and more", len("shared tail")},
		{"no overlap", "completely different", "unrelated text", 0},
		{"mid-word never matches", "ends with abc", "abcdef more", 0},
		{"full next inside prev", "x y z", "z", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := overlapLength(tc.prev, tc.next); got != tc.want {
				t.Errorf("overlapLength(%q, %q) = %d, want %d", tc.prev, tc.next, got, tc.want)
			}
		})
	}
}
