package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	text := "Dr. Smith arrived. The study concluded."
	chunks := Split(text, 1000)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != text {
		t.Errorf("chunk altered text: %q", chunks[0])
	}
}

func TestSplitEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t  \n"} {
		if chunks := Split(text, 100); chunks != nil {
			t.Errorf("Split(%q) = %v, want nil", text, chunks)
		}
	}
}

func TestSplitRespectsMaxSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
	}
	text := b.String()

	chunks := Split(text, 120)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 120 {
			t.Errorf("chunk %d has %d chars, exceeds limit", i, n)
		}
	}
}

func TestSplitPreservesContent(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("Sentence number one here. Another sentence follows! Is this a question? ")
	}
	text := strings.TrimSpace(b.String())

	chunks := Split(text, 100)
	joined := strings.Join(chunks, " ")

	if normalize(joined) != normalize(text) {
		t.Errorf("content changed after split\n got: %q\nwant: %q", normalize(joined), normalize(text))
	}
}

func TestSplitIdempotent(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Alpha beta gamma delta epsilon. ")
	}
	text := b.String()

	first := Split(text, 90)
	second := Split(text, 90)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitOversizedSentenceFallsBackToWords(t *testing.T) {
	words := make([]string, 60)
	for i := range words {
		words[i] = "word"
	}
	sentence := strings.Join(words, " ") + "."

	chunks := Split(sentence+" Short one.", 50)
	if len(chunks) < 2 {
		t.Fatalf("expected word-level split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 50 {
			t.Errorf("chunk %d has %d chars, exceeds limit", i, n)
		}
		if strings.Contains(c, "wo rd") {
			t.Errorf("chunk %d split mid-word: %q", i, c)
		}
	}
}

func TestSentencesGuardsAbbreviations(t *testing.T) {
	got := Sentences("Dr. Smith arrived. The study concluded.")
	want := []string{"Dr. Smith arrived.", "The study concluded."}
	if len(got) != len(want) {
		t.Fatalf("got %d sentences %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSentencesMixedTerminators(t *testing.T) {
	got := Sentences("What now? It works! Prof. Jones agrees, e.g. in the appendix.")
	want := []string{"What now?", "It works!", "Prof. Jones agrees, e.g. in the appendix."}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSentencesEmpty(t *testing.T) {
	if got := Sentences("   "); got != nil {
		t.Errorf("Sentences(blank) = %v, want nil", got)
	}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
