// Package chunker splits narration text into bounded segments for TTS
// synthesis. Splitting prefers sentence boundaries and falls back to word
// boundaries for sentences that alone exceed the limit; a word is never
// broken when that is avoidable.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const DefaultChunkSize = 3000

// Common abbreviations whose trailing period must not end a sentence.
var abbreviations = []string{
	"Dr.", "Mr.", "Mrs.", "Ms.", "Prof.", "St.", "Jr.", "Sr.",
	"vs.", "etc.", "e.g.", "i.e.", "et al.", "Fig.", "No.", "pp.",
}

// maskRune temporarily stands in for an abbreviation's period so the
// sentence scan skips it.
const maskRune = '\x01'

// Split breaks text into chunks of at most maxSize characters (best effort:
// a single word longer than maxSize is emitted whole). Empty or
// whitespace-only input yields no chunks. Split is pure: the same input
// always produces the same output.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
		currentLen = 0
	}

	for _, sentence := range Sentences(text) {
		sentLen := utf8.RuneCountInString(sentence)
		if sentLen > maxSize {
			// Oversized sentence: flush what we have and pack it by words.
			flush()
			chunks = append(chunks, splitWords(sentence, maxSize)...)
			continue
		}
		if currentLen > 0 && currentLen+1+sentLen > maxSize {
			flush()
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(sentence)
		currentLen += sentLen
	}
	flush()

	return chunks
}

// Sentences splits text at sentence boundaries (., !, ? followed by
// whitespace), guarding abbreviation periods so "Dr. Smith" stays intact.
// Used both for chunk packing and, at full granularity, for read-along
// timing reconstruction.
func Sentences(text string) []string {
	masked := maskAbbreviations(text)

	var sentences []string
	var current strings.Builder

	runes := []rune(masked)
	for i, r := range runes {
		current.WriteRune(r)
		if isSentenceEnd(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := flushSentence(&current); s != "" {
				sentences = append(sentences, s)
			}
		}
	}
	if s := flushSentence(&current); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func flushSentence(b *strings.Builder) string {
	s := strings.TrimSpace(unmaskAbbreviations(b.String()))
	b.Reset()
	return s
}

func maskAbbreviations(text string) string {
	for _, abbr := range abbreviations {
		if !strings.Contains(text, abbr) {
			continue
		}
		masked := strings.ReplaceAll(abbr, ".", string(maskRune))
		text = strings.ReplaceAll(text, abbr, masked)
	}
	return text
}

func unmaskAbbreviations(text string) string {
	return strings.ReplaceAll(text, string(maskRune), ".")
}

// splitWords greedily packs whitespace-separated words up to maxSize. A word
// longer than maxSize is emitted as its own chunk rather than broken.
func splitWords(sentence string, maxSize int) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, word := range strings.Fields(sentence) {
		wordLen := utf8.RuneCountInString(word)
		if currentLen > 0 && currentLen+1+wordLen > maxSize {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += wordLen
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
