// Package ssml adds speech-synthesis markup to narration text for engines
// that understand it. The rules target long-form document narration: pauses
// around discourse transitions and section headers, emphasis on words that
// signal findings or significance.
package ssml

import (
	"fmt"
	"regexp"
	"strings"
)

// Config tunes the generated break lengths (milliseconds).
type Config struct {
	TransitionBreakMs int // pause after discourse transitions, default 400
	HeaderBreakMs     int // pause after numbered section headers, default 800
	EllipsisBreakMs   int // pause for "..." in the source text, default 500
	Emphasis          bool
}

// Annotator rewrites plain sentences into SSML. Output is always wrapped in
// a single <speak> element; input that already carries markup is passed
// through untouched.
type Annotator struct {
	cfg Config
}

func NewAnnotator(cfg Config) *Annotator {
	if cfg.TransitionBreakMs <= 0 {
		cfg.TransitionBreakMs = 400
	}
	if cfg.HeaderBreakMs <= 0 {
		cfg.HeaderBreakMs = 800
	}
	if cfg.EllipsisBreakMs <= 0 {
		cfg.EllipsisBreakMs = 500
	}
	return &Annotator{cfg: cfg}
}

var (
	ellipsisRe   = regexp.MustCompile(`\.{3,}`)
	transitionRe = regexp.MustCompile(`(?i)\b(however|nevertheless|nonetheless|furthermore|moreover|additionally|therefore|consequently|thus|hence|in conclusion|to summarize|in summary|finally)\b,?\s*`)
	// "1. Introduction." style headers at line start.
	headerRe = regexp.MustCompile(`(?m)^(\d+\.?\s+[A-Z][^.!?\n]*[.!?])\s*`)
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// emphasisWords mark results and significance language worth stressing when
// reading research-style prose aloud.
var emphasisWords = []string{
	"significant", "significantly", "important", "critical", "crucial",
	"essential", "fundamental", "key", "demonstrated", "revealed",
	"discovered", "concluded", "confirmed",
}

var emphasisRe = regexp.MustCompile(`(?i)\b(` + strings.Join(emphasisWords, "|") + `)\b`)

// Annotate converts text to SSML. Engines without SSML support should never
// see this output; callers gate on the engine's traits.
func (a *Annotator) Annotate(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "<speak></speak>"
	}
	if strings.HasPrefix(text, "<speak>") {
		return text
	}

	text = ellipsisRe.ReplaceAllString(text, fmt.Sprintf(`<break time="%dms"/>`, a.cfg.EllipsisBreakMs))
	text = transitionRe.ReplaceAllString(text, fmt.Sprintf(`$1,<break time="%dms"/> `, a.cfg.TransitionBreakMs))
	text = headerRe.ReplaceAllString(text, fmt.Sprintf(`$1<break time="%dms"/>`+"\n", a.cfg.HeaderBreakMs))

	if a.cfg.Emphasis {
		text = emphasizeOutsideTags(text)
	}

	return "<speak>" + text + "</speak>"
}

// emphasizeOutsideTags wraps emphasis words in <emphasis> elements while
// leaving text inside existing tags alone, so break attributes are never
// rewritten.
func emphasizeOutsideTags(text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range tagRe.FindAllStringIndex(text, -1) {
		b.WriteString(emphasisRe.ReplaceAllString(text[last:loc[0]], `<emphasis level="moderate">$1</emphasis>`))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(emphasisRe.ReplaceAllString(text[last:], `<emphasis level="moderate">$1</emphasis>`))
	return b.String()
}

// Strip removes all markup, collapsing whitespace. Used for display text and
// word-count duration estimates, which must see what the listener hears.
func Strip(text string) string {
	clean := tagRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(clean, " "))
}
