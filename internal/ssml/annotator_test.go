package ssml

import (
	"strings"
	"testing"
)

func TestAnnotateWrapsInSpeak(t *testing.T) {
	a := NewAnnotator(Config{})
	got := a.Annotate("Plain sentence.")
	if !strings.HasPrefix(got, "<speak>") || !strings.HasSuffix(got, "</speak>") {
		t.Errorf("not wrapped: %q", got)
	}
}

func TestAnnotatePassesThroughExistingMarkup(t *testing.T) {
	a := NewAnnotator(Config{})
	in := "<speak>Already marked up.</speak>"
	if got := a.Annotate(in); got != in {
		t.Errorf("rewrote existing SSML: %q", got)
	}
}

func TestAnnotateTransitionBreaks(t *testing.T) {
	a := NewAnnotator(Config{TransitionBreakMs: 400})
	got := a.Annotate("The results were good. However, the sample was small.")
	if !strings.Contains(got, `However,<break time="400ms"/>`) {
		t.Errorf("no transition break: %q", got)
	}
}

func TestAnnotateEllipsisBreak(t *testing.T) {
	a := NewAnnotator(Config{EllipsisBreakMs: 500})
	got := a.Annotate("And then... silence.")
	if !strings.Contains(got, `<break time="500ms"/>`) {
		t.Errorf("no ellipsis break: %q", got)
	}
	if strings.Contains(got, "...") {
		t.Errorf("ellipsis left in output: %q", got)
	}
}

func TestAnnotateSectionHeaderBreak(t *testing.T) {
	a := NewAnnotator(Config{HeaderBreakMs: 800})
	got := a.Annotate("1. Introduction.\nThe field has grown.")
	if !strings.Contains(got, `Introduction.<break time="800ms"/>`) {
		t.Errorf("no header break: %q", got)
	}
}

func TestAnnotateEmphasis(t *testing.T) {
	a := NewAnnotator(Config{Emphasis: true})
	got := a.Annotate("The difference was significant.")
	if !strings.Contains(got, `<emphasis level="moderate">significant</emphasis>`) {
		t.Errorf("no emphasis: %q", got)
	}
}

func TestAnnotateEmphasisLeavesTagsAlone(t *testing.T) {
	a := NewAnnotator(Config{Emphasis: true, TransitionBreakMs: 400})
	got := a.Annotate("However, the key finding was significant... and critical.")
	if strings.Contains(got, `time="<emphasis`) {
		t.Errorf("emphasis leaked into a tag attribute: %q", got)
	}
	if !strings.Contains(got, `<emphasis level="moderate">significant</emphasis>`) {
		t.Errorf("emphasis missing: %q", got)
	}
}

func TestAnnotateEmptyInput(t *testing.T) {
	a := NewAnnotator(Config{})
	if got := a.Annotate("   "); got != "<speak></speak>" {
		t.Errorf("got %q", got)
	}
}

func TestStrip(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"plain text untouched", "No markup here.", "No markup here."},
		{"tags removed", `<speak>Hello <break time="500ms"/>world.</speak>`, "Hello world."},
		{"emphasis unwrapped", `<emphasis level="moderate">key</emphasis> result`, "key result"},
		{"whitespace collapsed", "a   b\n\nc", "a b c"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Strip(tc.in); got != tc.want {
				t.Errorf("Strip(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestAnnotateThenStripRoundTrip(t *testing.T) {
	a := NewAnnotator(Config{Emphasis: true})
	in := "However, the results were significant."
	got := Strip(a.Annotate(in))
	for _, word := range strings.Fields("However the results were significant") {
		if !strings.Contains(got, word) {
			t.Errorf("word %q lost: %q", word, got)
		}
	}
	if strings.Contains(got, "<") {
		t.Errorf("markup survived Strip: %q", got)
	}
}
