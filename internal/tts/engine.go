package tts

import (
	"context"
	"time"
)

// Traits describes an engine's declared capabilities. The synthesizer's
// strategy selection and rate limiting switch on these flags, never on the
// engine's concrete type or name.
type Traits struct {
	// Name identifies the engine in logs and debug info, e.g. "openai-tts".
	Name string
	// OutputFormat is the audio file extension without the dot ("mp3", "wav").
	OutputFormat string
	// PrefersSync marks engines that degrade under concurrent calls
	// (typically local model inference).
	PrefersSync bool
	// SupportsSSML enables the SSML annotation stage for this engine.
	SupportsSSML bool
	// RequestDelay is the minimum gap between sequential requests; non-zero
	// for cloud engines with rate limits.
	RequestDelay time.Duration
}

// Engine is the synthesis backend: one call converts one text segment into
// raw audio bytes.
type Engine interface {
	GenerateAudio(ctx context.Context, text string) ([]byte, error)
	Traits() Traits
}

type delayedEngine struct {
	Engine
	delay time.Duration
}

func (d delayedEngine) Traits() Traits {
	t := d.Engine.Traits()
	t.RequestDelay = d.delay
	return t
}

// WithRequestDelay overrides an engine's declared inter-request delay,
// letting operators slow down a rate-limited account without a code change.
func WithRequestDelay(e Engine, delay time.Duration) Engine {
	if delay <= 0 {
		return e
	}
	return delayedEngine{Engine: e, delay: delay}
}
