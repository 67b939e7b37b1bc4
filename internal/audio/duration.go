package audio

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/go-audio/wav"
)

// MeasureWAVDuration reads a WAV file's rendered duration from its frame
// count and sample rate. Compressed formats (mp3) are not measurable here;
// callers fall back to estimation.
func MeasureWAVDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dur, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("read wav duration: %w", err)
	}
	if dur <= 0 {
		return 0, fmt.Errorf("wav reports non-positive duration")
	}
	return dur.Seconds(), nil
}

// DefaultWordsPerSecond is the natural speech rate used when a segment's
// audio cannot be measured.
const DefaultWordsPerSecond = 2.5

// minEstimatedDuration floors estimates so even one-word sentences occupy a
// visible slice of the timeline.
const minEstimatedDuration = 0.5

// EstimateDuration approximates speaking time for text from its word count.
func EstimateDuration(text string, wordsPerSecond float64) float64 {
	if wordsPerSecond <= 0 {
		wordsPerSecond = DefaultWordsPerSecond
	}
	words := len(strings.Fields(text))
	return math.Max(float64(words)/wordsPerSecond, minEstimatedDuration)
}
