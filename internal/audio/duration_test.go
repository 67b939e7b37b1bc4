package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// encodeTestWAV writes a silent mono 16-bit WAV of the given length and
// returns its path.
func encodeTestWAV(t *testing.T, dir string, seconds float64) string {
	t.Helper()
	const sampleRate = 8000
	path := filepath.Join(dir, "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, int(float64(sampleRate)*seconds)),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
	return path
}

func TestMeasureWAVDuration(t *testing.T) {
	path := encodeTestWAV(t, t.TempDir(), 1.5)
	got, err := MeasureWAVDuration(path)
	if err != nil {
		t.Fatalf("MeasureWAVDuration: %v", err)
	}
	if math.Abs(got-1.5) > 0.01 {
		t.Errorf("duration = %.3f, want 1.5", got)
	}
}

func TestMeasureWAVDurationRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(path, []byte("this is not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := MeasureWAVDuration(path); err == nil {
		t.Error("expected error for non-WAV data")
	}
}

func TestMeasureWAVDurationMissingFile(t *testing.T) {
	if _, err := MeasureWAVDuration(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEstimateDuration(t *testing.T) {
	cases := []struct {
		name string
		text string
		wps  float64
		want float64
	}{
		{"five words at default rate", "one two three four five", 2.5, 2.0},
		{"short text hits the floor", "hi", 2.5, 0.5},
		{"empty text hits the floor", "", 2.5, 0.5},
		{"zero rate falls back to default", "one two three four five", 0, 2.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimateDuration(tc.text, tc.wps); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("EstimateDuration(%q, %v) = %v, want %v", tc.text, tc.wps, got, tc.want)
			}
		})
	}
}
