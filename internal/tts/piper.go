package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// PiperConfig holds configuration for the local Piper TTS backend.
type PiperConfig struct {
	BinPath   string // default: "piper"
	ModelPath string // required: path to the .onnx voice model
}

// PiperEngine synthesizes speech using the Piper binary via subprocess.
// Voice selection and speed are controlled via the model file, not runtime
// flags. Piper runs one inference at a time well; concurrent invocations
// thrash the CPU, hence PrefersSync.
type PiperEngine struct {
	cfg PiperConfig
}

func NewPiperEngine(cfg PiperConfig) *PiperEngine {
	if cfg.BinPath == "" {
		cfg.BinPath = "piper"
	}
	return &PiperEngine{cfg: cfg}
}

func (p *PiperEngine) Traits() Traits {
	return Traits{
		Name:         "piper-tts",
		OutputFormat: "wav",
		PrefersSync:  true,
		SupportsSSML: false,
		RequestDelay: 0,
	}
}

// GenerateAudio pipes text into Piper via stdin and returns the WAV output
// from stdout.
func (p *PiperEngine) GenerateAudio(ctx context.Context, text string) ([]byte, error) {
	if p.cfg.ModelPath == "" {
		return nil, fmt.Errorf("piper model path is required (set TTS_PIPER_MODEL)")
	}

	cmd := exec.CommandContext(ctx, p.cfg.BinPath, "--model", p.cfg.ModelPath, "--output_file", "-")

	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper failed: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.Bytes(), nil
}
