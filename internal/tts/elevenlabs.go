package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ElevenLabsConfig holds configuration for the ElevenLabs TTS backend.
type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string // default: "https://api.elevenlabs.io/v1"
	VoiceID string // default: "21m00Tcm4TlvDq8ikWAM" (Rachel)
	ModelID string // default: "eleven_monolingual_v1"
}

// ElevenLabsEngine synthesizes speech using the ElevenLabs API.
type ElevenLabsEngine struct {
	cfg        ElevenLabsConfig
	httpClient *http.Client
}

func NewElevenLabsEngine(cfg ElevenLabsConfig) *ElevenLabsEngine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io/v1"
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = "21m00Tcm4TlvDq8ikWAM"
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "eleven_monolingual_v1"
	}
	return &ElevenLabsEngine{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (e *ElevenLabsEngine) Traits() Traits {
	return Traits{
		Name:         "elevenlabs-tts",
		OutputFormat: "mp3",
		PrefersSync:  false,
		SupportsSSML: true,
		RequestDelay: 1500 * time.Millisecond,
	}
}

// GenerateAudio converts text to audio and returns the audio bytes as MP3.
func (e *ElevenLabsEngine) GenerateAudio(ctx context.Context, text string) ([]byte, error) {
	body := map[string]any{
		"text":     text,
		"model_id": e.cfg.ModelID,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", e.cfg.BaseURL, e.cfg.VoiceID)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", e.cfg.APIKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tts failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	return audio, nil
}
