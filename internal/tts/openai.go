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

// OpenAIConfig holds configuration for the OpenAI TTS backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string  // default: "https://api.openai.com/v1"
	Model   string  // default: "tts-1"
	Voice   string  // default: "alloy"
	Speed   float64 // 0 leaves the API default
}

// OpenAIEngine synthesizes speech using OpenAI's TTS API.
type OpenAIEngine struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIEngine creates an OpenAIEngine with sensible defaults applied.
func NewOpenAIEngine(cfg OpenAIConfig) *OpenAIEngine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "tts-1"
	}
	if cfg.Voice == "" {
		cfg.Voice = "alloy"
	}
	return &OpenAIEngine{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (o *OpenAIEngine) Traits() Traits {
	return Traits{
		Name:         "openai-tts",
		OutputFormat: "mp3",
		PrefersSync:  false,
		SupportsSSML: false,
		RequestDelay: time.Second,
	}
}

// GenerateAudio converts text to audio and returns the audio bytes as MP3.
func (o *OpenAIEngine) GenerateAudio(ctx context.Context, text string) ([]byte, error) {
	body := map[string]any{
		"model": o.cfg.Model,
		"input": text,
		"voice": o.cfg.Voice,
	}
	if o.cfg.Speed > 0 {
		body["speed"] = o.cfg.Speed
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.cfg.BaseURL+"/audio/speech", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.httpClient.Do(httpReq)
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
