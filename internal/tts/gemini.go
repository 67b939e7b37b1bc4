package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// GeminiConfig holds configuration for the Gemini TTS backend.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // default: "https://generativelanguage.googleapis.com/v1beta"
	Model   string // default: "gemini-2.5-flash-preview-tts"
	Voice   string // default: "Kore"
}

// GeminiEngine synthesizes speech using the Gemini TTS API. The API returns
// raw 16-bit mono PCM at 24 kHz; the engine wraps it into a WAV container so
// downstream duration measurement can read frame counts.
type GeminiEngine struct {
	cfg        GeminiConfig
	httpClient *http.Client
}

const geminiPCMSampleRate = 24000

func NewGeminiEngine(cfg GeminiConfig) *GeminiEngine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-preview-tts"
	}
	if cfg.Voice == "" {
		cfg.Voice = "Kore"
	}
	return &GeminiEngine{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (g *GeminiEngine) Traits() Traits {
	return Traits{
		Name:         "gemini-tts",
		OutputFormat: "wav",
		PrefersSync:  false,
		SupportsSSML: true,
		RequestDelay: 2 * time.Second,
	}
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig geminiGenConfig  `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	ResponseModalities []string          `json:"responseModalities"`
	SpeechConfig       geminiSpeechConf  `json:"speechConfig"`
}

type geminiSpeechConf struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateAudio converts text to a WAV-wrapped PCM clip.
func (g *GeminiEngine) GenerateAudio(ctx context.Context, text string) ([]byte, error) {
	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: text}}}},
		GenerationConfig: geminiGenConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	req.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = g.cfg.Voice

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.cfg.BaseURL, g.cfg.Model, g.cfg.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tts failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty tts response")
	}

	pcm, err := base64.StdEncoding.DecodeString(parsed.Candidates[0].Content.Parts[0].InlineData.Data)
	if err != nil {
		return nil, fmt.Errorf("decode audio payload: %w", err)
	}

	return pcmToWAV(pcm, geminiPCMSampleRate)
}

// pcmToWAV wraps 16-bit little-endian mono PCM into a WAV container.
func pcmToWAV(pcm []byte, sampleRate int) ([]byte, error) {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	var sink seekBuffer
	enc := wav.NewEncoder(&sink, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav: %w", err)
	}
	return sink.buf, nil
}

// seekBuffer is an in-memory io.WriteSeeker for the WAV encoder, which seeks
// back to patch chunk sizes on Close.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if need := s.pos + len(p); need > len(s.buf) {
		grown := make([]byte, need)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:], p)
	s.pos += len(p)
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(s.pos) + offset
	case io.SeekEnd:
		next = int64(len(s.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position")
	}
	s.pos = int(next)
	return next, nil
}
