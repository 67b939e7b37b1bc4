package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Audio.ChunkSize != 3000 {
		t.Errorf("chunk size = %d", cfg.Audio.ChunkSize)
	}
	if cfg.Audio.MaxConcurrent != 4 {
		t.Errorf("max concurrent = %d", cfg.Audio.MaxConcurrent)
	}
	if cfg.Audio.WordsPerSecond != 2.5 {
		t.Errorf("words per second = %v", cfg.Audio.WordsPerSecond)
	}
	if cfg.Audio.FFmpegTimeout != 300*time.Second {
		t.Errorf("ffmpeg timeout = %v", cfg.Audio.FFmpegTimeout)
	}
	if cfg.Audio.Bitrate != "128k" || cfg.Audio.SampleRate != 22050 {
		t.Errorf("encoding profile = %s/%d", cfg.Audio.Bitrate, cfg.Audio.SampleRate)
	}
	if cfg.TTS.Engine != "openai" {
		t.Errorf("tts engine = %q", cfg.TTS.Engine)
	}
	if cfg.LLM.MaxChunkSize != 100_000 {
		t.Errorf("llm chunk size = %d", cfg.LLM.MaxChunkSize)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Errorf("allowed origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("TTS_ENGINE", "piper")
	t.Setenv("AUDIO_PARALLEL_ENABLED", "false")
	t.Setenv("AUDIO_WORDS_PER_SECOND", "3.0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://reader.example.com, https://staging.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.TTS.Engine != "piper" {
		t.Errorf("engine = %q", cfg.TTS.Engine)
	}
	if cfg.Audio.ParallelEnabled {
		t.Error("parallel should be disabled")
	}
	if cfg.Audio.WordsPerSecond != 3.0 {
		t.Errorf("words per second = %v", cfg.Audio.WordsPerSecond)
	}
	origins := cfg.Server.AllowedOrigins
	if len(origins) != 2 || origins[0] != "https://reader.example.com" || origins[1] != "https://staging.example.com" {
		t.Errorf("allowed origins = %v", origins)
	}
}

func TestLoadRejectsBadInt(t *testing.T) {
	t.Setenv("AUDIO_CHUNK_SIZE", "lots")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric AUDIO_CHUNK_SIZE")
	}
}

func TestLoadTuningFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	content := "words_per_second: 2.0\ntransition_break_ms: 350\nengine_delays_ms:\n  gemini-tts: 2500\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TUNING_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tuning.TransitionBreakMs != 350 {
		t.Errorf("transition break = %d", cfg.Tuning.TransitionBreakMs)
	}
	if cfg.Audio.WordsPerSecond != 2.0 {
		t.Errorf("tuning did not override words per second: %v", cfg.Audio.WordsPerSecond)
	}
	if cfg.Tuning.EngineDelays["gemini-tts"] != 2500 {
		t.Errorf("engine delays = %v", cfg.Tuning.EngineDelays)
	}
}

func TestLoadTuningFileMissing(t *testing.T) {
	t.Setenv("TUNING_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing tuning file")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing-vars error")
	}
	cfg.Database.URL = "postgres://localhost/narrator"
	cfg.Auth.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestAddr(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Host: "127.0.0.1", Port: 9090}}
	if got := cfg.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("Addr = %q", got)
	}
}
