package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LLM      LLMConfig
	TTS      TTSConfig
	Audio    AudioConfig
	Paths    PathsConfig
	Tuning   Tuning
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret    string
	APIKeyHeader string
}

type LLMConfig struct {
	OpenAIKey        string
	AnthropicKey     string
	OllamaURL        string
	DefaultProvider  string
	DefaultModel     string
	FallbackProvider string
	MaxRetries       int
	MaxChunkSize     int
}

// TTSConfig selects the speech engine and carries per-engine settings. Only
// the block matching Engine is consulted at wiring time.
type TTSConfig struct {
	Engine string // "openai", "gemini", "elevenlabs", "piper"

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAIVoice   string

	GeminiKey   string
	GeminiModel string
	GeminiVoice string

	ElevenLabsKey     string
	ElevenLabsVoiceID string

	PiperBinPath   string
	PiperModelPath string
}

// AudioConfig tunes chunking, concurrency and encoding.
type AudioConfig struct {
	ChunkSize       int
	MaxConcurrent   int
	ParallelEnabled bool
	ForceParallel   bool
	ForceSequential bool
	WordsPerSecond  float64
	FFmpegTimeout   time.Duration
	Bitrate         string
	SampleRate      int
	SSMLEnabled     bool
}

type PathsConfig struct {
	UploadsDir string
	AudioDir   string
}

// Tuning is the optional YAML overlay (TUNING_FILE) for voice pacing knobs
// that operators iterate on without redeploying.
type Tuning struct {
	WordsPerSecond    float64        `yaml:"words_per_second"`
	TransitionBreakMs int            `yaml:"transition_break_ms"`
	HeaderBreakMs     int            `yaml:"header_break_ms"`
	EllipsisBreakMs   int            `yaml:"ellipsis_break_ms"`
	EngineDelays      map[string]int `yaml:"engine_delays_ms"`
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}
	llmChunk, err := getEnvInt("LLM_MAX_CHUNK_SIZE", 100_000)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_CHUNK_SIZE: %w", err)
	}
	chunkSize, err := getEnvInt("AUDIO_CHUNK_SIZE", 3000)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIO_CHUNK_SIZE: %w", err)
	}
	maxConcurrent, err := getEnvInt("AUDIO_MAX_CONCURRENT", 4)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIO_MAX_CONCURRENT: %w", err)
	}
	ffmpegTimeout, err := getEnvInt("FFMPEG_TIMEOUT_SECONDS", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid FFMPEG_TIMEOUT_SECONDS: %w", err)
	}
	sampleRate, err := getEnvInt("AUDIO_SAMPLE_RATE", 22050)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIO_SAMPLE_RATE: %w", err)
	}
	wps, err := getEnvFloat("AUDIO_WORDS_PER_SECOND", 2.5)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIO_WORDS_PER_SECOND: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("AUTH_JWT_SECRET", ""),
			APIKeyHeader: getEnv("API_KEY_HEADER", "X-API-Key"),
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
			DefaultProvider:  getEnv("LLM_PROVIDER", "openai"),
			DefaultModel:     getEnv("LLM_MODEL", "gpt-4o-mini"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
			MaxChunkSize:     llmChunk,
		},
		TTS: TTSConfig{
			Engine:            getEnv("TTS_ENGINE", "openai"),
			OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:     getEnv("TTS_OPENAI_BASE_URL", ""),
			OpenAIModel:       getEnv("TTS_OPENAI_MODEL", ""),
			OpenAIVoice:       getEnv("TTS_OPENAI_VOICE", ""),
			GeminiKey:         getEnv("GEMINI_API_KEY", ""),
			GeminiModel:       getEnv("TTS_GEMINI_MODEL", ""),
			GeminiVoice:       getEnv("TTS_GEMINI_VOICE", ""),
			ElevenLabsKey:     getEnv("ELEVENLABS_API_KEY", ""),
			ElevenLabsVoiceID: getEnv("TTS_ELEVENLABS_VOICE_ID", ""),
			PiperBinPath:      getEnv("TTS_PIPER_BIN", "piper"),
			PiperModelPath:    getEnv("TTS_PIPER_MODEL", ""),
		},
		Audio: AudioConfig{
			ChunkSize:       chunkSize,
			MaxConcurrent:   maxConcurrent,
			ParallelEnabled: getEnvBool("AUDIO_PARALLEL_ENABLED", true),
			ForceParallel:   getEnvBool("AUDIO_FORCE_PARALLEL", false),
			ForceSequential: getEnvBool("AUDIO_FORCE_SEQUENTIAL", false),
			WordsPerSecond:  wps,
			FFmpegTimeout:   time.Duration(ffmpegTimeout) * time.Second,
			Bitrate:         getEnv("AUDIO_BITRATE", "128k"),
			SampleRate:      sampleRate,
			SSMLEnabled:     getEnvBool("SSML_ENABLED", false),
		},
		Paths: PathsConfig{
			UploadsDir: getEnv("UPLOADS_DIR", "uploads"),
			AudioDir:   getEnv("AUDIO_OUTPUT_DIR", "audio_output"),
		},
	}

	if path := getEnv("TUNING_FILE", ""); path != "" {
		tuning, err := loadTuning(path)
		if err != nil {
			return nil, err
		}
		cfg.Tuning = *tuning
		if tuning.WordsPerSecond > 0 {
			cfg.Audio.WordsPerSecond = tuning.WordsPerSecond
		}
	}

	return cfg, nil
}

func loadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning file: %w", err)
	}
	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse tuning file: %w", err)
	}
	return &t, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.ToLower(os.Getenv(key))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
