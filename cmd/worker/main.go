package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/pdfnarrator/internal/audio"
	"github.com/nikhilbhutani/pdfnarrator/internal/cache"
	"github.com/nikhilbhutani/pdfnarrator/internal/cleaner"
	"github.com/nikhilbhutani/pdfnarrator/internal/config"
	"github.com/nikhilbhutani/pdfnarrator/internal/database"
	"github.com/nikhilbhutani/pdfnarrator/internal/document"
	"github.com/nikhilbhutani/pdfnarrator/internal/jobs"
	"github.com/nikhilbhutani/pdfnarrator/internal/llm"
	"github.com/nikhilbhutani/pdfnarrator/internal/pipeline"
	"github.com/nikhilbhutani/pdfnarrator/internal/queue"
	"github.com/nikhilbhutani/pdfnarrator/internal/queue/workers"
	"github.com/nikhilbhutani/pdfnarrator/internal/ssml"
	"github.com/nikhilbhutani/pdfnarrator/internal/storage"
	"github.com/nikhilbhutani/pdfnarrator/internal/tts"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis cache unavailable, status snapshots disabled", "error", err)
	}
	defer rdb.Close()

	files, err := storage.NewFileManager(cfg.Paths.UploadsDir, cfg.Paths.AudioDir)
	if err != nil {
		slog.Error("file manager setup failed", "error", err)
		os.Exit(1)
	}

	engine := buildEngine(cfg)
	traits := engine.Traits()
	slog.Info("tts engine ready", "engine", traits.Name, "format", traits.OutputFormat)

	stitcher := audio.NewStitcher(audio.StitcherConfig{
		Bitrate:    cfg.Audio.Bitrate,
		SampleRate: cfg.Audio.SampleRate,
		Timeout:    cfg.Audio.FFmpegTimeout,
	})
	if !stitcher.Available() {
		slog.Warn("ffmpeg not found, jobs will produce per-segment files only")
	}

	cl := cleaner.New(llm.NewGateway(cfg.LLM), cleaner.Config{
		Provider:     cfg.LLM.DefaultProvider,
		Model:        cfg.LLM.DefaultModel,
		MaxChunkSize: cfg.LLM.MaxChunkSize,
	})

	pipe := pipeline.New(document.NewService(), cl, engine, stitcher, files, pipeline.Config{
		ChunkSize:   cfg.Audio.ChunkSize,
		SSMLEnabled: cfg.Audio.SSMLEnabled,
		SSML: ssml.Config{
			TransitionBreakMs: cfg.Tuning.TransitionBreakMs,
			HeaderBreakMs:     cfg.Tuning.HeaderBreakMs,
			EllipsisBreakMs:   cfg.Tuning.EllipsisBreakMs,
		},
		WordsPerSecond: cfg.Audio.WordsPerSecond,
		Synth: audio.SynthesizerConfig{
			MaxConcurrent:   cfg.Audio.MaxConcurrent,
			ParallelEnabled: cfg.Audio.ParallelEnabled,
			ForceParallel:   cfg.Audio.ForceParallel,
			ForceSequential: cfg.Audio.ForceSequential,
		},
	})

	store := jobs.NewStore(db)
	statusCache := cache.NewCache(rdb)
	narrationWorker := workers.NewNarrationWorker(store, pipe, statusCache)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			// Narration jobs are heavyweight; the pipeline parallelizes
			// internally, so keep task-level concurrency low.
			Concurrency: 2,
			Queues: map[string]int{
				queue.QueueNarrations: 1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeNarrationProcess, asynq.HandlerFunc(narrationWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", 2)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}

// buildEngine constructs the configured TTS backend and applies any tuned
// request delay for it.
func buildEngine(cfg *config.Config) tts.Engine {
	var engine tts.Engine
	switch cfg.TTS.Engine {
	case "gemini":
		engine = tts.NewGeminiEngine(tts.GeminiConfig{
			APIKey: cfg.TTS.GeminiKey,
			Model:  cfg.TTS.GeminiModel,
			Voice:  cfg.TTS.GeminiVoice,
		})
	case "elevenlabs":
		engine = tts.NewElevenLabsEngine(tts.ElevenLabsConfig{
			APIKey:  cfg.TTS.ElevenLabsKey,
			VoiceID: cfg.TTS.ElevenLabsVoiceID,
		})
	case "piper":
		engine = tts.NewPiperEngine(tts.PiperConfig{
			BinPath:   cfg.TTS.PiperBinPath,
			ModelPath: cfg.TTS.PiperModelPath,
		})
	default:
		engine = tts.NewOpenAIEngine(tts.OpenAIConfig{
			APIKey:  cfg.TTS.OpenAIKey,
			BaseURL: cfg.TTS.OpenAIBaseURL,
			Model:   cfg.TTS.OpenAIModel,
			Voice:   cfg.TTS.OpenAIVoice,
		})
	}

	if ms, ok := cfg.Tuning.EngineDelays[engine.Traits().Name]; ok {
		engine = tts.WithRequestDelay(engine, time.Duration(ms)*time.Millisecond)
	}
	return engine
}
