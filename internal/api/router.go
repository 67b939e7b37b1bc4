package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/pdfnarrator/internal/api/handlers"
	"github.com/nikhilbhutani/pdfnarrator/internal/api/middleware"
	"github.com/nikhilbhutani/pdfnarrator/internal/auth"
	"github.com/nikhilbhutani/pdfnarrator/internal/cache"
	"github.com/nikhilbhutani/pdfnarrator/internal/config"
	"github.com/nikhilbhutani/pdfnarrator/internal/document"
	"github.com/nikhilbhutani/pdfnarrator/internal/jobs"
	"github.com/nikhilbhutani/pdfnarrator/internal/llm"
	"github.com/nikhilbhutani/pdfnarrator/internal/queue"
	"github.com/nikhilbhutani/pdfnarrator/internal/storage"
)

type Router struct {
	mux    *chi.Mux
	db     *pgxpool.Pool
	redis  *redis.Client
	cfg    *config.Config
	files  *storage.FileManager
	jwt    *auth.JWTMiddleware
	apikey *auth.APIKeyMiddleware
	llmGW  llm.Gateway
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) (*Router, error) {
	files, err := storage.NewFileManager(cfg.Paths.UploadsDir, cfg.Paths.AudioDir)
	if err != nil {
		return nil, fmt.Errorf("init file manager: %w", err)
	}
	return &Router{
		mux:    chi.NewRouter(),
		db:     db,
		redis:  rdb,
		cfg:    cfg,
		files:  files,
		jwt:    auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
		apikey: auth.NewAPIKeyMiddleware(db, cfg.Auth.APIKeyHeader),
		llmGW:  llm.NewGateway(cfg.LLM),
	}, nil
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Initialize services
	store := jobs.NewStore(rt.db)
	docSvc := document.NewService()
	queueClient := queue.NewClient(rt.cfg.Redis)
	statusCache := cache.NewCache(rt.redis)

	narrations := handlers.NewNarrationHandler(store, docSvc, rt.files, queueClient, statusCache)
	llmHandler := handlers.NewLLMHandler(rt.llmGW)

	// Authenticated API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.apikey.Authenticate)
		r.Use(rt.jwt.Authenticate)

		r.Route("/narrations", func(r chi.Router) {
			r.Post("/", narrations.Create)
			r.Get("/", narrations.List)
			r.Get("/{id}", narrations.Get)
			r.Get("/{id}/audio/{filename}", narrations.DownloadAudio)
			r.Get("/{id}/timing", narrations.DownloadTiming)
		})

		r.Get("/llm/models", llmHandler.ListModels)
	})

	return r
}
