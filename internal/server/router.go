package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/botsy-ai/botsy/internal/api"
	"github.com/botsy-ai/botsy/internal/api/handlers"
	"github.com/botsy-ai/botsy/internal/api/middleware"
)

type RouterConfig struct {
	BotHandler *handlers.BotHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 10 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/bots/{botID}", func(r chi.Router) {
		r.Post("/documents", cfg.BotHandler.IngestDocument)
		r.Post("/text", cfg.BotHandler.IngestText)
		r.Post("/urls", cfg.BotHandler.IngestURLs)
		r.Post("/search", cfg.BotHandler.Search)
		r.Get("/chunks", cfg.BotHandler.Chunks)
		r.Get("/stats", cfg.BotHandler.Stats)
		r.Delete("/", cfg.BotHandler.Delete)
	})

	return r
}
