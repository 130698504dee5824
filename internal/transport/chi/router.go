package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bnccrag/internal/metrics"
)

// DefaultAllowedOrigins are the local web client dev servers.
var DefaultAllowedOrigins = []string{
	"http://localhost:8080",
	"http://127.0.0.1:8080",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// RouterConfig configures cross-cutting middleware.
type RouterConfig struct {
	AllowedOrigins []string
	APIKeys        []string
}

// NewRouter mounts the API routes behind recovery, request IDs, logging, CORS, auth and metrics.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Route("/rag", func(r chi.Router) {
		r.Post("/generate", s.Generate)
		r.Post("/lesson-plan", s.LessonPlan)
		r.Post("/search", s.Search)
		r.Get("/health", s.Health)
	})
	r.Get("/metrics", s.Metrics)

	s.logger.Debug("routes mounted", zap.Strings("allowed_origins", origins))
	return r
}
