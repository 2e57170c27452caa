package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/metrics"
)

// NewRouter wires the API, health and metrics routes, plus the admin reload
// and WebSocket routes when those are configured.
func NewRouter(server *Server, recorder *metrics.Recorder, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)
	r.Use(zapLoggerMiddleware(logger))

	r.Get("/health", server.Health)
	r.Method(http.MethodGet, "/metrics", recorder.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/recommendations", server.GetRecommendations)
		api.Get("/market-context", server.GetMarketContext)
	})

	if server.reload != nil {
		r.Post("/admin/reload", server.Reload)
	}

	if server.hub != nil {
		r.Get("/ws", server.hub.HandleWS)
	}

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func zapLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Debug("request",
				zap.String("requestID", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
