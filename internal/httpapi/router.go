package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/optionchainsim/service/internal/observability"
	"github.com/optionchainsim/service/internal/session"
)

// RouterDeps are the dependencies NewRouter wires into the mux.
type RouterDeps struct {
	Manager        *session.Manager
	Logger         zerolog.Logger
	Metrics        *observability.Registry
	MetricsHandler http.HandlerFunc
	MaxBodyBytes   int64
}

// NewRouter returns a chi Router exposing the single /api/v1/chain
// resource plus health and metrics endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(securityHeaders)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(deps.Logger))
	r.Use(metricsMiddleware(deps.Metrics))
	r.Use(maxBodySize(deps.MaxBodyBytes))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "optionchainsim"})
	})
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if deps.MetricsHandler != nil {
		r.Get("/metrics", deps.MetricsHandler)
	}

	handler := NewChainHandler(deps.Manager, deps.Logger)
	r.Route("/api/v1/chain", func(r chi.Router) {
		r.Post("/", handler.CreateSession)
		r.Get("/", handler.GetNextStep)
		r.Put("/", handler.ReplaceSession)
		r.Patch("/", handler.UpdateSession)
		r.Delete("/", handler.DeleteSession)
	})

	return r
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func maxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// metricsMiddleware counts requests by route pattern and status class.
// A nil registry makes this a no-op, so tests and standalone uses of
// the router don't need to wire metrics.
func metricsMiddleware(m *observability.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(rw, r)
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			statusClass := strconv.Itoa(rw.Status()/100) + "xx"
			m.HTTPRequestTotal.WithLabelValues(route, statusClass).Inc()
		})
	}
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(rw, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("req_id", chimw.GetReqID(r.Context())).
				Int("status", rw.Status()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}
