// Package web exposes the import-export service over HTTP.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/gui-xie/import-export/internal/metrics"
	"github.com/gui-xie/import-export/pkg/imexport"
	"github.com/gui-xie/import-export/pkg/imexport/codec"
	"github.com/gui-xie/import-export/pkg/imexport/definition"
	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Deps holds the server's collaborators.
type Deps struct {
	Service     *imexport.Service
	Definitions *definition.Registry
	Logger      zerolog.Logger

	// Loader is reported on /healthz. Optional.
	Loader *codec.Loader
	// Metrics records HTTP requests. Optional.
	Metrics *metrics.Collector
	// Gatherer backs /metrics. Optional.
	Gatherer prometheus.Gatherer

	// ImageFetcher loads pictures for image columns on export. Optional.
	ImageFetcher models.ImageFetcher

	// MaxUploadBytes caps request bodies. Zero means unlimited.
	MaxUploadBytes int64
}

// Server serves definitions, templates, exports and imports.
type Server struct {
	deps Deps
}

// New creates a Server.
func New(deps Deps) *Server {
	return &Server{deps: deps}
}

// Router returns the HTTP handler.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(s.deps.Gatherer))
	}

	r.Route("/definitions", func(r chi.Router) {
		r.Get("/", s.listDefinitions)
		r.Get("/{name}/template", s.template)
		r.Post("/{name}/export", s.export)
		r.Post("/{name}/import", s.importRecords)
	})

	return r
}

// requestID propagates or assigns a request ID and attaches a request
// scoped logger to the context.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		logger := s.deps.Logger.With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

// instrument logs each request and records HTTP metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)

		if m := s.deps.Metrics; m != nil {
			m.RequestsTotal.WithLabelValues(r.Method, route, statusClass(ww.Status())).Inc()
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		}

		if route == "/healthz" || route == "/metrics" {
			return
		}
		zerolog.Ctx(r.Context()).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Msg("http request")
	})
}

func statusClass(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
