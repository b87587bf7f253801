// Package api exposes a flow session over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ha1tch/qaflow/pkg/session"
)

// Server routes HTTP requests to one session.
type Server struct {
	session  *session.Session
	logger   *zap.Logger
	metrics  *Metrics
	origins  []string
	validate *validator.Validate
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and command logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the collectors; by default the server creates its own.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithCORSOrigins sets the origins allowed to call the API from a browser.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// NewServer creates a server over sess.
func NewServer(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		session:  sess,
		logger:   zap.NewNop(),
		origins:  []string{"*"},
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics("qaflow")
	}
	s.metrics.Nodes.Set(float64(sess.Snapshot().Len()))
	return s
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/flow", s.getFlow)
		r.Get("/flow.svg", s.getFlowSVG)
		r.Get("/edges", s.getEdges)

		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", s.addNode)
			r.Get("/{nodeID}", s.getNode)
			r.Put("/{nodeID}", s.updateNode)
			r.Delete("/{nodeID}", s.deleteNode)
			r.Post("/{nodeID}/options", s.addOption)
			r.Put("/{nodeID}/options/{optionID}", s.updateOption)
			r.Delete("/{nodeID}/options/{optionID}", s.deleteOption)
		})

		r.Route("/drag", func(r chi.Router) {
			r.Post("/begin", s.beginDrag)
			r.Post("/move", s.moveDrag)
			r.Post("/end", s.endDrag)
		})

		r.Route("/run", func(r chi.Router) {
			r.Get("/", s.runStatus)
			r.Post("/", s.startRun)
			r.Post("/select", s.selectOption)
			r.Post("/restart", s.restartRun)
			r.Delete("/", s.exitRun)
		})
	})

	return r
}

// logRequests logs each request and records its HTTP metrics.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)

		s.metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		s.metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", elapsed),
			zap.String("requestID", chimiddleware.GetReqID(r.Context())),
		)
	})
}
