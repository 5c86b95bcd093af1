// Package server exposes the analyzer over HTTP.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/monitoring"
)

// Analyzer builds company profiles.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*model.BusinessDetails, error)
}

// Answerer answers questions about a company.
type Answerer interface {
	Answer(ctx context.Context, rawURL, question string) (*model.QuestionResponse, error)
}

// Asker answers questions without website context.
type Asker interface {
	Ask(ctx context.Context, question string, temperature float64) (*model.DirectQuestionResponse, error)
}

// Config configures the HTTP surface.
type Config struct {
	// CORSOrigins lists allowed origins; empty allows any.
	CORSOrigins []string
	// RequestTimeout bounds each analysis request. Zero disables it.
	RequestTimeout time.Duration
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
}

// Server routes HTTP requests to the analysis services.
type Server struct {
	cfg      Config
	analyzer Analyzer
	answerer Answerer
	asker    Asker
	metrics  *monitoring.Metrics
}

// New creates a Server. metrics may be nil.
func New(cfg Config, analyzer Analyzer, answerer Answerer, asker Asker, metrics *monitoring.Metrics) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}
	return &Server{
		cfg:      cfg,
		analyzer: analyzer,
		answerer: answerer,
		asker:    asker,
		metrics:  metrics,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/analyze", func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Post("/", s.handleAnalyze)
		r.Post("/question", s.handleQuestion)
		r.Post("/direct-question", s.handleDirect)
	})
	return r
}

// requestID tags every request with an X-Request-ID, reusing the caller's.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.HTTPRequest(route, strconv.Itoa(status), elapsed)
		zap.L().Debug("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
		)
	})
}
