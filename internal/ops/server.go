package ops

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ajayykmr/ghasedak-sms-go/internal/metrics"
	"github.com/ajayykmr/ghasedak-sms-go/internal/providers/sms/ghasedak"
)

const (
	checkOK     = "ok"
	checkFailed = "failed"
)

// ReadinessChecker reports whether a Kafka client is connected.
type ReadinessChecker interface {
	IsReady() bool
}

// AccountProber fetches provider account information; used as an optional
// readiness probe.
type AccountProber interface {
	AccountInfo(ctx context.Context) (*ghasedak.Account, error)
}

// Config controls the ops server.
type Config struct {
	Port          int
	CheckTimeout  time.Duration
	ProbeProvider bool
}

// Dependencies are the components whose health the server reports.
type Dependencies struct {
	Consumer ReadinessChecker
	Producer ReadinessChecker
	Provider AccountProber
}

// Server exposes /healthz, /readyz and /metrics for the worker.
type Server struct {
	cfg    Config
	deps   Dependencies
	logger zerolog.Logger
	srv    *http.Server
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Credit *float64          `json:"credit,omitempty"`
}

// New builds the server; call Start to begin serving.
func New(cfg Config, deps Dependencies, logger zerolog.Logger) *Server {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 2 * time.Second
	}
	s := &Server{cfg: cfg, deps: deps, logger: logger.With().Str("component", "ops").Logger()}
	s.srv = &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router returns the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

// Start serves in the background. Errors other than a clean shutdown are logged.
func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("ops server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("ops server stopped")
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("ops: shutdown: %w", err)
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": checkOK})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	body := readiness{Status: "ready", Checks: map[string]string{}}
	ready := true

	check := func(name string, c ReadinessChecker) {
		if c == nil {
			return
		}
		if c.IsReady() {
			body.Checks[name] = checkOK
			return
		}
		body.Checks[name] = checkFailed
		ready = false
	}
	check("consumer", s.deps.Consumer)
	check("producer", s.deps.Producer)

	if s.cfg.ProbeProvider && s.deps.Provider != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CheckTimeout)
		defer cancel()
		acct, err := s.deps.Provider.AccountInfo(ctx)
		if err != nil {
			ready = false
			body.Checks["provider"] = checkFailed
			s.logger.Warn().Err(err).Msg("provider readiness probe failed")
		} else {
			body.Checks["provider"] = checkOK
			body.Credit = &acct.Credit
		}
	}

	status := http.StatusOK
	if !ready {
		body.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("elapsed", time.Since(start)).
			Msg("ops request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
