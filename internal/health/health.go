package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faceofmind/admin-sync/internal/connection"
	"github.com/faceofmind/admin-sync/internal/version"
)

// Check statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Pinger is satisfied by store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChannelStatus is satisfied by *connection.Channel.
type ChannelStatus interface {
	State() connection.State
	Terminal() bool
}

// SessionStatus is satisfied by *auth.Session.
type SessionStatus interface {
	IsLoggedIn() bool
}

// Check is a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report is the /health response body.
type Report struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Handler answers health requests. Any dependency may be nil and is then
// left out of the report.
type Handler struct {
	store     Pinger
	channel   ChannelStatus
	session   SessionStatus
	startTime time.Time
}

// NewHandler creates a health handler.
func NewHandler(store Pinger, channel ChannelStatus, session SessionStatus) *Handler {
	return &Handler{
		store:     store,
		channel:   channel,
		session:   session,
		startTime: time.Now(),
	}
}

// Routes returns the chi router with health and metrics endpoints.
func (h *Handler) Routes(metricsPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/health/live", h.Liveness)
	r.Get("/health/ready", h.Readiness)
	if metricsPath != "" {
		r.Handle(metricsPath, promhttp.Handler())
	}
	return r
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]Check, 3)
	if h.store != nil {
		checks["store"] = h.checkStore(r.Context())
	}
	if h.channel != nil {
		checks["channel"] = h.checkChannel()
	}
	if h.session != nil {
		checks["session"] = h.checkSession()
	}

	overall := StatusHealthy
	for _, c := range checks {
		switch c.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}

	code := http.StatusOK
	if overall == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, Report{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   version.Get().Version,
		Checks:    checks,
	})
}

// Liveness handles GET /health/live.
func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready: the store must answer.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if c := h.checkStore(r.Context()); c.Status != StatusHealthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "not_ready",
				"message": c.Message,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) checkStore(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{Status: StatusUnhealthy, Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: StatusHealthy, Latency: latency.String()}
}

func (h *Handler) checkChannel() Check {
	state := h.channel.State()
	switch {
	case state == connection.StateConnected:
		return Check{Status: StatusHealthy, Message: state.String()}
	case h.channel.Terminal():
		return Check{Status: StatusUnhealthy, Message: "disconnected, not retrying"}
	default:
		return Check{Status: StatusDegraded, Message: state.String()}
	}
}

func (h *Handler) checkSession() Check {
	if h.session.IsLoggedIn() {
		return Check{Status: StatusHealthy, Message: "logged in"}
	}
	return Check{Status: StatusDegraded, Message: "not logged in"}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("health server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("health server stopped")
		return nil
	}
}
