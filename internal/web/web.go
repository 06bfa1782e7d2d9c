package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"muhurta/internal/config"
	appLog "muhurta/internal/log"
	"muhurta/internal/metrics"
	"muhurta/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ReloadFunc reloads the dataset, rules and feeds. An empty city or zero
// year keeps the current selection.
type ReloadFunc func(ctx context.Context, city string, year int) error

// Server provides the JSON API over one session.
type Server struct {
	cfg     *config.Config
	sess    *session.Session
	metrics *metrics.Metrics
	reload  ReloadFunc
	mux     *http.ServeMux
	now     func() time.Time
}

// NewServer constructs a new Server. m and reload may be nil.
func NewServer(cfg *config.Config, sess *session.Session, m *metrics.Metrics, reload ReloadFunc) *Server {
	s := &Server{
		cfg:     cfg,
		sess:    sess,
		metrics: m,
		reload:  reload,
		mux:     http.NewServeMux(),
		now:     time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials disable it.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="muhurta", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	s.handle("GET /api/meta", s.handleMeta)
	s.handle("GET /api/options", s.handleOptions)
	s.handle("GET /api/conditions", s.handleListConditions)
	s.handle("POST /api/conditions", s.handleAddCondition)
	s.handle("PATCH /api/conditions/{id}", s.handleUpdateCondition)
	s.handle("DELETE /api/conditions/{id}", s.handleRemoveCondition)
	s.handle("PUT /api/fold-mode", s.handleFoldMode)
	s.handle("PUT /api/view", s.handleView)
	s.handle("GET /api/compose", s.handleCompose)
	s.handle("GET /api/compose.ics", s.handleComposeICS)
	s.handle("GET /api/yogas", s.handleYogas)
	s.handle("GET /api/yogas/filter", s.handleGetYogaFilter)
	s.handle("PUT /api/yogas/filter", s.handleSetYogaFilter)
	s.handle("GET /api/yogas/active", s.handleActive)
	s.handle("GET /api/slots", s.handleSlots)
	s.handle("GET /api/slots.ics", s.handleSlotsICS)
	s.handle("POST /api/reload", s.handleReload)
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.metrics.WrapHandler(pattern, h))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ListenAndServe serves the API on cfg.Listen until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
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
		appLog.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// parseFloatOrNaN returns NaN when s is empty or not a number.
func parseFloatOrNaN(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeSessionError maps session errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, session.ErrNoCondition):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		appLog.Error("api request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
