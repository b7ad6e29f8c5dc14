// Package api provides the local preferences HTTP API. It is the headless
// counterpart of the preferences window: edits auto-save to the settings
// file, and apply regenerates the autolock scripts.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sidekick-screensaver/sidekick/internal/app/autolock"
	"github.com/sidekick-screensaver/sidekick/internal/app/launcher"
	"github.com/sidekick-screensaver/sidekick/internal/domain"
	"github.com/sidekick-screensaver/sidekick/internal/health"
	"github.com/sidekick-screensaver/sidekick/internal/infra/settingsfile"
	"github.com/sidekick-screensaver/sidekick/internal/logging"
)

// maxBody caps request bodies; a settings record is a few KB.
const maxBody = 1 << 20

// History lists recorded events.
type History interface {
	ListEvents(ctx context.Context, kind domain.EventKind, limit int) ([]domain.Event, error)
}

// Regenerator rewrites the autolock scripts.
type Regenerator interface {
	Regenerate(ctx context.Context, s domain.Settings) (autolock.Result, error)
}

// Launcher starts and stops widgets.
type Launcher interface {
	Run(ctx context.Context) (launcher.Result, error)
	Stop(ctx context.Context) (int, error)
	Running(ctx context.Context) ([]domain.ProcessInfo, error)
}

// AutostartSyncer keeps the autostart entry in line with start_on_boot.
type AutostartSyncer interface {
	Sync(startOnBoot bool) error
}

// Server is the sidekick HTTP API server.
type Server struct {
	store          *settingsfile.Store
	gen            Regenerator
	launcher       Launcher
	history        History
	autostart      AutostartSyncer
	health         *health.Checker
	version        string
	metricsEnabled bool
}

// NewServer creates a new API server. launcher and history may be nil,
// which disables their routes.
func NewServer(store *settingsfile.Store, gen Regenerator, l Launcher, history History) *Server {
	return &Server{store: store, gen: gen, launcher: l, history: history, version: "dev"}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetAutostart makes apply sync the autostart entry.
func (s *Server) SetAutostart(a AutostartSyncer) { s.autostart = a }

// SetHealth exposes the checker's latest results on /api/health.
func (s *Server) SetHealth(h *health.Checker) { s.health = h }

// SetVersion sets the version reported by /api/status.
func (s *Server) SetVersion(v string) { s.version = v }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Patch("/settings", s.handlePatchSettings)
		r.Get("/settings/{key}", s.handleGetSetting)
		r.Post("/settings/reset", s.handleResetSettings)

		r.Get("/resolve", s.handleResolve)
		r.Post("/apply", s.handleApply)

		if s.launcher != nil {
			r.Post("/launch", s.handleLaunch)
			r.Post("/stop", s.handleStop)
		}
		if s.history != nil {
			r.Get("/history", s.handleHistory)
		}
		if s.health != nil {
			r.Get("/health", s.handleHealth)
		}
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Settings ───────────────────────────────────────────────────────────────

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Load())
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	v, err := settingsfile.Get(s.store.Load(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": v})
}

// handlePutSettings replaces the record: keys absent from the body fall
// back to their defaults.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	cfg, err := s.store.Update(func(cfg *domain.Settings) error {
		next := s.store.Defaults()
		if err := settingsfile.Merge(&next, body); err != nil {
			return err
		}
		*cfg = next
		return nil
	})
	if err != nil {
		writeSettingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handlePatchSettings auto-saves a partial edit, the way each control in
// the preferences window does.
func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	cfg, err := s.store.Update(func(cfg *domain.Settings) error {
		return settingsfile.Merge(cfg, body)
	})
	if err != nil {
		writeSettingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.store.Load())
}

// ─── Selection & Apply ──────────────────────────────────────────────────────

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.Resolve(s.store.Load()))
}

// handleApply saves an optional partial edit and regenerates the scripts.
// Write failures are the only errors reported to the user.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	cfg := s.store.Load()
	if len(body) > 0 {
		var err error
		cfg, err = s.store.Update(func(cfg *domain.Settings) error {
			return settingsfile.Merge(cfg, body)
		})
		if err != nil {
			writeSettingsError(w, err)
			return
		}
	}

	res, err := s.gen.Regenerate(r.Context(), cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.autostart != nil {
		if err := s.autostart.Sync(cfg.StartOnBoot); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Launcher ───────────────────────────────────────────────────────────────

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	res, err := s.launcher.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	n, err := s.launcher.Stop(r.Context())
	if err != nil && !errors.Is(err, domain.ErrNoWidgetActive) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"terminated": n})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"version":    s.version,
		"settings":   s.store.Path(),
		"resolution": domain.Resolve(s.store.Load()),
	}
	if s.launcher != nil {
		running, err := s.launcher.Running(r.Context())
		if err != nil {
			log.Printf("[api] WARNING: list widgets: %v", err)
		}
		if running == nil {
			running = []domain.ProcessInfo{}
		}
		status["running"] = running
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if !s.health.IsHealthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy": s.health.IsHealthy(),
		"checks":  s.health.Statuses(),
	})
}

// ─── History ────────────────────────────────────────────────────────────────

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	kind := domain.EventKind(r.URL.Query().Get("kind"))

	events, err := s.history.ListEvents(r.Context(), kind, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, err.Error())
		return nil, false
	}
	return body, true
}

// writeSettingsError maps validation failures to 400 and write failures
// to 500.
func writeSettingsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownSetting),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, domain.ErrUnknownWidget):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// requestLogger logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		if r.URL.Path == "/health" && !logging.DebugEnabled() {
			return // liveness checks
		}
		log.Printf("[api] %s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond))
	})
}
