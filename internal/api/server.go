package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/quarry/internal/dedup"
	"github.com/MikeSquared-Agency/quarry/internal/hermes"
	"github.com/MikeSquared-Agency/quarry/internal/search"
	"github.com/MikeSquared-Agency/quarry/internal/stats"
	"github.com/MikeSquared-Agency/quarry/internal/store"
)

// Reloader asks the capture collaborator to refresh its capture source.
type Reloader interface {
	RequestReload() error
}

// Publisher is the outbound message channel for panel lifecycle hints.
type Publisher interface {
	Publish(subject string, data any) error
}

type Server struct {
	router   *chi.Mux
	port     int
	store    *store.Store
	activity *store.ActivityLog
	reloader Reloader
	pub      Publisher
	logger   *slog.Logger
}

func NewServer(port int, apiToken string, st *store.Store, activity *store.ActivityLog, reloader Reloader, pub Publisher, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		store:    st,
		activity: activity,
		reloader: reloader,
		pub:      pub,
		logger:   logger,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/quarry", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Get("/state", s.state)
		r.Get("/summary", s.summary)
		r.Get("/stats", s.statsView)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(apiToken))
			r.Post("/events", s.submitEvent)
			r.Post("/reload", s.reload)
			r.Post("/log/clear", s.clearLog)
			r.Post("/data/clear", s.clearAll)
			r.Post("/panel/opened", s.panelOpened)
			r.Post("/panel/closed", s.panelClosed)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// BearerAuthMiddleware rejects mutating requests without the configured
// token. An empty token disables auth (local single-binary runs).
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" {
				got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
				if got != token {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"agent":  "quarry",
		"status": "mining",
	})
}

// state implements get-state: the current event list plus the activity log.
func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"logs":   s.activity.Entries(),
	})
}

// summary is the read-side structured view: re-parsed and deduplicated.
func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": dedup.ParseAndDedupe(events),
		"rollup": stats.Summarize(events),
	})
}

func (s *Server) statsView(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats.Build(events))
}

// submitEvent implements search-event: upsert one mined event.
func (s *Server) submitEvent(w http.ResponseWriter, r *http.Request) {
	var event search.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if event.ID == "" {
		writeError(w, http.StatusBadRequest, "event id is required")
		return
	}
	if err := s.store.Upsert(r.Context(), event); err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	if err := s.reloader.RequestReload(); err != nil {
		s.logger.Error("reload request failed", "error", err)
		writeError(w, http.StatusBadGateway, "reload request failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// clearLog empties the activity log; the event list stays intact but the
// persisted slots are rewritten so the cleared log sticks.
func (s *Server) clearLog(w http.ResponseWriter, r *http.Request) {
	s.activity.Clear()
	if err := s.store.PersistActivity(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) clearAll(w http.ResponseWriter, r *http.Request) {
	s.activity.Clear()
	if err := s.store.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) panelOpened(w http.ResponseWriter, r *http.Request) {
	s.activity.Add("info", "ui", "side panel opened", nil)
	s.publishHint(hermes.SubjectPanelOpened)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) panelClosed(w http.ResponseWriter, r *http.Request) {
	s.activity.Add("info", "ui", "side panel closed", nil)
	s.publishHint(hermes.SubjectPanelClosed)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// publishHint forwards a lifecycle hint; delivery is best-effort and does not
// touch the store.
func (s *Server) publishHint(subject string) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(subject, map[string]any{}); err != nil {
		s.logger.Warn("failed to publish panel hint", "subject", subject, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
