// Package web exposes the HTTP API: health, the normalized occurrence
// feed, export downloads and the change-notification endpoint used by the
// settings/CRUD side of the system.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/bus"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/config"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/export"
	appLog "github.com/jinyuanZhou-Leo/Semestra-sub001/internal/log"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/timetable"
)

// Server provides the HTTP API surface.
type Server struct {
	cfg      *config.Config
	notifier *bus.Bus
	exporter *export.Exporter
	source   export.Source
	mux      *http.ServeMux

	// loader holds the normalized occurrence snapshot served by
	// /api/occurrences; it is invalidated through the notification bus and
	// guarded against stale loads by request tokens.
	loader export.Loader

	unsubscribe func()
}

// NewServer constructs a Server and subscribes it to schedule-change
// notifications so the occurrence snapshot is dropped whenever the
// settings side mutates schedule state.
func NewServer(cfg *config.Config, notifier *bus.Bus, exporter *export.Exporter, source export.Source) *Server {
	s := &Server{
		cfg:      cfg,
		notifier: notifier,
		exporter: exporter,
		source:   source,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	s.unsubscribe = notifier.Subscribe(bus.TopicScheduleChanged, func(payload any) {
		appLog.Info("web: schedule changed, dropping occurrence snapshot")
		s.loader.Invalidate()
	})
	return s
}

// Close detaches the server from the bus.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Handler returns the http.Handler, wrapped with basic auth if configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
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
			w.Header().Set("WWW-Authenticate", `Basic realm="Semestra", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/occurrences", s.handleOccurrences)
	s.mux.HandleFunc("/api/export", s.handleExport)
	s.mux.HandleFunc("/api/notify", s.handleNotify)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// occurrencesResponse is the JSON shape of /api/occurrences.
type occurrencesResponse struct {
	Occurrences []model.ScheduleOccurrence `json:"occurrences"`
	SemesterID  string                     `json:"semester_id"`
}

// handleOccurrences serves the deduplicated, sorted occurrence list for the
// configured semester. The snapshot persists until a schedule-change
// notification invalidates it.
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if occs, ok := s.loader.Snapshot(); ok {
		writeJSON(w, http.StatusOK, occurrencesResponse{Occurrences: occs, SemesterID: s.cfg.Semester.ID})
		return
	}

	occs, err := s.loadOccurrences(ctx)
	if err != nil {
		appLog.Error("api occurrences: load failed", err)
		writeError(w, http.StatusBadGateway, "failed to load occurrences")
		return
	}
	writeJSON(w, http.StatusOK, occurrencesResponse{Occurrences: occs, SemesterID: s.cfg.Semester.ID})
}

// loadOccurrences fetches and normalizes the semester feed, committing it
// through the loader so a response superseded mid-flight is discarded.
func (s *Server) loadOccurrences(ctx context.Context) ([]model.ScheduleOccurrence, error) {
	token := s.loader.Begin()

	occs, err := s.source.SemesterOccurrences(ctx, s.cfg.Semester.ID)
	if err != nil {
		return nil, err
	}
	occs = timetable.Dedupe(occs)
	timetable.Sort(occs)

	s.loader.Commit(token, occs)
	return occs, nil
}

// handleExport renders and streams one export artifact.
//
// GET /api/export?format=png|pdf|ics&scope=semester|course&scope_id=...
//
//	&range=week|weeks|term&week=3&start_week=1&end_week=8
//	&skip_mode=GRAY_SKIPPED|HIDE_SKIPPED
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := export.Request{
		Format:         export.Format(defaultStr(q.Get("format"), "png")),
		Scope:          export.Scope(defaultStr(q.Get("scope"), "semester")),
		ScopeID:        q.Get("scope_id"),
		Range:          export.RangeKind(defaultStr(q.Get("range"), "term")),
		Week:           parseIntDefault(q.Get("week"), 1),
		StartWeek:      parseIntDefault(q.Get("start_week"), 1),
		EndWeek:        parseIntDefault(q.Get("end_week"), 1),
		SkipRenderMode: export.SkipRenderMode(defaultStr(q.Get("skip_mode"), s.cfg.Export.SkipRenderMode)),
	}
	if req.ScopeID == "" {
		req.ScopeID = s.cfg.Semester.ID
	}

	res, err := s.exporter.Export(r.Context(), req)
	if err != nil {
		appLog.Error("api export failed", err, "format", string(req.Format), "scope", string(req.Scope))
		// One actionable message; no partial blob ever leaves here.
		writeError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to export as %s", strings.ToUpper(string(req.Format))))
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Blob)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Blob)
}

// handleNotify lets the settings/CRUD side publish a schedule-change event.
//
// POST /api/notify with a bus.ScheduleChange JSON body.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var change bus.ScheduleChange
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification body")
		return
	}
	if change.Source != "course" && change.Source != "semester" {
		writeError(w, http.StatusBadRequest, "source must be \"course\" or \"semester\"")
		return
	}

	s.notifier.Publish(bus.TopicScheduleChanged, change)
	w.WriteHeader(http.StatusAccepted)
}

func defaultStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
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
