package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/bus"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/config"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/export"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

type stubSource struct {
	occurrences []model.ScheduleOccurrence
	calls       int
}

func (s *stubSource) Semester(_ context.Context, semesterID string) (model.SemesterDescriptor, error) {
	return model.SemesterDescriptor{
		ID:        semesterID,
		Name:      "Fall 2025",
		StartDate: "2025-09-01",
		MaxWeek:   4,
	}, nil
}

func (s *stubSource) SemesterOccurrences(_ context.Context, _ string) ([]model.ScheduleOccurrence, error) {
	s.calls++
	return s.occurrences, nil
}

func (s *stubSource) CourseOccurrences(_ context.Context, _ string) ([]model.ScheduleOccurrence, error) {
	return nil, nil
}

func testOccurrences() []model.ScheduleOccurrence {
	return []model.ScheduleOccurrence{
		{
			EventID: "ev-1", Week: 1, DayOfWeek: 1,
			StartTime: "09:00", EndTime: "10:30",
			CourseID: "MATH101", CourseName: "Calculus", EventTypeCode: "LEC",
			WeekPattern: model.PatternEvery, Enable: true,
		},
		{
			// Duplicate of ev-1 on the same slot; dedupe collapses it.
			EventID: "ev-1", Week: 1, DayOfWeek: 1,
			StartTime: "09:00", EndTime: "10:30",
			CourseID: "MATH101", CourseName: "Calculus", EventTypeCode: "LEC",
			WeekPattern: model.PatternEvery, Enable: true,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *stubSource, *bus.Bus) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
		cfg.Semester.ID = "fall25"
	}
	src := &stubSource{occurrences: testOccurrences()}
	notifier := bus.New(bus.WithDebounce(time.Millisecond), bus.WithDedupeWindow(0))
	exporter := export.New(src, cfg.Semester.ID, 8*60, 20*60)
	srv := NewServer(cfg, notifier, exporter, src)
	t.Cleanup(srv.Close)
	t.Cleanup(notifier.Clear)
	return srv, src, notifier
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestOccurrencesDedupedAndCached(t *testing.T) {
	srv, src, _ := newTestServer(t, nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/occurrences", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Occurrences []model.ScheduleOccurrence `json:"occurrences"`
		SemesterID  string                     `json:"semester_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "fall25", resp.SemesterID)
	assert.Len(t, resp.Occurrences, 1, "duplicate occurrence should collapse")

	// A second request is served from the snapshot.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/occurrences", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, src.calls)
}

func TestNotifyInvalidatesSnapshot(t *testing.T) {
	srv, src, _ := newTestServer(t, nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/occurrences", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, src.calls)

	body := bytes.NewBufferString(`{"source":"course","reason":"updated","courseId":"MATH101"}`)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notify", body))
	require.Equal(t, http.StatusAccepted, rec.Code)

	// Debounced delivery drops the snapshot shortly after.
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/occurrences", nil))
		return src.calls == 2
	}, time.Second, 5*time.Millisecond)
}

func TestNotifyRejectsUnknownSource(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	body := bytes.NewBufferString(`{"source":"mystery"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notify", body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notify", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export?format=pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="semester-fall25.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-1.4")))
}

func TestExportFailureMessage(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export?format=tiff", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to export as TIFF", resp.Error)
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Semester.ID = "fall25"
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	srv, _, _ := newTestServer(t, cfg)
	h := srv.Handler()

	// Health stays open.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// API requires credentials.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/occurrences", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/occurrences", nil)
	req.SetBasicAuth("admin", "secret")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
