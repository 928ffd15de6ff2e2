package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feedradar/article-radar/internal/config"
	"github.com/feedradar/article-radar/internal/cycle"
	"github.com/feedradar/article-radar/internal/dedup"
	"github.com/feedradar/article-radar/internal/models"
	"github.com/feedradar/article-radar/internal/publish"
	"github.com/feedradar/article-radar/internal/scrape"
)

type stubSource struct {
	candidates []scrape.Candidate
	err        error
}

func (s *stubSource) FetchCandidates(context.Context) ([]scrape.Candidate, error) {
	return s.candidates, s.err
}

type memStore struct {
	mem dedup.Memory
}

func (s *memStore) Load() (dedup.Memory, error)  { return s.mem, nil }
func (s *memStore) Persist(m dedup.Memory) error { s.mem = m; return nil }

func newTestServer(source scrape.Source) *server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := publish.New()
	return &server{
		log:         log,
		cfg:         &config.Service{ScrapeTimeout: 5 * time.Second},
		coordinator: cycle.New(source, &memStore{}, publisher, 2, log),
		publisher:   publisher,
	}
}

func TestHandleLatestBeforeFirstCycle(t *testing.T) {
	srv := newTestServer(&stubSource{})

	rec := httptest.NewRecorder()
	srv.handleLatest(rec, httptest.NewRequest(http.MethodGet, "/latest", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.DetectionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.False(t, result.HasRun)
	require.Empty(t, result.NewArticles)
}

func TestHandleCycleReportsNewArticles(t *testing.T) {
	srv := newTestServer(&stubSource{candidates: []scrape.Candidate{
		{Title: "One", URL: "https://example.com/1"},
		{Title: "Two", URL: "https://example.com/2"},
	}})

	rec := httptest.NewRecorder()
	srv.handleCycle(rec, httptest.NewRequest(http.MethodPost, "/cycle", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.DetectionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.True(t, result.HasRun)
	require.Len(t, result.NewArticles, 2)

	// The published snapshot now reflects the on-demand cycle.
	rec = httptest.NewRecorder()
	srv.handleLatest(rec, httptest.NewRequest(http.MethodGet, "/latest", nil))

	var latest models.DetectionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	require.Equal(t, result.CycleID, latest.CycleID)
}

func TestHandleCycleScrapeFailureKeepsSnapshot(t *testing.T) {
	source := &stubSource{candidates: []scrape.Candidate{{Title: "One", URL: "https://example.com/1"}}}
	srv := newTestServer(source)

	rec := httptest.NewRecorder()
	srv.handleCycle(rec, httptest.NewRequest(http.MethodPost, "/cycle", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	source.err = errors.New("render timeout")
	rec = httptest.NewRecorder()
	srv.handleCycle(rec, httptest.NewRequest(http.MethodPost, "/cycle", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec = httptest.NewRecorder()
	srv.handleLatest(rec, httptest.NewRequest(http.MethodGet, "/latest", nil))

	var latest models.DetectionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	require.True(t, latest.HasRun, "stale-but-valid snapshot survives a failed cycle")
	require.Len(t, latest.NewArticles, 1)
}

func TestHandleArticlesWithoutArchive(t *testing.T) {
	srv := newTestServer(&stubSource{})

	rec := httptest.NewRecorder()
	srv.handleArticles(rec, httptest.NewRequest(http.MethodGet, "/articles", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealthWithoutArchive(t *testing.T) {
	srv := newTestServer(&stubSource{})

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestClampInt(t *testing.T) {
	require.Equal(t, 20, clampInt("", 20, 200))
	require.Equal(t, 20, clampInt("junk", 20, 200))
	require.Equal(t, 20, clampInt("-3", 20, 200))
	require.Equal(t, 50, clampInt("50", 20, 200))
	require.Equal(t, 200, clampInt("999", 20, 200))
}

func TestParseTime(t *testing.T) {
	ts := parseTime("2026-08-30T10:00:00Z")
	require.NotNil(t, ts)
	require.Equal(t, 2026, ts.Year())

	require.Nil(t, parseTime(""))
	require.Nil(t, parseTime("yesterday"))
}
