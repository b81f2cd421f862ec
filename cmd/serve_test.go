//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docstash/internal/ask"
	"github.com/sells-group/docstash/internal/classify"
	"github.com/sells-group/docstash/internal/contentcache"
	"github.com/sells-group/docstash/internal/model"
	"github.com/sells-group/docstash/internal/search"
	"github.com/sells-group/docstash/internal/stash"
	"github.com/sells-group/docstash/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	router, _ := newTestRouterWithService(t)
	return router
}

func newTestRouterWithService(t *testing.T) (http.Handler, *stash.Service) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	svc := stash.New(
		st,
		nil,
		contentcache.New(25<<20, nil),
		ask.New(nil),
		classify.New(nil, "claude-haiku-4-5", 50000, 5, time.Minute, nil),
		search.NewRipgrep("rg"),
		stash.Options{
			Dir:             filepath.Join(t.TempDir(), "stash"),
			InboxDir:        filepath.Join(t.TempDir(), "inbox"),
			SearchMaxPerDoc: 5,
		},
	)
	return newRouter(svc), svc
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Ask_InvalidJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader([]byte("not json")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestRouter_Ask_MissingInstruction(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"url": "https://example.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "instruction is required")
}

func TestRouter_Ask_RequiresExactlyOneTarget(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"instruction": "summarize"})
	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "exactly one of url or document_id")
}

func TestRouter_Ask_MissingModelClient(t *testing.T) {
	// The router was built without an Anthropic client, so asking about a
	// stashed document surfaces 503.
	router, svc := newTestRouterWithService(t)

	doc, err := svc.AddFile(context.Background(), writeTestFile(t, "doc.txt", "some text"))
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"document_id": doc.ID, "instruction": "summarize"})
	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRouter_Search_RequiresQuery(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "q is required")
}

func TestRouter_ListDocuments_Empty(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var docs []model.Document
	err := json.Unmarshal(rr.Body.Bytes(), &docs)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRouter_AddDocument_RequiresURL(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/documents", bytes.NewReader([]byte("{}")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "url is required")
}

func TestRouter_DeleteDocument_NotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_CacheStatsAndClear(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var stats contentcache.Stats
	err := json.Unmarshal(rr.Body.Bytes(), &stats)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.EntryCount)

	req = httptest.NewRequest(http.MethodPost, "/api/cache/clear", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "cleared")
}
