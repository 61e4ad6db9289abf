package preview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftsite/draftsite/internal/config"
)

func previewConfig(t *testing.T) *config.Config {
	t.Helper()
	siteDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, "index.html"),
		[]byte("<html><body>toc</body></html>"), 0o600))
	return &config.Config{
		Repo: t.TempDir(),
		Site: config.SiteConfig{Directory: siteDir},
	}
}

func TestRoutesServeSite(t *testing.T) {
	s := NewServer(previewConfig(t), func(context.Context) error { return nil }, nil)
	s.status.setSuccess()

	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthOK(t *testing.T) {
	s := NewServer(previewConfig(t), func(context.Context) error { return nil }, nil)
	s.status.setSuccess()

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["last_build"])
}

func TestHealthNoGoodBuild(t *testing.T) {
	s := NewServer(previewConfig(t), func(context.Context) error { return nil }, nil)
	s.status.setError(errors.New("boom"))

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "boom", body["last_error"])
}

func TestHealthDegradedAfterGoodBuild(t *testing.T) {
	s := NewServer(previewConfig(t), func(context.Context) error { return nil }, nil)
	s.status.setSuccess()
	s.status.setError(errors.New("rebuild broke"))

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	// A previously good build keeps serving; health reports the failure.
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDebouncerCoalesces(t *testing.T) {
	rebuildReq, trigger := newDebouncer()

	for range 10 {
		trigger()
	}

	select {
	case <-rebuildReq:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced rebuild never fired")
	}

	// The burst collapses into a single request.
	select {
	case <-rebuildReq:
		t.Fatal("expected a single rebuild request")
	case <-time.After(2 * debounceDelay):
	}
}

func TestSkipDir(t *testing.T) {
	cfg := &config.Config{
		Output: "/work/_xml2rfc",
		Site:   config.SiteConfig{Directory: "/work/site"},
	}
	assert.True(t, skipDir("/repo/.git", ".git", cfg))
	assert.True(t, skipDir("/work/_xml2rfc", "_xml2rfc", cfg))
	assert.True(t, skipDir("/work/site", "site", cfg))
	assert.False(t, skipDir("/repo/drafts", "drafts", cfg))
}
