package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/app"
	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	for _, key := range []string{"JOBPILOT_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "JOBPILOT_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = filepath.Join(dir, "db")
	cfg.Keys.Dir = filepath.Join(dir, "keys")
	cfg.Logging.Output = []string{"stdout"}
	cfg.Sources.Remotive = false
	cfg.Sources.Jobicy = false
	cfg.Sources.RemoteOK = false
	cfg.Sources.AISearch = false
	cfg.Autopilot.ProcessDelay = "0s"
	cfg.Autopilot.RescheduleInterval = "10ms"

	application, err := app.New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	ts := httptest.NewServer(New(application).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealthAndNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, body := call(t, ts, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","ai":"offline"}`, string(body))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = call(t, ts, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, ts, http.MethodOptions, "/api/jobs", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJobRoutesOffline(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := call(t, ts, http.MethodPut, "/api/profile", map[string]interface{}{
		"name":            "Ada",
		"resumeText":      "Go developer with postgres, docker and kubernetes experience",
		"skills":          []string{"go", "postgres", "docker"},
		"experienceLevel": "Mid Level",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := call(t, ts, http.MethodPost, "/api/jobs", map[string]string{
		"title":       "Backend Engineer",
		"company":     "Acme",
		"url":         "https://acme.example/jobs/backend",
		"description": "We need Go, postgres and kubernetes skills.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var job models.JobListing
	require.NoError(t, json.Unmarshal(body, &job))

	resp, _ = call(t, ts, http.MethodGet, "/api/jobs/"+job.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = call(t, ts, http.MethodPost, "/api/jobs/"+job.ID+"/skill-gap", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = call(t, ts, http.MethodPost, "/api/jobs/"+job.ID+"/move", map[string]string{"status": "offer"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = call(t, ts, http.MethodPut, "/api/jobs/"+job.ID, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = call(t, ts, http.MethodGet, "/api/jobs/"+job.ID+"/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, ts, http.MethodDelete, "/api/jobs/"+job.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = call(t, ts, http.MethodGet, "/api/jobs/"+job.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDiscoverThenAutopilotDrainsQueue(t *testing.T) {
	ts := newTestServer(t)

	// With every source disabled discovery yields the placeholder listing, shown but not queued.
	resp, body := call(t, ts, http.MethodPost, "/api/discover", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var discovered struct {
		Found int                 `json:"found"`
		Added int                 `json:"added"`
		Jobs  []models.JobListing `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(body, &discovered))
	assert.Equal(t, 0, discovered.Found)
	assert.Equal(t, 0, discovered.Added)
	require.Len(t, discovered.Jobs, 1)
	assert.Equal(t, models.SourcePlaceholder, discovered.Jobs[0].Source)

	resp, body = call(t, ts, http.MethodPost, "/api/jobs", map[string]string{
		"title":   "Platform Engineer",
		"company": "Acme",
		"url":     "https://acme.example/jobs/platform",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = call(t, ts, http.MethodPost, "/api/autopilot/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		_, body := call(t, ts, http.MethodGet, "/api/autopilot/status", nil)
		var status struct {
			IsRunning bool `json:"isRunning"`
			Processed int  `json:"processed"`
		}
		if err := json.Unmarshal(body, &status); err != nil {
			return false
		}
		return !status.IsRunning && status.Processed == 1
	}, 5*time.Second, 20*time.Millisecond)

	_, body = call(t, ts, http.MethodGet, "/api/jobs?status=new", nil)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 0, list.Total)

	_, body = call(t, ts, http.MethodGet, "/api/jobs", nil)
	assert.NotContains(t, string(body), models.SourcePlaceholder)

	_, body = call(t, ts, http.MethodGet, "/api/logs", nil)
	assert.Contains(t, string(body), "AutoPilot queue completed")
}
