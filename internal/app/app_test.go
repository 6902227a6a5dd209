package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelscan/go-wheel-trainer/internal/config"
	"github.com/wheelscan/go-wheel-trainer/internal/handlers"
	"github.com/wheelscan/go-wheel-trainer/internal/health"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	vision := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Training-Key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/projects/proj/tags") {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":"t1","name":"WHEEL-A","imageCount":12}]`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(vision.Close)

	objectStore := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/wheels" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(objectStore.Close)

	return baseConfig(t, vision.URL, objectStore.URL)
}

func baseConfig(t *testing.T, visionURL, objectStoreURL string) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.CustomVision.Endpoint = visionURL
	cfg.CustomVision.TrainingKey = "key"
	cfg.CustomVision.ProjectID = "proj"
	cfg.Storage.Bucket = "wheels"
	cfg.Storage.Region = "us-east-1"
	cfg.Storage.AccessKeyID = "AKID"
	cfg.Storage.SecretAccessKey = "secret"
	cfg.Storage.Endpoint = objectStoreURL
	cfg.Storage.UsePathStyle = true
	cfg.Frames.WorkDir = t.TempDir()
	return &cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close(context.Background())) })

	assert.NotNil(t, a.Trainer)
	assert.Nil(t, a.Runs, "run history stays disabled without a URI")
	assert.Contains(t, a.Health.Names(), "object_store")
	assert.NotContains(t, a.Health.Names(), "run_history")
}

func TestNew_InvalidVisionEndpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.CustomVision.Endpoint = "not a url"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom vision")
}

func TestHandler(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	handler := a.Handler()

	t.Run("lists tags through the vision client", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/tags", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var body handlers.TagsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Tags, 1)
		assert.Equal(t, "WHEEL-A", body.Tags[0].Name)
		assert.Equal(t, 12, body.Tags[0].ImageCount)
	})

	t.Run("object store health", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health?check=object_store", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var body health.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, health.StatusHealthy, body.Status)
	})

	t.Run("runs disabled", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
