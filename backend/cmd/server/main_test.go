package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cybernauts/backend/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:            "0",
		Env:             "test",
		ShutdownTimeout: time.Second,
		MetricsEnabled:  true,
		Layout:          "grid",
		StoreBackend:    config.StoreMemory,
		CacheTTL:        time.Minute,
		EventsBackend:   config.EventsNone,
	}
}

func TestNewApp_MemoryBackends(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, testConfig(), zap.NewNop())
	require.NoError(t, err)
	defer a.close(context.Background())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/metrics", nil)
	a.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewApp_CreateThenList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, testConfig(), zap.NewNop())
	require.NoError(t, err)
	defer a.close(context.Background())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/users", strings.NewReader(`{"username":"ada","age":36}`))
	req.Header.Set("Content-Type", "application/json")
	a.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	position := created["position"].(map[string]interface{})
	assert.Equal(t, float64(100), position["x"], "first grid slot")

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/users", nil)
	a.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 1)
}

func TestNewApp_UnreachableNATSDegrades(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig()
	cfg.EventsBackend = config.EventsNATS
	cfg.NATSURL = "nats://127.0.0.1:1"

	a, err := newApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.close(context.Background())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/users", strings.NewReader(`{"username":"ada","age":36}`))
	req.Header.Set("Content-Type", "application/json")
	a.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code, "mutations succeed while the bus is down")

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/health", nil)
	a.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewApp_UnknownStore(t *testing.T) {
	cfg := testConfig()
	cfg.StoreBackend = "cassandra"

	_, err := newApp(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestWorkerID(t *testing.T) {
	a, b := workerID(), workerID()
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "-")
}
