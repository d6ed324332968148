package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipe-recommender/backend/config"
	"github.com/pageza/recipe-recommender/backend/internal/middleware"
	"github.com/pageza/recipe-recommender/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		ServerHost:            "127.0.0.1",
		ServerPort:            "0",
		ServerReadTimeout:     5 * time.Second,
		ServerWriteTimeout:    5 * time.Second,
		ServerShutdownTimeout: 5 * time.Second,
		CORSAllowedOrigins:    []string{"http://localhost:3000"},
	}
}

func TestNew(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	testhelpers.SeedRecipes(t, db, testhelpers.RecipeFixture{Name: "toast", Tags: []string{"breakfast"}})

	srv := New(testConfig(), db, nil)
	require.NotNil(t, srv)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/tags/", http.StatusOK},
		{http.MethodGet, "/ingredients/", http.StatusOK},
		{http.MethodGet, "/recipes/", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/nowhere/", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tt.method, tt.path, nil)
		srv.Handler().ServeHTTP(w, req)
		assert.Equal(t, tt.status, w.Code, tt.path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader), tt.path)
	}
}

func TestNewWithRateLimit(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	limiter := middleware.NewLocalLimiter(middleware.RateLimitConfig{Window: time.Hour, Limit: 1})
	srv := New(testConfig(), db, limiter)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tags/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tags/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	cfg := testConfig()
	cfg.ServerPort = strconv.Itoa(port)
	srv := New(cfg, db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + cfg.Addr() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
