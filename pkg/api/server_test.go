package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/api/handlers"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/metrics"
)

func TestAPIConfig_Defaults(t *testing.T) {
	var c APIConfig
	c.applyDefaults()

	assert.True(t, c.IsEnabled())
	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, 10*time.Second, c.ReadTimeout)
	assert.Equal(t, 5*time.Minute, c.WriteTimeout)
	assert.Equal(t, 5*time.Second, c.ShutdownTimeout)

	disabled := false
	c = APIConfig{Enabled: &disabled, Port: -1}
	c.applyDefaults()
	assert.False(t, c.IsEnabled())
	assert.Zero(t, c.Port)
}

func TestRouter(t *testing.T) {
	metrics.Reset()
	router := NewRouter(Dependencies{
		Stores: []handlers.StoreCheck{{Name: "mem", Type: "storage", Check: func(context.Context) error { return nil }}},
	})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/health/stores", http.StatusOK},
		{http.MethodGet, "/reports/latest", http.StatusServiceUnavailable},
		{http.MethodGet, "/metrics", http.StatusNotFound},
		{http.MethodGet, "/", http.StatusTemporaryRedirect},
		{http.MethodDelete, "/reports/latest", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer(APIConfig{Host: "127.0.0.1", Port: -1}, Dependencies{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", srv.Addr()))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	// Second stop is a no-op.
	assert.NoError(t, srv.Stop(context.Background()))
}
