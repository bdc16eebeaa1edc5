package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NirelNemirovsky/open-deep-research/internal/config"
	"github.com/NirelNemirovsky/open-deep-research/internal/handlers"
	"github.com/NirelNemirovsky/open-deep-research/internal/identity"
	"github.com/NirelNemirovsky/open-deep-research/pkg/logger"
)

func validConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 2024, Host: "0.0.0.0"},
		Identity: config.IdentityConfig{Provider: "dev"},
		Environment: config.EnvironmentConfig{
			Environment: config.Local,
		},
	}
}

func TestHealthHandlerHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		config       *config.Config
		provider     identity.Provider
		wantCode     int
		wantStatus   string
		validateResp func(*testing.T, handlers.HealthResponse)
	}{
		{
			name:       "healthy_service",
			config:     validConfig(),
			provider:   identity.NewDevProvider(logger.New("debug", "json", "stdout")),
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			validateResp: func(t *testing.T, resp handlers.HealthResponse) {
				require.Contains(t, resp.Components, "configuration")
				require.Contains(t, resp.Components, "identity_provider")
				assert.Equal(t, handlers.StatusHealthy, resp.Components["configuration"].Status)
				assert.Equal(t, handlers.StatusHealthy, resp.Components["identity_provider"].Status)
				assert.Contains(t, resp.Components["identity_provider"].Message, "dev")
				assert.Equal(t, "1.0.0", resp.Version)
				assert.NotEmpty(t, resp.Uptime)
				assert.Equal(t, "LOCAL", resp.Details["environment"])
			},
		},
		{
			name: "invalid_configuration_degrades",
			config: &config.Config{
				Server:   config.ServerConfig{Port: 0},
				Identity: config.IdentityConfig{Provider: "dev"},
			},
			provider:   identity.NewDevProvider(logger.New("debug", "json", "stdout")),
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
			validateResp: func(t *testing.T, resp handlers.HealthResponse) {
				assert.Equal(t, handlers.StatusDegraded, resp.Components["configuration"].Status)
			},
		},
		{
			name:       "missing_provider_is_unhealthy",
			config:     validConfig(),
			provider:   nil,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			validateResp: func(t *testing.T, resp handlers.HealthResponse) {
				assert.Equal(t, handlers.StatusUnhealthy, resp.Components["identity_provider"].Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			log := logger.New("debug", "json", "stdout")
			metrics := handlers.NewMetrics(prometheus.NewRegistry())
			handler := handlers.NewHealthHandler(tt.config, tt.provider, metrics, log)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()

			handler.Health(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp handlers.HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, handlers.HealthStatus(tt.wantStatus), resp.Status)

			if tt.validateResp != nil {
				tt.validateResp(t, resp)
			}
		})
	}
}

func TestHealthHandlerLiveness(t *testing.T) {
	t.Parallel()

	log := logger.New("debug", "json", "stdout")
	metrics := handlers.NewMetrics(prometheus.NewRegistry())
	handler := handlers.NewHealthHandler(validConfig(), identity.NewDevProvider(log), metrics, log)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()

	handler.Liveness(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp["status"])
	assert.NotEmpty(t, resp["uptime"])
}

func TestHealthHandlerReadiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		provider  identity.Provider
		wantCode  int
		wantReady bool
	}{
		{
			name:      "ready",
			provider:  identity.NewDevProvider(logger.New("debug", "json", "stdout")),
			wantCode:  http.StatusOK,
			wantReady: true,
		},
		{
			name:      "not_ready_without_provider",
			provider:  nil,
			wantCode:  http.StatusServiceUnavailable,
			wantReady: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			log := logger.New("debug", "json", "stdout")
			metrics := handlers.NewMetrics(prometheus.NewRegistry())
			handler := handlers.NewHealthHandler(validConfig(), tt.provider, metrics, log)

			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			w := httptest.NewRecorder()

			handler.Readiness(w, req)

			assert.Equal(t, tt.wantCode, w.Code)

			var resp handlers.ReadinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Contains(t, resp.Components, "identity_provider")
		})
	}
}
