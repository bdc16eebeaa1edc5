package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/NirelNemirovsky/open-deep-research/internal/config"
	"github.com/NirelNemirovsky/open-deep-research/internal/constants"
	"github.com/NirelNemirovsky/open-deep-research/internal/identity"
)

// HealthHandler provides health check and monitoring endpoints.
type HealthHandler struct {
	config    *config.Config
	provider  identity.Provider
	logger    *logrus.Logger
	metrics   *Metrics
	startTime time.Time
}

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	// StatusHealthy indicates the component is healthy.
	StatusHealthy HealthStatus = "healthy"
	// StatusUnhealthy indicates the component is unhealthy.
	StatusUnhealthy HealthStatus = "unhealthy"
	// StatusDegraded indicates the component has degraded performance.
	StatusDegraded HealthStatus = "degraded"
)

// HealthResponse represents the overall health check response.
type HealthResponse struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Details    map[string]interface{}     `json:"details,omitempty"`
}

// ComponentHealth represents the health of an individual component.
type ComponentHealth struct {
	Status       HealthStatus `json:"status"`
	Message      string       `json:"message,omitempty"`
	LastChecked  time.Time    `json:"last_checked"`
	ResponseTime string       `json:"response_time,omitempty"`
}

// ReadinessResponse represents the readiness check response.
type ReadinessResponse struct {
	Ready      bool                       `json:"ready"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// Metrics holds Prometheus metrics for monitoring.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Identity metrics
	IdentityRequestsTotal *prometheus.CounterVec

	// Health metrics
	HealthChecksTotal     *prometheus.CounterVec
	ComponentHealthStatus *prometheus.GaugeVec
}

// NewMetrics creates Prometheus metrics and registers them with the given
// registerer. Tests pass a fresh registry to keep metric registration
// isolated between cases.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		IdentityRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_identity_requests_total",
				Help: "Total number of identity resolutions",
			},
			[]string{"provider", "outcome"},
		),
		HealthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"endpoint", "status"},
		),
		ComponentHealthStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agent_component_health_status",
				Help: "Health status of service components (1=healthy, 0=unhealthy)",
			},
			[]string{"component"},
		),
	}
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(
	cfg *config.Config,
	provider identity.Provider,
	metrics *Metrics,
	logger *logrus.Logger,
) *HealthHandler {
	return &HealthHandler{
		config:    cfg,
		provider:  provider,
		logger:    logger,
		metrics:   metrics,
		startTime: time.Now(),
	}
}

// Health provides a comprehensive health check including all components.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()

	h.logger.Debug("Processing health check request")

	// Check all components
	components := make(map[string]ComponentHealth)
	overallStatus := StatusHealthy

	// Check configuration
	configHealth := h.checkConfiguration()
	components["configuration"] = configHealth
	if configHealth.Status != StatusHealthy {
		overallStatus = StatusDegraded
	}

	// Check identity provider
	providerHealth := h.checkIdentityProvider()
	components["identity_provider"] = providerHealth
	if providerHealth.Status != StatusHealthy {
		overallStatus = StatusUnhealthy
	}

	// Update Prometheus metrics
	statusLabel := string(overallStatus)
	h.metrics.HealthChecksTotal.WithLabelValues("health", statusLabel).Inc()

	for component, health := range components {
		healthValue := float64(0)
		if health.Status == StatusHealthy {
			healthValue = 1
		}
		h.metrics.ComponentHealthStatus.WithLabelValues(component).Set(healthValue)
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Version:    getVersion(),
		Uptime:     time.Since(h.startTime).String(),
		Components: components,
		Details: map[string]interface{}{
			"check_duration": time.Since(start).String(),
			"environment":    string(h.config.Environment.Environment),
		},
	}

	// Set appropriate HTTP status code
	statusCode := http.StatusOK
	switch overallStatus {
	case StatusHealthy:
		statusCode = http.StatusOK
	case StatusUnhealthy:
		statusCode = http.StatusServiceUnavailable
	case StatusDegraded:
		statusCode = http.StatusOK // Still return 200 for degraded
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to encode health response")
	}

	h.logger.WithFields(logrus.Fields{
		"status":   overallStatus,
		"duration": time.Since(start).String(),
	}).Debug("Health check completed")
}

// Liveness provides a simple liveness check that returns 200 if the service is alive.
// This is used by Kubernetes to determine if the pod should be restarted.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	h.metrics.HealthChecksTotal.WithLabelValues("liveness", "healthy").Inc()

	response := map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to encode liveness response")
	}
}

// Readiness checks if the service is ready to receive traffic.
// This is used by Kubernetes to determine if the pod should receive requests.
func (h *HealthHandler) Readiness(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()

	h.logger.Debug("Processing readiness check")

	components := make(map[string]ComponentHealth)
	ready := true

	configHealth := h.checkConfiguration()
	components["configuration"] = configHealth
	if configHealth.Status == StatusUnhealthy {
		ready = false
	}

	providerHealth := h.checkIdentityProvider()
	components["identity_provider"] = providerHealth
	if providerHealth.Status != StatusHealthy {
		ready = false
	}

	// Update metrics
	statusLabel := "ready"
	if !ready {
		statusLabel = "not_ready"
	}
	h.metrics.HealthChecksTotal.WithLabelValues("readiness", statusLabel).Inc()

	response := ReadinessResponse{
		Ready:      ready,
		Timestamp:  time.Now(),
		Components: components,
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to encode readiness response")
	}

	h.logger.WithFields(logrus.Fields{
		"ready":    ready,
		"duration": time.Since(start).String(),
	}).Debug("Readiness check completed")
}

// checkConfiguration validates critical configuration values.
func (h *HealthHandler) checkConfiguration() ComponentHealth {
	if err := h.config.Validate(); err != nil {
		return ComponentHealth{
			Status:      StatusDegraded,
			Message:     "Configuration issues: " + err.Error(),
			LastChecked: time.Now(),
		}
	}

	return ComponentHealth{
		Status:      StatusHealthy,
		Message:     "Configuration is valid",
		LastChecked: time.Now(),
	}
}

// checkIdentityProvider reports on the configured identity provider.
// Providers are in-process components, so health reduces to being wired up.
func (h *HealthHandler) checkIdentityProvider() ComponentHealth {
	if h.provider == nil {
		return ComponentHealth{
			Status:      StatusUnhealthy,
			Message:     "No identity provider configured",
			LastChecked: time.Now(),
		}
	}

	return ComponentHealth{
		Status:      StatusHealthy,
		Message:     h.provider.Name() + " provider configured",
		LastChecked: time.Now(),
	}
}

// getVersion returns the service version (would typically come from build info).
func getVersion() string {
	// In a real deployment, this would be injected at build time
	return "1.0.0"
}
