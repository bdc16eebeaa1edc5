// Package middleware provides HTTP middleware components for the agent
// service including request logging, panic recovery, security headers,
// and identity resolution.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/NirelNemirovsky/open-deep-research/internal/config"
	"github.com/NirelNemirovsky/open-deep-research/internal/constants"
	"github.com/NirelNemirovsky/open-deep-research/internal/handlers"
	"github.com/NirelNemirovsky/open-deep-research/internal/identity"
	"github.com/NirelNemirovsky/open-deep-research/pkg/logger"
)

const (
	// HTTPClientError minimum status code (4xx).
	HTTPClientError = 400
	// HTTPServerError minimum status code (5xx).
	HTTPServerError = 500
)

// contextKey is an unexported type for keys stored in context to avoid collisions.
type contextKey string

// requestIDKey is the context key used to store the request ID.
const requestIDKey contextKey = "request_id"

// Stack holds all middleware dependencies and provides
// methods to create HTTP middleware handlers.
type Stack struct {
	config   *config.Config
	provider identity.Provider
	metrics  *handlers.Metrics
	logger   *logrus.Logger
}

// NewStack creates a new middleware stack with the provided dependencies.
func NewStack(cfg *config.Config, provider identity.Provider, metrics *handlers.Metrics, logger *logrus.Logger) *Stack {
	return &Stack{
		config:   cfg,
		provider: provider,
		metrics:  metrics,
		logger:   logger,
	}
}

// Chain applies multiple middleware functions to an HTTP handler.
func (m *Stack) Chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := range middleware {
		h = middleware[len(middleware)-1-i](h)
	}
	return h
}

// RequestLogger logs HTTP requests with structured logging including
// request details, response status, and processing duration. It also
// records the request in the HTTP metrics.
func (m *Stack) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Generate request ID and store it in the typed context key
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)

		// Also store the correlation ID using the logger's correlation ID system
		ctx = logger.SetCorrelationID(ctx, requestID)
		r = r.WithContext(ctx)

		// Wrap response writer to capture the status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		// Add request ID to response headers
		wrapped.Header().Set(constants.HeaderXRequestID, requestID)

		// Process request
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		m.metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, r.URL.Path, strconv.Itoa(wrapped.statusCode),
		).Inc()
		m.metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration.Seconds())

		// Skip logging for health check endpoints
		if strings.HasPrefix(r.URL.Path, "/health") {
			return
		}

		// Log request details using correlation ID
		logEntry := logger.WithCorrelationID(r.Context(), m.logger)
		fields := logrus.Fields{
			"method":         r.Method,
			"path":           r.URL.Path,
			"query":          r.URL.RawQuery,
			"status":         wrapped.statusCode,
			"duration":       duration.String(),
			"duration_ms":    duration.Milliseconds(),
			"remote_addr":    getClientIP(r),
			"user_agent":     r.UserAgent(),
			"content_length": r.ContentLength,
		}

		if referer := r.Header.Get(constants.HeaderReferer); referer != "" {
			fields["referer"] = referer
		}

		level := logrus.InfoLevel
		if wrapped.statusCode >= HTTPClientError {
			level = logrus.WarnLevel
		}
		if wrapped.statusCode >= HTTPServerError {
			level = logrus.ErrorLevel
		}

		logEntry.WithFields(fields).Log(level, "HTTP request processed")
	})
}

// Identity resolves the caller identity through the configured provider and
// stores it on the request context. Requests the provider rejects receive a
// 401 response; the dev provider accepts everything, so rejections only
// happen with credential-checking providers.
func (m *Stack) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := r.Header.Get(constants.HeaderAuthorization)

		id, err := m.provider.Authenticate(r.Context(), credential)
		if err != nil {
			m.metrics.IdentityRequestsTotal.WithLabelValues(m.provider.Name(), "rejected").Inc()

			logEntry := logger.WithCorrelationID(r.Context(), m.logger)
			logEntry.WithError(err).WithFields(logrus.Fields{
				"provider": m.provider.Name(),
				"path":     r.URL.Path,
			}).Warn("Credential rejected")

			m.writeIdentityError(w, "Invalid credential", http.StatusUnauthorized)
			return
		}

		m.metrics.IdentityRequestsTotal.WithLabelValues(m.provider.Name(), "ok").Inc()

		next.ServeHTTP(w, r.WithContext(identity.NewContext(r.Context(), id)))
	})
}

// SecurityHeaders adds security-related HTTP headers to responses.
func (m *Stack) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Security headers
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Content Security Policy, relaxed enough for the docs page
		csp := "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"connect-src 'self'; " +
			"object-src 'none'; " +
			"frame-src 'none'; " +
			"base-uri 'self';"
		w.Header().Set("Content-Security-Policy", csp)

		// HSTS header, only when the service terminates TLS
		if r.TLS != nil || m.config.IsTLSEnabled() {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// Recovery recovers from panics and logs them while returning a proper error response.
func (m *Stack) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logEntry := logger.WithCorrelationID(r.Context(), m.logger)

				logEntry.WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  err,
				}).Error("Panic recovered")

				// Return generic error to client
				w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(
					`{"error": "internal_server_error", ` +
						`"error_description": "An unexpected error occurred"}`,
				))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter

	statusCode int
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the real client IP address from various headers.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (load balancers, proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	// Check X-Real-IP header (nginx, some proxies)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	return strings.Split(r.RemoteAddr, ":")[0]
}

// writeIdentityError writes a JSON error response for rejected credentials.
func (m *Stack) writeIdentityError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	response := map[string]interface{}{
		"error":             "invalid_credential",
		"error_description": message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		m.logger.WithError(err).Error("Failed to encode identity error response")
	}
}
