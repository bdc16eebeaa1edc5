package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/NirelNemirovsky/open-deep-research/internal/constants"
)

// DocsHandler serves the API reference page and the OpenAPI document.
type DocsHandler struct {
	logger *logrus.Logger
}

// NewDocsHandler creates a new documentation handler.
func NewDocsHandler(logger *logrus.Logger) *DocsHandler {
	return &DocsHandler{logger: logger}
}

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Open Deep Research API</title>
  <style>
    body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; }
    code { background: #f4f4f4; padding: 0.1rem 0.3rem; border-radius: 3px; }
    td { padding: 0.3rem 0.8rem 0.3rem 0; vertical-align: top; }
  </style>
</head>
<body>
  <h1>Open Deep Research API</h1>
  <p>HTTP surface of the research agent service. The machine-readable
  description is available at <a href="/openapi.json"><code>/openapi.json</code></a>.</p>
  <table>
    <tr><td><code>GET /health</code></td><td>Component health with overall status</td></tr>
    <tr><td><code>GET /health/live</code></td><td>Liveness probe</td></tr>
    <tr><td><code>GET /health/ready</code></td><td>Readiness probe</td></tr>
    <tr><td><code>GET /metrics</code></td><td>Prometheus metrics</td></tr>
    <tr><td><code>GET /api/v1/agent/whoami</code></td><td>Identity resolved for the caller</td></tr>
  </table>
</body>
</html>
`

// Docs serves the human-readable API reference page.
func (h *DocsHandler) Docs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeHTMLUTF8)
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(docsPage)); err != nil {
		h.logger.WithError(err).Error("Failed to write docs page")
	}
}

// OpenAPI serves the OpenAPI document describing the service endpoints.
func (h *DocsHandler) OpenAPI(w http.ResponseWriter, _ *http.Request) {
	doc := map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   "Open Deep Research API",
			"version": getVersion(),
		},
		"paths": map[string]interface{}{
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Component health with overall status",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service is healthy or degraded"},
						"503": map[string]interface{}{"description": "Service is unhealthy"},
					},
				},
			},
			"/health/live": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Liveness probe",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service is alive"},
					},
				},
			},
			"/health/ready": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Readiness probe",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service is ready"},
						"503": map[string]interface{}{"description": "Service is not ready"},
					},
				},
			},
			"/api/v1/agent/whoami": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Identity resolved for the caller",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Resolved identity"},
						"401": map[string]interface{}{"description": "Credential rejected"},
					},
				},
			},
		},
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(doc); err != nil {
		h.logger.WithError(err).Error("Failed to encode OpenAPI document")
	}
}
