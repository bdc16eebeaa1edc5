package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/NirelNemirovsky/open-deep-research/internal/constants"
	"github.com/NirelNemirovsky/open-deep-research/internal/identity"
)

// IdentityHandler serves endpoints reporting the caller's resolved identity.
type IdentityHandler struct {
	logger *logrus.Logger
}

// NewIdentityHandler creates a new identity reporting handler.
func NewIdentityHandler(logger *logrus.Logger) *IdentityHandler {
	return &IdentityHandler{logger: logger}
}

// WhoAmI returns the identity the middleware resolved for this request.
// The identity middleware always runs before this handler, so a missing
// identity indicates a routing misconfiguration.
func (h *IdentityHandler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		h.logger.WithField("path", r.URL.Path).Error("Request reached identity endpoint without resolved identity")
		h.writeErrorResponse(w, "No identity resolved for request", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, id, http.StatusOK)
}

// writeJSONResponse writes a JSON response with the given status code.
func (h *IdentityHandler) writeJSONResponse(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse writes a JSON error response with the given message and status code.
func (h *IdentityHandler) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	response := map[string]interface{}{
		"error":             "identity_error",
		"error_description": message,
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to encode error response")
	}
}
