package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/jobpilot/internal/services/importer"
	"github.com/ternarybob/jobpilot/internal/services/llm"
	"github.com/ternarybob/jobpilot/internal/services/scheduler"
	"github.com/ternarybob/jobpilot/internal/services/workspace"
)

// maxJSONBody bounds request bodies decoded as JSON
const maxJSONBody = 1 << 20

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response.
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteServiceError maps a service error to its HTTP status
func WriteServiceError(w http.ResponseWriter, err error) error {
	var validationErrs validator.ValidationErrors
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workspace.ErrJobNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workspace.ErrInvalidTransition),
		errors.Is(err, workspace.ErrDuplicateJob),
		errors.Is(err, scheduler.ErrDiscoveryInProgress):
		status = http.StatusConflict
	case errors.Is(err, workspace.ErrInvalidJob),
		errors.Is(err, importer.ErrInvalidURL),
		errors.As(err, &validationErrs):
		status = http.StatusBadRequest
	case errors.Is(err, importer.ErrNoListing):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, llm.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, llm.ErrMissingAPIKey):
		status = http.StatusServiceUnavailable
	case errors.Is(err, llm.ErrMalformedResponse):
		status = http.StatusBadGateway
	}
	return WriteError(w, status, err.Error())
}

// DecodeJSON reads a bounded JSON body into v
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// GetLimitParam reads ?limit=, returning def when absent or invalid
func GetLimitParam(r *http.Request, def int) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// SplitResourcePath splits "/api/jobs/{id}/{action}" after prefix into id and action
func SplitResourcePath(path, prefix string) (id, action string) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return "", ""
	}
	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action
}
