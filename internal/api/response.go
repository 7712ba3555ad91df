package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/FocuswithJustin/JuniperQuran/core/errors"
	"github.com/FocuswithJustin/JuniperQuran/internal/logging"
)

// Error codes carried in APIError.Code.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternal          = "INTERNAL_ERROR"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Timestamp: now()},
	})
}

func respondList(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Total: total, Timestamp: now()},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &APIMeta{Timestamp: now()},
	})
}

// respondErr maps the typed errors of core/errors onto status codes.
// Anything unrecognised is logged and reported without detail.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var pe *errors.ParseError
	switch {
	case errors.Is(err, errors.ErrNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, errors.ErrInvalidInput), errors.As(err, &pe):
		respondError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
	default:
		logging.ErrorContext(r.Context(), "api_error", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}
