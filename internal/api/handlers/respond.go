package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/llmservice/internal/inference"
)

type errorBody struct {
	Success      bool   `json:"success"`
	Error        string `json:"error"`
	FallbackText string `json:"fallback_text,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func statusFor(kind inference.Kind) int {
	switch kind {
	case inference.KindValidation:
		return http.StatusBadRequest
	case inference.KindUnavailable:
		return http.StatusServiceUnavailable
	case inference.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a service error. Causes are logged, not returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *inference.Error
	if !errors.As(err, &e) {
		e = &inference.Error{Kind: inference.KindInternal, Message: "Internal server error", Err: err}
	}
	status := statusFor(e.Kind)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "kind", e.Kind, "error", err)
	}
	writeJSON(w, status, errorBody{Error: e.Message, FallbackText: e.FallbackText})
}
