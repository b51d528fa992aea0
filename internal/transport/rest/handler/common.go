package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"sigquiz/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation failed",
			"field": vErr.Field,
			"hint":  vErr.Reason,
		})
		return
	}

	var cErr *service.CooldownError
	if errors.As(err, &cErr) {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"error":         "cooldown active",
			"retryAfterSec": int(cErr.RetryAfter.Seconds()),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrInsufficientPool):
		writeError(w, http.StatusServiceUnavailable, "not enough questions available")
	case errors.Is(err, service.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
