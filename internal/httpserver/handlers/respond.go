package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"casefile/internal/auth"
)

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(map[string]any{"error": msg})
}

func respondValidation(w http.ResponseWriter, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   "Validation error",
		"details": details,
	})
}

// respondAuthError maps gate failures onto the 401/403 split. Both are
// terminal for the request.
func respondAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrUnauthenticated) {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondError(w, http.StatusForbidden, "Forbidden")
}
