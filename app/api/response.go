package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// OKResponse writes data as JSON with the given status code.
func OKResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// ErrorResponse writes {"error": message} with the given status code.
func ErrorResponse(w http.ResponseWriter, status int, message string) {
	OKResponse(w, status, map[string]string{"error": message})
}
