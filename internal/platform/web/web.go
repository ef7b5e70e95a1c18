// Package web holds the JSON response helpers shared by all HTTP handlers.
package web

import (
	"encoding/json"
	"log"
	"net/http"

	"parceltrack/internal/apperr"
)

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response failed: %v", err)
	}
}

// Error maps an error to its HTTP status and writes a JSON error body.
// Unclassified errors are logged and surfaced as 500 without detail.
func Error(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status, message := http.StatusInternalServerError, "internal server error"

	switch kind {
	case apperr.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	case apperr.KindInvalid:
		status, message = http.StatusBadRequest, err.Error()
	case apperr.KindInvalidState:
		status, message = http.StatusConflict, err.Error()
	case apperr.KindForbidden:
		status, message = http.StatusForbidden, err.Error()
	case apperr.KindDuplicate:
		status, message = http.StatusConflict, err.Error()
	default:
		kind = "INTERNAL"
		log.Printf("internal error: %v", err)
	}

	JSON(w, status, map[string]string{"error": message, "code": string(kind)})
}
