// Package respond writes JSON responses. It owns the error body every
// layer answers with, so the auth guard, the method dispatcher and the
// handlers cannot drift apart:
//
//	{"error": "unauthorized", "message": "token has expired"}
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorBody is the body of every non-2xx response.
type ErrorBody struct {
	Error   string `json:"error"`   // machine-readable type, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// JSON sends data with the given status. A nil data writes headers only.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are gone; all we can do is log.
			zap.L().Error("failed to encode JSON response", zap.Error(err))
		}
	}
}

// Error sends an ErrorBody.
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, ErrorBody{Error: kind, Message: message})
}
