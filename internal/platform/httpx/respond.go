// Package httpx provides helpers for the JSON response envelope shared by
// every endpoint: {"status": bool, "message": string, "data": ...}.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response body shape shared by all endpoints.
type Envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Success sends a success envelope.
func Success(w http.ResponseWriter, code int, message string, data any) {
	JSON(w, code, Envelope{Status: true, Message: message, Data: data})
}

// Failure sends a failure envelope without a data field.
func Failure(w http.ResponseWriter, code int, message string) {
	JSON(w, code, Envelope{Status: false, Message: message})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
