// Package httpx holds the response helpers shared by handlers and
// middleware.
package httpx

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Error writes the structured error body every failure response uses:
// {"error": <description>, "code": <status>}.
func Error(w http.ResponseWriter, status int, description string) {
	JSON(w, status, map[string]interface{}{
		"error": description,
		"code":  status,
	})
}
