// Package httpx holds small HTTP helpers shared by the console's transport
// handlers: JSON responses, cache suppression, and per-key rate limiting.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares to a handler, outermost first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// WriteJSON writes a JSON response with the given status code. Responses from
// the auth surface carry tokens and profiles, so caching is suppressed on
// every one of them.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrorJSON writes a {error, message} body with the given status code.
func WriteErrorJSON(w http.ResponseWriter, code int, tag, message string) {
	WriteJSON(w, code, map[string]string{
		"error":   tag,
		"message": message,
	})
}

// NoCache sets headers preventing any caching of the response.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
