// Package httpserver owns the http.Server construction so every binary
// serves with the same timeouts.
package httpserver

import (
	"net/http"
	"time"
)

// New returns the server for the given handler. ReadHeaderTimeout keeps
// slow-header clients from pinning connections; request bodies are bounded
// by the per-route timeout middleware instead.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
