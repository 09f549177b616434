package httpserver

import (
	"net/http"
	"time"
)

// New builds the registry's HTTP server. Requests are small JSON bodies
// (fingerprints, never documents) and verification reads are point lookups,
// so short read/write deadlines are safe; the longer idle timeout keeps
// verifier connections reusable.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
