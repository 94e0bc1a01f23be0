package httpserver

import (
	"net/http"
	"time"

	"habit-rooms-go/internal/config"
)

// New builds the HTTP server. WriteTimeout stays unset so event streams are
// not cut off; handlers are bounded by the router's request timeout instead.
func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
