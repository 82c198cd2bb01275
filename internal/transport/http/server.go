// Package httptransport builds the HTTP server and its middleware chain.
package httptransport

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"

	"example.com/carbon/internal/logger"
)

// ServerConfig contains tunables for the HTTP server.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates *http.Server with provided handler.
func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Chain wraps h with panic recovery, request logging and CORS, outermost first.
func Chain(h http.Handler, log *logger.Logger, allowedOrigins []string) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowCredentials(),
	)
	logged := handlers.CustomLoggingHandler(io.Discard, cors(h), requestLogFormatter(log))
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{log: log}))(logged)
}

func requestLogFormatter(log *logger.Logger) handlers.LogFormatter {
	return func(_ io.Writer, p handlers.LogFormatterParams) {
		log.Info("http request",
			"method", p.Request.Method,
			"path", p.URL.Path,
			"status", p.StatusCode,
			"bytes", p.Size,
			"duration_ms", time.Since(p.TimeStamp).Milliseconds(),
		)
	}
}

type recoveryLogger struct {
	log *logger.Logger
}

func (r recoveryLogger) Println(v ...interface{}) {
	r.log.Error("panic recovered", "panic", fmt.Sprint(v...))
}
