package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/c-bert/blog-app-mongoose-challenge-solution/config"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/database"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(database database.Database, c map[string]string) Server {
	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port) // Bind to 0.0.0.0 for external access

	startupTime := time.Now()

	router := NewHandler(database, c, WithStartupTime(startupTime))

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  config.GetSeconds(c, "READ_TIMEOUT_SECONDS", 180),
		WriteTimeout: config.GetSeconds(c, "WRITE_TIMEOUT_SECONDS", 180),
		IdleTimeout:  config.GetSeconds(c, "IDLE_TIMEOUT_SECONDS", 180),
	}

	return Server{server, startupTime}
}

type router struct {
	startupTime time.Time
	logOutput   io.Writer
}

type RouterOption func(*router)

func WithStartupTime(startupTime time.Time) RouterOption {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

// WithAccessLog sends the per request log lines to out
func WithAccessLog(out io.Writer) RouterOption {
	return func(r *router) {
		r.logOutput = out
	}
}

// NewHandler builds the full route tree over database
func NewHandler(database database.Database, c map[string]string, opts ...RouterOption) *chi.Mux {
	router := router{
		startupTime: time.Now(),
		logOutput:   os.Stderr,
	}
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(LogInternalServerErrors)

	if acceptedOrigins := config.GetList(c, "ACCEPTED_ORIGINS"); len(acceptedOrigins) > 0 {
		chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
		chiRouter.Use(corsMiddleware(acceptedOrigins))
	}
	chiRouter.Use(ColoredHTTPLoggingMiddleware(router.logOutput))

	var responderOpts []ResponderOption
	if url := config.GetString(c, "ERROR_NOTIFICATION_URL", ""); url != "" {
		responderOpts = append(responderOpts, WithErrorNotificationURL(url))
	}

	handlers := initializeHandlers(database, router.startupTime, responderOpts...)
	setupRoutes(chiRouter, handlers)

	return chiRouter
}

// Start serves until the server is shut down. A graceful shutdown returns nil.
func (s Server) Start() error {
	log.Info().Msgf("Server started on: %s", s.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s Server) StartupTime() time.Time {
	return s.startupTime
}

func (s Server) ShutdownGracefully(timeout time.Duration) error {
	log.Info().Msg("Gracefully shutting down...")

	gracefulCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefulCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
		return err
	}
	log.Info().Msg("HttpServer gracefully shut down")
	return nil
}
