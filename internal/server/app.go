// Package server initializes and runs the main application server: it opens
// the database pool, applies migrations, wires services to the HTTP adapter,
// and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"github.com/abalakin-dev/quizkeeper/internal/logging"
	"github.com/abalakin-dev/quizkeeper/internal/server/config"
	"github.com/abalakin-dev/quizkeeper/internal/server/httpapi"
	"github.com/abalakin-dev/quizkeeper/internal/server/repositories/repomanager"
	"github.com/abalakin-dev/quizkeeper/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

func NewApp(c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	userService := services.NewUserService(db, rm)
	recordService := services.NewRecordService(db, rm, userService)

	router := httpapi.NewRouter(logger, userService, recordService, db.PingContext)

	// The browser frontend is served from a different origin, so the API
	// answers preflight requests for every route.
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	handler := handlers.LoggingHandler(os.Stdout, cors(router))

	return &App{config: c, logger: logger, db: db, handler: handler}, nil
}

func (app *App) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:         app.config.EndpointAddr,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-errCh:
		return err
	case <-sigs:
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing db", "error", err)
	}

	app.logger.Info(ctx, "server stopped")
	return nil
}
