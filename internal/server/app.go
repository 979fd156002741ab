// Package server wires the store together: metadata repository, blob
// backend, upload service and the HTTP endpoint, with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/akarpov/mediavault/internal/logging"
	"github.com/akarpov/mediavault/internal/server/config"
	"github.com/akarpov/mediavault/internal/server/httpapi"
	"github.com/akarpov/mediavault/internal/server/migrations"
	"github.com/akarpov/mediavault/internal/server/repositories/files"
	"github.com/akarpov/mediavault/internal/server/services"
	"github.com/akarpov/mediavault/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	vault  *services.Service
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repo, db, err := buildRepository(ctx, c)
	if err != nil {
		return nil, err
	}

	blobs, err := buildBlobStore(ctx, c)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	vault := services.NewService(repo, blobs, logger)
	return &App{config: c, logger: logger, db: db, vault: vault}, nil
}

func buildRepository(ctx context.Context, c *config.Config) (files.Repository, *sql.DB, error) {
	if c.DatabaseDSN == "" {
		return files.NewMemoryRepository(), nil, nil
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}

	return files.NewPostgresRepository(db), db, nil
}

func buildBlobStore(ctx context.Context, c *config.Config) (storage.BlobStore, error) {
	switch c.Storage {
	case config.StorageS3:
		return storage.NewS3(ctx, storage.S3Options{
			User:         c.S3RootUser,
			Password:     c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	case config.StorageDisk:
		return storage.NewDisk(c.MediaDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Storage)
	}
}

// Run serves the store API until the context is cancelled or a
// termination signal arrives, then shuts down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: httpapi.NewRouter(app.vault, app.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "store listening", "addr", app.config.EndpointAddr, "storage", app.config.Storage)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			return fmt.Errorf("db close: %w", err)
		}
	}
	return <-errCh
}
