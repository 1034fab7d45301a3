package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/bookshelf-api/internal/config"
	"github.com/phrazzld/bookshelf-api/internal/platform/postgres"
	"github.com/phrazzld/bookshelf-api/internal/service"
	"github.com/phrazzld/bookshelf-api/internal/service/auth"
	"github.com/phrazzld/bookshelf-api/internal/store"
	"github.com/phrazzld/bookshelf-api/internal/task"
)

// sweepTimeout bounds one maintenance run.
const sweepTimeout = 5 * time.Minute

// application holds the wired dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	authorStore     store.AuthorStore
	bookStore       store.BookStore
	credentialStore store.CredentialStore

	authService    service.AuthService
	catalogService service.CatalogService

	// nil when the sweeper is disabled
	taskRunner *task.TaskRunner
}

// newApplication builds stores, services and the maintenance runner on top
// of an open database.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("access_token_lifetime_minutes", cfg.Auth.AccessTokenLifetimeMinutes),
		slog.Int("refresh_token_lifetime_days", cfg.Auth.RefreshTokenLifetimeDays))

	app.authorStore = postgres.NewPostgresAuthorStore(db, logger)
	app.bookStore = postgres.NewPostgresBookStore(db, app.authorStore, logger)
	app.credentialStore = postgres.NewPostgresCredentialStore(db, auth.NewBcryptHasher(cfg.Auth.BcryptCost), logger)

	app.authService, err = service.NewAuthService(db, app.credentialStore, jwtService, auth.NewBcryptVerifier(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	app.catalogService, err = service.NewCatalogService(db, app.bookStore, app.authorStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog service: %w", err)
	}

	app.taskRunner = app.newTaskRunner()

	logger.Info("application initialized successfully")
	return app, nil
}

// newTaskRunner returns the maintenance sweeper, or nil when it is disabled.
func (app *application) newTaskRunner() *task.TaskRunner {
	minutes := app.config.Maintenance.SweepIntervalMinutes
	if minutes <= 0 {
		app.logger.Info("maintenance sweeper disabled")
		return nil
	}
	return task.NewTaskRunner(
		task.TaskRunnerConfig{
			Interval: time.Duration(minutes) * time.Minute,
			Timeout:  sweepTimeout,
		},
		app.logger,
		task.NewOrphanedAuthorsTask(app.authorStore),
		task.NewExpiredRefreshTokensTask(app.credentialStore),
	)
}

// Run starts the sweeper and serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if app.taskRunner != nil {
		if err := app.taskRunner.Start(); err != nil {
			return fmt.Errorf("failed to start task runner: %w", err)
		}
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work and closes the database.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
