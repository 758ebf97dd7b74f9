// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"fintrack/internal/analytics"
	router "fintrack/internal/api"
	"fintrack/internal/api/handler"
	"fintrack/internal/auth"
	"fintrack/internal/blob"
	"fintrack/internal/config"
	"fintrack/internal/events"
	"fintrack/internal/repository"
	"fintrack/internal/repository/postgres"
	"fintrack/internal/service"
	"fintrack/internal/util"
	"fintrack/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	UserRepository   repository.UserRepository
	UploadRepository repository.UploadRepository
	LedgerRepository repository.LedgerRepository

	// Infrastructure
	Sessions  *auth.MemorySessionStore
	Blobs     blob.Store
	Publisher events.Publisher

	// Services
	AuthService   service.AuthService
	LedgerService service.LedgerService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx, app.DB.DB); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		app.Logger.Info("Database migrations applied.")
	}

	// 4. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository()
	app.UploadRepository = postgres.NewUploadRepository()
	app.LedgerRepository = postgres.NewLedgerRepository()
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize Infrastructure
	if app.Blobs, err = newBlobStore(ctx, cfg, app.Logger); err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}
	if app.Publisher, err = newPublisher(cfg, app.Logger); err != nil {
		return fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	app.Sessions = auth.NewMemorySessionStore(cfg.SessionTTL, app.Logger)
	analyticsClient := analytics.NewClient(cfg.AnalyticsURL, cfg.AnalyticsTimeout, app.Logger)
	app.Logger.Info("Infrastructure initialized.", "blob_backend", cfg.BlobBackend, "events", cfg.AMQPURL != "")

	// 6. Initialize Services
	verifier := auth.NewPasswordVerifier(app.DB, app.UserRepository, app.Logger)
	app.AuthService = service.NewAuthService(app.DB, app.UserRepository, verifier, app.Sessions, app.Logger)
	app.LedgerService = service.NewLedgerService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.UploadRepository,
		app.LedgerRepository,
		app.Blobs,
		app.Publisher,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Logger,
	)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	cookies := handler.Cookies{Secure: cfg.CookieSecure, TTL: cfg.SessionTTL}
	app.HTTPHandler = router.NewRouter(router.Handlers{
		Auth:      handler.NewAuthHandler(app.AuthService, cookies, app.Logger),
		Ledger:    handler.NewLedgerHandler(app.LedgerService, cfg.MaxUploadBytes, app.Logger),
		Analytics: handler.NewAnalyticsHandler(analyticsClient, app.Logger),
	}, router.RequireAuth(app.AuthService, cookies, app.Logger), cfg.CORSOrigins, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

func newBlobStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (blob.Store, error) {
	if cfg.BlobBackend == config.BlobBackendS3 {
		client, err := blob.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return blob.NewS3Store(client, cfg.S3.Bucket, logger), nil
	}
	store, err := blob.NewLocalStore(cfg.UploadDir, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newPublisher(cfg *config.AppConfig, logger *slog.Logger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		return events.NoopPublisher{}, nil
	}
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Publisher != nil {
		if err := app.Publisher.Close(); err != nil {
			app.Logger.Error("Failed to close event publisher", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
