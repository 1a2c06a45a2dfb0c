package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth/handler"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth/repository"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth/service"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/budget"
	budgethandler "github.com/FACorreiaa/pocket-ledger/internal/domain/budget/handler"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/chat"
	chathandler "github.com/FACorreiaa/pocket-ledger/internal/domain/chat/handler"
	importhandler "github.com/FACorreiaa/pocket-ledger/internal/domain/import/handler"
	importservice "github.com/FACorreiaa/pocket-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	txhandler "github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/handler"
	"github.com/FACorreiaa/pocket-ledger/pkg/ai"
	"github.com/FACorreiaa/pocket-ledger/pkg/config"
	"github.com/FACorreiaa/pocket-ledger/pkg/cron"
	"github.com/FACorreiaa/pocket-ledger/pkg/db"
	"github.com/FACorreiaa/pocket-ledger/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	AuthRepo         repository.AuthRepository
	TransactionsRepo *transactions.Repository
	BudgetRepo       *budget.Repository

	// Services
	TokenManager        service.TokenManager
	AuthService         *service.AuthService
	TransactionsService *transactions.Service
	BudgetService       *budget.Service
	ChatService         *chat.Service
	ImportService       *importservice.ImportService
	FileStorage         storage.Storage
	Gemini              *ai.Gemini
	Scheduler           *cron.Scheduler

	// Handlers
	AuthHandler         *handler.AuthHandler
	TransactionsHandler *txhandler.TransactionsHandler
	BudgetHandler       *budgethandler.BudgetHandler
	ChatHandler         *chathandler.ChatHandler
	ImportHandler       *importhandler.ImportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initServices(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initRepositories() {
	d.AuthRepo = repository.NewPostgresAuthRepository(d.DB.Pool)
	d.TransactionsRepo = transactions.NewRepository(d.DB.Pool)
	d.BudgetRepo = budget.NewRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices(ctx context.Context) error {
	cfg := d.Config

	d.TokenManager = service.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	var mailer service.EmailSender
	if m := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From); m != nil {
		mailer = m
	} else {
		d.Logger.Warn("RESEND_API_KEY not set, welcome emails disabled")
	}
	d.AuthService = service.NewAuthService(d.AuthRepo, d.TokenManager, mailer, d.Logger)

	d.TransactionsService = transactions.NewService(d.TransactionsRepo, cfg.Currency, d.Logger)
	d.BudgetService = budget.NewService(d.BudgetRepo, d.TransactionsRepo, cfg.Currency, d.Logger)

	files, err := storage.NewLocalStorage(cfg.Storage.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = files
	d.Scheduler = cron.NewScheduler(files, cfg.Storage.Retention, d.Logger)

	// The AI paths answer 503 when no model is configured.
	var generator ai.Generator
	if cfg.Gemini.APIKey != "" {
		gemini, err := ai.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to init gemini: %w", err)
		}
		d.Gemini = gemini
		generator = gemini
	} else {
		d.Logger.Warn("GEMINI_API_KEY not set, AI features disabled")
	}

	resolver := chat.NewResolver(generator, d.TransactionsRepo, d.BudgetRepo, cfg.Currency, d.Logger)
	resolver.RetryDelay = cfg.Gemini.RetryDelay
	insights := chat.NewInsights(d.TransactionsRepo, d.BudgetRepo, cfg.Currency)
	d.ChatService = chat.NewService(insights, resolver, d.Logger)

	d.ImportService = importservice.NewImportService(d.TransactionsRepo, d.FileStorage, cfg.Currency, d.Logger)
	if d.Gemini != nil {
		d.ImportService.WithAI(d.Gemini).WithOCR(d.Gemini)
	}

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() {
	d.AuthHandler = handler.NewAuthHandler(d.AuthService, d.Logger)
	d.TransactionsHandler = txhandler.NewTransactionsHandler(d.TransactionsService, d.Logger)
	d.BudgetHandler = budgethandler.NewBudgetHandler(d.BudgetService, d.Logger)
	d.ChatHandler = chathandler.NewChatHandler(d.ChatService, d.Logger)
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.FileStorage, d.Config.Upload.MaxBytes, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
