package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/config"
	"github.com/ekaya-inc/rfqportal/pkg/database"
	"github.com/ekaya-inc/rfqportal/pkg/extraction"
	"github.com/ekaya-inc/rfqportal/pkg/handlers"
	"github.com/ekaya-inc/rfqportal/pkg/llm"
	"github.com/ekaya-inc/rfqportal/pkg/logging"
	"github.com/ekaya-inc/rfqportal/pkg/mcp"
	"github.com/ekaya-inc/rfqportal/pkg/middleware"
	"github.com/ekaya-inc/rfqportal/pkg/repositories"
	"github.com/ekaya-inc/rfqportal/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(Version)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
	)

	db, err := database.NewConnection(ctx, &database.Config{
		URL:             cfg.Database.ConnectionString(),
		MaxConnections:  cfg.Database.MaxConnections,
		MaxConnLifetime: time.Duration(cfg.Database.MaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.Database.MaxConnIdleMinutes) * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %s", logging.SanitizeError(err))
	}
	defer db.Close()

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	_ = sqlDB.Close()

	llmClient, err := llm.NewClientFromConfig(cfg.LLM.ClientConfig(), cfg.LLM.GuardConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	pipeline, admin := buildServices(cfg, db, llmClient, logger)

	mux := http.NewServeMux()
	scope := handlers.ScopeMiddleware(database.WithScope(db, logger))

	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewRFQHandler(admin.rfqs, admin.quotes, logger).RegisterRoutes(mux, scope)
	handlers.NewSupplierHandler(admin.suppliers, logger).RegisterRoutes(mux, scope)
	handlers.NewQuoteHandler(admin.quotes, logger).RegisterRoutes(mux, scope)
	handlers.NewEmailHandler(pipeline, cfg.Extraction.Timeout(), cfg.Extraction.BatchConcurrency, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer("rfqportal", cfg.Version, logger)
		mcpServer.RegisterTools(&mcp.ToolDeps{
			Pipeline: pipeline,
			DB:       db,
			Timeout:  cfg.Extraction.Timeout(),
		})
		mux.Handle(cfg.MCP.Path, mcpServer.Handler())
		logger.Info("MCP endpoint enabled", zap.String("path", cfg.MCP.Path))
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		// Single-email routes wait on the model once; batches extend their own deadline.
		WriteTimeout: cfg.Extraction.Timeout() + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting rfqportal",
			zap.String("addr", httpServer.Addr),
			zap.Bool("tls", cfg.TLSCertPath != ""),
		)
		if cfg.TLSCertPath != "" && cfg.TLSKeyPath != "" {
			serverErrors <- httpServer.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// adminServices are the CRUD services behind the admin routes.
type adminServices struct {
	rfqs      services.RFQService
	suppliers services.SupplierService
	quotes    services.QuoteService
}

func buildServices(cfg *config.Config, db *database.DB, client llm.LLMClient, logger *zap.Logger) (services.EmailPipeline, adminServices) {
	rfqRepo := repositories.NewRFQRepository()
	supplierRepo := repositories.NewSupplierRepository()
	quoteRepo := repositories.NewQuoteRepository()
	emailRepo := repositories.NewEmailRepository()

	var extractor extraction.Extractor = extraction.NewExtractor(client, cfg.LLM.Temperature, logger)
	if cfg.Extraction.MaxRetries > 0 {
		extractor = extraction.NewRetryingExtractor(extractor, cfg.Extraction.RetryConfig(), logger)
	}

	reconciler := services.NewReconciliationService(database.NewUnitOfWork(), rfqRepo, supplierRepo, quoteRepo, emailRepo, logger)
	auditor := services.NewQuoteAuditService(quoteRepo, services.AuditConfig{
		ZeroIsMissing: cfg.Audit.ZeroIsMissing,
		Signature:     cfg.Audit.Signature,
	}, logger)
	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: cfg.Extraction.BatchConcurrency}, logger)

	pipeline := services.NewEmailPipeline(extractor, reconciler, auditor, rfqRepo, database.NewScopeProvider(db), pool, logger)

	return pipeline, adminServices{
		rfqs:      services.NewRFQService(rfqRepo, logger),
		suppliers: services.NewSupplierService(supplierRepo, logger),
		quotes:    services.NewQuoteService(rfqRepo, quoteRepo, emailRepo, logger),
	}
}

// newLogger returns a development logger locally and a JSON production
// logger everywhere else.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
