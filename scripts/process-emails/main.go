// process-emails runs a batch of supplier emails through the quote pipeline
// against the configured database and model, then prints the results as JSON.
//
// Usage: go run ./scripts/process-emails [-concurrency N] <submissions.yaml>
//
// The YAML file lists submissions:
//
//   - ref: acme-olive-oil
//     rfq_id: 2f1c3a7e-4a0b-4d8e-9c57-1f0f6b0a9e21
//     email_text: |
//     Dear buyer, ...
//
// Configuration: config.yaml or environment variables, as for the server.
// Requires: LLM_API_KEY and PGPASSWORD environment variables
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/rfqportal/pkg/config"
	"github.com/ekaya-inc/rfqportal/pkg/database"
	"github.com/ekaya-inc/rfqportal/pkg/extraction"
	"github.com/ekaya-inc/rfqportal/pkg/llm"
	"github.com/ekaya-inc/rfqportal/pkg/logging"
	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/repositories"
	"github.com/ekaya-inc/rfqportal/pkg/services"
)

// Output is the JSON document printed to stdout.
type Output struct {
	Total     int                    `json:"total"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Results   []services.BatchResult `json:"results"`
}

func main() {
	concurrency := flag.Int("concurrency", 0, "Emails processed at once (default: extraction.batch_concurrency)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: process-emails [-concurrency N] <submissions.yaml>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *concurrency); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, concurrency int) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := logConfig.Build()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	submissions, err := readSubmissions(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load("process-emails")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if concurrency > 0 {
		cfg.Extraction.BatchConcurrency = concurrency
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: int32(cfg.Extraction.BatchConcurrency) + 1,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %s", logging.SanitizeError(err))
	}
	defer db.Close()

	client, err := llm.NewClientFromConfig(cfg.LLM.ClientConfig(), cfg.LLM.GuardConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	rfqRepo := repositories.NewRFQRepository()
	quoteRepo := repositories.NewQuoteRepository()

	var extractor extraction.Extractor = extraction.NewExtractor(client, cfg.LLM.Temperature, logger)
	if cfg.Extraction.MaxRetries > 0 {
		extractor = extraction.NewRetryingExtractor(extractor, cfg.Extraction.RetryConfig(), logger)
	}

	pipeline := services.NewEmailPipeline(
		extractor,
		services.NewReconciliationService(
			database.NewUnitOfWork(),
			rfqRepo,
			repositories.NewSupplierRepository(),
			quoteRepo,
			repositories.NewEmailRepository(),
			logger,
		),
		services.NewQuoteAuditService(quoteRepo, services.AuditConfig{
			ZeroIsMissing: cfg.Audit.ZeroIsMissing,
			Signature:     cfg.Audit.Signature,
		}, logger),
		rfqRepo,
		database.NewScopeProvider(db),
		llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: cfg.Extraction.BatchConcurrency}, logger),
		logger,
	)

	results := pipeline.ProcessBatch(ctx, submissions)

	out := Output{Total: len(results), Results: results}
	for _, r := range results {
		if r.Result.Status == models.ProcessStatusSuccess {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if out.Failed > 0 {
		return fmt.Errorf("%d of %d emails failed", out.Failed, out.Total)
	}
	return nil
}

func readSubmissions(path string) ([]services.EmailSubmission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var submissions []services.EmailSubmission
	if err := yaml.Unmarshal(data, &submissions); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(submissions) == 0 {
		return nil, fmt.Errorf("%s contains no submissions", path)
	}
	return submissions, nil
}
