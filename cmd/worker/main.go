package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	pgRepo "neutralnews/internal/infra/adapter/persistence/postgres"
	"neutralnews/internal/infra/db"
	"neutralnews/internal/infra/enrich"
	"neutralnews/internal/infra/feed"
	"neutralnews/internal/infra/llm"
	workerPkg "neutralnews/internal/infra/worker"
	"neutralnews/internal/observability/logging"
	obsmetrics "neutralnews/internal/observability/metrics"
	"neutralnews/internal/observability/tracing"
	"neutralnews/internal/ratelimiter"
	"neutralnews/internal/repository"
	"neutralnews/internal/robots"
	"neutralnews/internal/usecase/embedding"
	"neutralnews/internal/usecase/ingest"
	"neutralnews/internal/usecase/neutralize"
	"neutralnews/internal/usecase/retention"
)

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("health_port", workerConfig.HealthPort))

	retentionConfig, err := retention.LoadConfigFromEnv()
	if err != nil {
		logger.Error("failed to load retention configuration", slog.Any("error", err))
		os.Exit(1)
	}

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	ingestSvc := setupIngestService(logger, database)

	startCronWorker(logger, ingestSvc, database, retentionConfig, workerConfig, workerMetrics, healthServer)
}

func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and applies the C4 schema.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to apply schema migrations", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupIngestService wires C1 (robots gate), C2 (feed fetcher), C3
// (enricher), C5 (embedding provider) and C7 (neutralizer) against the C4
// store gateway, matching the teacher's setupFetchService shape.
func setupIngestService(logger *slog.Logger, database *sql.DB) *ingest.Service {
	store := pgRepo.NewArticleRepo(database)

	httpClient := createHTTPClient()
	gate := robots.New(httpClient, "NeutralNewsBot/1.0")

	fetcher := feed.NewFetcher(httpClient, gate)

	enrichConfig, err := enrich.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("failed to load enrich configuration, using defaults", slog.Any("error", err))
		enrichConfig = enrich.DefaultConfig()
	}
	enricher := enrich.NewEnricher(enrichConfig, gate)

	embeddingProvider, err := embedding.NewProviderFromEnv()
	if err != nil {
		logger.Warn("embedding provider disabled", slog.Any("error", err))
		embeddingProvider = nil
	}

	neutralizer := setupNeutralizer(logger, store)

	return ingest.New(store, fetcher, enricher, embeddingProvider, neutralizer)
}

// setupNeutralizer wires the LLM provider and the process-wide rate
// limiter (§4.7, §5) behind the neutralize use case.
func setupNeutralizer(logger *slog.Logger, store repository.ArticleStore) *neutralize.Neutralizer {
	provider, err := llm.NewProviderFromEnv()
	if err != nil {
		logger.Warn("neutralizer disabled, no LLM provider configured", slog.Any("error", err))
		return nil
	}
	limiter := ratelimiter.New(neutralize.CallsPerMinute)
	return neutralize.New(store, provider, limiter)
}

// createHTTPClient creates an HTTP client with timeouts and connection
// pooling. TLS 1.2+ is enforced for security.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// startCronWorker schedules the two §6.1 jobs (hourly ingest-and-
// neutralize, daily retention-sweep) on a shared cron instance, guarded by
// an in-process mutex so overlapping fires of either job never run
// concurrently against the same store.
func startCronWorker(
	logger *slog.Logger,
	ingestSvc *ingest.Service,
	database *sql.DB,
	retentionConfig retention.Config,
	cfg *workerPkg.WorkerConfig,
	metrics *workerPkg.WorkerMetrics,
	healthServer *workerPkg.HealthServer,
) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	var runMu sync.Mutex

	ingestSchedule := cfg.CronSchedule
	if ingestSchedule == "" {
		ingestSchedule = "0 * * * *"
	}
	if _, err := c.AddFunc(ingestSchedule, func() {
		runMu.Lock()
		defer runMu.Unlock()
		runIngestJob(logger, ingestSvc, cfg, metrics)
	}); err != nil {
		logger.Error("failed to add ingest-and-neutralize cron job", slog.Any("error", err))
		os.Exit(1)
	}

	if _, err := c.AddFunc("0 3 * * *", func() {
		runMu.Lock()
		defer runMu.Unlock()
		runRetentionJob(logger, database, retentionConfig)
	}); err != nil {
		logger.Error("failed to add retention-sweep cron job", slog.Any("error", err))
		os.Exit(1)
	}

	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker marked as ready")

	logger.Info("worker started",
		slog.String("ingest_schedule", ingestSchedule),
		slog.String("retention_schedule", "0 3 * * *"),
		slog.String("timezone", cfg.Timezone))
	select {}
}

// runIngestJob executes one ingest-and-neutralize pass with timeout and
// error handling, mirroring the teacher's runCrawlJob.
func runIngestJob(logger *slog.Logger, svc *ingest.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	startTime := time.Now()
	metrics.RecordJobRun("started")

	runID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.CrawlTimeout)
	defer cancel()
	ctx = logging.ContextWithRunID(ctx, runID)
	logger = logging.WithRunID(ctx, logger)

	ctx, span := tracing.GetTracer().Start(ctx, "ingest.run")
	defer span.End()

	logger.Info("ingest started")

	stats, err := svc.Run(ctx)
	if err != nil {
		logger.Error("ingest failed", slog.Any("error", err))
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(startTime).Seconds())
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(time.Since(startTime).Seconds())
	metrics.RecordFeedsProcessed(stats.Outlets)
	metrics.RecordLastSuccess()

	obsmetrics.UpdateSourcesTotal(stats.Outlets)
	obsmetrics.RecordOperationDuration("ingest_run", stats.Duration)

	logger.Info("ingest completed",
		slog.Int("outlets", stats.Outlets),
		slog.Int("feed_items", stats.FeedItems),
		slog.Int("enriched", stats.Enriched),
		slog.Int("inserted", stats.Inserted),
		slog.Int("embedded", stats.Embedded),
		slog.Int("groups_touched", stats.GroupsTouched),
		slog.Int("neutralized", stats.Neutralized),
		slog.Duration("duration", stats.Duration),
	)
}

// runRetentionJob executes a single C8 retention sweep.
func runRetentionJob(logger *slog.Logger, database *sql.DB, cfg retention.Config) {
	startTime := time.Now()
	logger.Info("retention sweep started")

	store := pgRepo.NewArticleRepo(database)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := retention.Sweep(ctx, store, cfg)
	if err != nil {
		logger.Error("retention sweep failed", slog.Any("error", err))
		return
	}

	obsmetrics.RecordOperationDuration("retention_sweep", result.Duration)

	logger.Info("retention sweep completed",
		slog.Int("protected_articles", result.ProtectedArticles),
		slog.Int("deleted_articles", result.DeletedArticles),
		slog.Int("deleted_groups", result.DeletedGroups),
		slog.Duration("duration", time.Since(startTime)),
	)
}
