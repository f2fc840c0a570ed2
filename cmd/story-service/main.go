// cmd/story-service/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"admission-stories/internal/api"
	awsclient "admission-stories/internal/common/aws"
	"admission-stories/internal/common/camunda"
	"admission-stories/internal/common/config"
	"admission-stories/internal/common/database"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/common/observability"
	"admission-stories/internal/stories"

	nm "admission-stories/internal/workers/communication/notify-moderation"
	ms "admission-stories/internal/workers/moderation/moderate-story"
	is "admission-stories/internal/workers/search/index-story"
	sss "admission-stories/internal/workers/search/search-similar-stories"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting story service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name,
		observability.WithJaegerEndpoint(cfg.Tracing.JaegerEndpoint))
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	rdb := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Elasticsearch (optional) ---
	var index *stories.Index
	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch client init failed", zap.Error(err))
	}
	if esClient != nil {
		err = retryWithBackoff(func() error {
			if err := esClient.Ping(ctx); err != nil {
				return err
			}
			return stories.NewIndex(esClient.Client, cfg.Search.IndexName, log).EnsureIndex(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		index = stories.NewIndex(esClient.Client, cfg.Search.IndexName, log)
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", cfg.Search.IndexName))
	} else {
		zapLog.Info("Elasticsearch not configured, keyword search disabled")
	}

	// --- Domain services ---
	repo := stories.NewRepository(pg.DB)
	cache := stories.NewCandidateCache(rdb.Client, cfg.Search.CacheTTLDuration(), log)
	search := stories.NewSearchService(repo, cache, obs, cfg.Search.MaxResults, log)
	moderator := stories.NewModerator(repo, cache, log)

	// --- Zeebe workers (optional) ---
	var workers *camunda.Workers
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(ctx, camunda.ClientConfigFrom(cfg.Camunda))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		workers = camunda.NewWorkers(zeebe.GetClient(), log, obs)
		registerWorkers(ctx, cfg, workers, workerDeps{
			search:    search,
			moderator: moderator,
			repo:      repo,
			index:     index,
		}, log, zapLog)
		zapLog.Info("Workers registered", zap.Int("count", workers.Count()))
	} else {
		zapLog.Info("Zeebe broker not configured, job workers disabled")
	}

	// --- HTTP API ---
	deps := api.Dependencies{
		Search:  search,
		Stories: repo,
		Checks: map[string]api.Pinger{
			"postgres": pg,
			"redis":    rdb,
		},
		Logger: log,
	}
	if index != nil {
		deps.Index = index
		deps.Checks["elasticsearch"] = esClient
	}
	server := api.NewServer(deps, config.GetDuration(cfg.Server.RequestTimeout))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(
			cfg.Server.Addr(),
			config.GetDuration(cfg.Server.ReadTimeout),
			config.GetDuration(cfg.Server.WriteTimeout),
		)
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	if workers != nil {
		workers.Close()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Story service stopped")
}

type workerDeps struct {
	search    *stories.SearchService
	moderator *stories.Moderator
	repo      *stories.Repository
	index     *stories.Index
}

func registerWorkers(ctx context.Context, cfg *config.Config, workers *camunda.Workers, d workerDeps, log logger.Logger, zapLog *zap.Logger) {
	workers.Register(sss.TaskType, config.GetWorkerConfig(cfg, sss.TaskType),
		sss.NewHandler(sss.LoadConfig(cfg), d.search, log))

	workers.Register(ms.TaskType, config.GetWorkerConfig(cfg, ms.TaskType),
		ms.NewHandler(ms.LoadConfig(cfg), d.moderator, log))

	// A typed nil *Index would defeat the handler's disabled check.
	var indexer is.Indexer
	if d.index != nil {
		indexer = d.index
	}
	workers.Register(is.TaskType, config.GetWorkerConfig(cfg, is.TaskType),
		is.NewHandler(is.LoadConfig(cfg), d.repo, indexer, log))

	notifyCfg := nm.LoadConfig(cfg)
	if err := notifyCfg.Validate(); err != nil {
		zapLog.Fatal("invalid notification config", zap.Error(err))
	}
	notifyDeps := nm.Dependencies{Contacts: d.repo, Logger: log}
	if notifyCfg.EmailEnabled || notifyCfg.SNSEnabled {
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config load failed", zap.Error(err))
		}
		if notifyCfg.EmailEnabled {
			notifyDeps.Email = awsclient.NewSESClient(awsCfg)
		}
		if notifyCfg.SNSEnabled {
			notifyDeps.Topic = awsclient.NewSNSClient(awsCfg)
		}
	}
	workers.Register(nm.TaskType, config.GetWorkerConfig(cfg, nm.TaskType),
		nm.NewHandler(notifyCfg, notifyDeps))
}
