package main

import (
	"categorizer-server/src/api"
	"categorizer-server/src/categorize"
	"categorizer-server/src/classifier"
	"categorizer-server/src/config"
	"categorizer-server/src/db"
	"categorizer-server/src/events"
	"categorizer-server/src/logging"
	"categorizer-server/src/metrics"
	"categorizer-server/src/plaid"
	"categorizer-server/src/rules"
	"categorizer-server/src/store"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg := config.Load()

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stdout,
	}).With(logging.FieldComponent, logging.ComponentApp)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", logging.FieldError, err)
		os.Exit(1)
	}
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	// Rule store
	ruleStore, closeStore, err := openRuleStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open rule store", "backend", cfg.RuleStore, logging.FieldError, err)
		os.Exit(1)
	}
	defer closeStore()
	logger.Info("Rule store ready", "backend", cfg.RuleStore)

	repo := rules.NewRepository(ruleStore, logger, m)
	evaluator := rules.NewEvaluator(repo, logger, m)

	// Classifier
	records, err := classifier.LoadDataset(cfg.SampleDataPath)
	if err != nil {
		logger.Error("Failed to load sample data", "path", cfg.SampleDataPath, logging.FieldError, err)
		os.Exit(1)
	}
	cache, err := db.NewPredictionCache(int64(cfg.PredictionCacheSize))
	if err != nil {
		logger.Error("Failed to create prediction cache", logging.FieldError, err)
		os.Exit(1)
	}
	defer cache.Close()
	svc := classifier.NewCached(newClassifier(cfg, records, logger), cache)

	// Events
	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", logging.FieldError, err)
			os.Exit(1)
		}
		publisher = amqpPublisher
		logger.Info("Publishing categorization events", "exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)
	}
	defer publisher.Close()

	orchestrator := categorize.New(evaluator, svc, publisher, logger, m)

	deps := api.Dependencies{
		Rules:          repo,
		Evaluator:      evaluator,
		Orchestrator:   orchestrator,
		Classifier:     svc,
		SampleData:     records,
		Cache:          svc,
		Metrics:        m,
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		ReadOnly:       cfg.ReadOnly,
	}

	// Plaid
	if cfg.PlaidEnabled() {
		client, err := plaid.NewPlaidClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv)
		if err != nil {
			logger.Error("Failed to create Plaid client", logging.FieldError, err)
			os.Exit(1)
		}
		plaidAPI := plaid.NewAPI(client)
		deps.PlaidSource = plaidAPI
		deps.PlaidVerifier = plaid.NewVerifier(plaidAPI)
		if cfg.PlaidAccessToken != "" {
			deps.PlaidFeed = plaid.NewFeed(plaidAPI, orchestrator, cfg.PlaidAccessToken, logger)
		}
		logger.Info("Plaid integration enabled", "env", cfg.PlaidEnv, "webhook_sync", cfg.PlaidAccessToken != "")
	}

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        api.NewRouter(deps),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", logging.FieldError, err)
		}
		cancel()
	}()

	logger.Info("API server running", "port", cfg.Port, "ml", svc.Available(), "read_only", cfg.ReadOnly)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", logging.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

func openRuleStore(ctx context.Context, cfg config.Config) (store.RuleStore, func(), error) {
	switch cfg.RuleStore {
	case config.RuleStoreSQLite:
		s, err := store.OpenSQLite(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.RuleStorePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgres(pool), pool.Close, nil
	default:
		return store.NewFile(cfg.RulesPath), func() {}, nil
	}
}

// newClassifier trains the local models, or returns the degraded-mode
// service when ML is disabled or training fails.
func newClassifier(cfg config.Config, records []classifier.Record, logger *slog.Logger) classifier.Service {
	if cfg.SkipML {
		logger.Warn("SKIP_ML set, categorization will use rules and fallback only")
		return classifier.Unavailable()
	}
	local, err := classifier.NewLocal(records, cfg.AnomalyContamination)
	if err != nil {
		logger.Error("Failed to train classifier, continuing without it", logging.FieldError, err)
		return classifier.Unavailable()
	}
	logger.Info("Classifier trained", "records", len(records), "categories", len(local.Classes()),
		"contamination", cfg.AnomalyContamination)
	return local
}
