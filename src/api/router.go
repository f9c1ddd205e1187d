package api

import (
	"categorizer-server/src/categorize"
	"categorizer-server/src/classifier"
	"categorizer-server/src/handlers"
	"categorizer-server/src/logging"
	"categorizer-server/src/metrics"
	"categorizer-server/src/middleware"
	"categorizer-server/src/plaid"
	"categorizer-server/src/rules"
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Dependencies struct {
	Rules        *rules.Repository
	Evaluator    *rules.Evaluator
	Orchestrator *categorize.Orchestrator
	Classifier   classifier.Service
	SampleData   []classifier.Record
	Cache        handlers.CacheClearer
	Metrics      *metrics.Metrics
	Logger       *slog.Logger

	// Plaid routes are mounted only when Source is set. Webhooks also need
	// Verifier; Feed is optional.
	PlaidSource   plaid.TransactionSource
	PlaidVerifier *plaid.Verifier
	PlaidFeed     handlers.Puller

	AllowedOrigins []string
	ReadOnly       bool
}

func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(logging.Middleware(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware(deps.AllowedOrigins))
	r.Use(middleware.ReadOnlyMiddleware(deps.ReadOnly))

	r.Handle("/metrics", deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health())

		// Rules
		r.Get("/rules", handlers.ListRules(deps.Rules))
		r.Post("/rules", handlers.SaveRule(deps.Rules))
		r.Post("/rules/evaluate", handlers.EvaluateRule(deps.Evaluator))
		r.Delete("/rules/{rule_id}", handlers.DeleteRule(deps.Rules))

		// Categorization
		r.Post("/categorize", handlers.Categorize(deps.Orchestrator))
		r.Get("/analytics", handlers.Analytics(deps.SampleData, deps.Classifier))

		// Plaid
		if deps.PlaidSource != nil {
			r.Post("/plaid/categorize", handlers.PlaidCategorize(deps.PlaidSource, deps.Orchestrator))
			if deps.PlaidVerifier != nil {
				r.Post("/plaid/webhook", handlers.PlaidWebhook(deps.PlaidVerifier, deps.PlaidFeed))
			}
		}

		// Admin
		r.Post("/admin/cache/clear", handlers.ClearCache(deps.Cache))
	})

	return r
}
