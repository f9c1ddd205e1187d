// Package categorize combines user rules with the statistical classifier.
// A rule that sets a category always wins; otherwise the classifier decides,
// and when it cannot, a fixed fallback category is returned.
package categorize

import (
	"categorizer-server/src/classifier"
	"categorizer-server/src/events"
	"categorizer-server/src/logging"
	"categorizer-server/src/metrics"
	"categorizer-server/src/models"
	"categorizer-server/src/rules"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

const (
	CategoryUnknown = "Unknown"
	CategoryOther   = "Other"
)

type Orchestrator struct {
	evaluator  *rules.Evaluator
	classifier classifier.Service
	publisher  events.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func New(evaluator *rules.Evaluator, svc classifier.Service, publisher events.Publisher, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Orchestrator{
		evaluator:  evaluator,
		classifier: svc,
		publisher:  publisher,
		logger:     logger.With(logging.FieldComponent, logging.ComponentCategorize),
		metrics:    m,
	}
}

// Categorize never fails. Rule and classifier problems degrade to the
// fallback result.
func (o *Orchestrator) Categorize(ctx context.Context, txn models.Transaction) models.CategorizationResult {
	result := o.categorize(ctx, txn)

	o.metrics.ObserveCategorization(string(result.Provenance))
	err := o.publisher.Publish(ctx, events.NewCategorizationEvent(txn, result))
	o.metrics.ObservePublish(err)
	if err != nil {
		o.logger.WarnContext(ctx, "failed to publish categorization event", logging.FieldError, err)
	}
	return result
}

func (o *Orchestrator) categorize(ctx context.Context, txn models.Transaction) models.CategorizationResult {
	evaluation := o.evaluator.Evaluate(ctx, txn)

	var ruleID string
	var flags []string
	if evaluation.IsMatch() {
		ruleID = *evaluation.RuleID
		action := *evaluation.Action
		switch {
		case action.Terminal() && strings.TrimSpace(action.Category()) != "":
			return models.CategorizationResult{
				Category:   action.Category(),
				Confidence: 1.0,
				IsAnomaly:  false,
				Provenance: models.ProvenanceRule,
				RuleID:     ruleID,
			}
		case action.Terminal():
			// A set_category rule without a usable category falls through to the classifier.
			o.logger.WarnContext(ctx, "set_category rule has no category, ignoring its action",
				logging.FieldRuleID, ruleID)
		default:
			if flag := flagName(action); flag != "" {
				flags = []string{flag}
			}
		}
	}

	result, err := o.classify(ctx, txn)
	if err != nil {
		o.logger.WarnContext(ctx, "classifier unavailable, using fallback category", logging.FieldError, err)
		result = Fallback(txn)
	}
	result.RuleID = ruleID
	result.Flags = flags
	return result
}

func (o *Orchestrator) classify(ctx context.Context, txn models.Transaction) (models.CategorizationResult, error) {
	if o.classifier == nil || !o.classifier.Available() {
		return models.CategorizationResult{}, classifier.ErrUnavailable
	}

	prediction, err := o.classifier.Predict(ctx, txn.Description())
	if err != nil {
		return models.CategorizationResult{}, fmt.Errorf("predict category: %w", err)
	}
	anomaly, err := o.classifier.IsAnomaly(ctx, amountOf(txn))
	if err != nil {
		return models.CategorizationResult{}, fmt.Errorf("detect anomaly: %w", err)
	}

	return models.CategorizationResult{
		Category:   prediction.Category,
		Confidence: RoundConfidence(prediction.Confidence),
		IsAnomaly:  anomaly,
		Provenance: models.ProvenanceML,
	}, nil
}

// Fallback is the result used when the classifier cannot answer: "Unknown"
// for a blank description, "Other" otherwise.
func Fallback(txn models.Transaction) models.CategorizationResult {
	category := CategoryOther
	if strings.TrimSpace(txn.Description()) == "" {
		category = CategoryUnknown
	}
	return models.CategorizationResult{
		Category:   category,
		Confidence: 0,
		IsAnomaly:  false,
		Provenance: models.ProvenanceFallback,
	}
}

// RoundConfidence clamps c to [0, 1] and rounds it to three decimals.
func RoundConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return 0
	}
	c = math.Max(0, math.Min(1, c))
	return math.Round(c*1000) / 1000
}

func flagName(action models.Action) string {
	if action.Type == models.ActionFlag {
		if name := action.FlagName(); name != "" {
			return name
		}
	}
	return string(action.Type)
}

// amountOf returns the transaction amount, or 0 when it is absent or not a
// number.
func amountOf(txn models.Transaction) float64 {
	v, ok := txn.Field(models.FieldAmount)
	if !ok {
		return 0
	}
	d, err := models.ParseNumber(v)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
