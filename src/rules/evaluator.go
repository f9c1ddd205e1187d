package rules

import (
	"categorizer-server/src/logging"
	"categorizer-server/src/metrics"
	"categorizer-server/src/models"
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Evaluator picks at most one rule for a transaction. The result depends
// only on the stored rules and the transaction.
type Evaluator struct {
	rules   *Repository
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewEvaluator(rules *Repository, logger *slog.Logger, m *metrics.Metrics) *Evaluator {
	return &Evaluator{
		rules:   rules,
		logger:  logger.With(logging.FieldComponent, logging.ComponentRules),
		metrics: m,
	}
}

// Ordered returns the enabled rules, highest priority first. Rules with the
// same priority keep their stored order.
func Ordered(rules []models.Rule) []models.Rule {
	enabled := make([]models.Rule, 0, len(rules))
	for _, r := range rules {
		if r.IsEnabled() {
			enabled = append(enabled, r)
		}
	}
	slices.SortStableFunc(enabled, func(a, b models.Rule) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return enabled
}

// Evaluate returns the first enabled rule, in priority order, whose condition
// holds for txn. Rules that cannot be evaluated are skipped.
func (e *Evaluator) Evaluate(ctx context.Context, txn models.Transaction) models.EvaluationResult {
	for _, rule := range Ordered(e.rules.Load(ctx)) {
		matched, err := e.match(rule, txn)
		if err != nil {
			e.recordSkip(ctx, err)
			continue
		}
		if matched {
			e.metrics.ObserveEvaluation(true)
			return models.Matched(rule)
		}
	}
	e.metrics.ObserveEvaluation(false)
	return models.NoMatch()
}

func (e *Evaluator) match(rule models.Rule, txn models.Transaction) (matched bool, err error) {
	skip := func(reason string, cause error) *SkipError {
		return &SkipError{RuleID: rule.ID, Field: rule.Condition.Field, Reason: reason, Err: cause}
	}

	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = skip(SkipPanic, fmt.Errorf("%v", r))
		}
	}()

	value, ok := txn.Field(rule.Condition.Field)
	if !ok {
		return false, skip(SkipMissingField, nil)
	}
	if rule.Condition.Value == nil {
		return false, skip(SkipMissingValue, nil)
	}

	op, ok := operators[rule.Condition.Op]
	if !ok {
		return false, skip(SkipUnsupportedOperator, fmt.Errorf("op %q", rule.Condition.Op))
	}

	matched, err = op(value, rule.Condition.Value)
	if err != nil {
		reason := SkipOperatorError
		if errors.Is(err, errNotNumeric) {
			reason = SkipNotNumeric
		}
		return false, skip(reason, err)
	}
	return matched, nil
}

func (e *Evaluator) recordSkip(ctx context.Context, err error) {
	var skipErr *SkipError
	if !errors.As(err, &skipErr) {
		return
	}
	e.metrics.ObserveSkip(skipErr.Reason)

	level := slog.LevelWarn
	if skipErr.Reason == SkipMissingField {
		// Routine: most rules name fields a given transaction lacks.
		level = slog.LevelDebug
	}
	e.logger.Log(ctx, level, "rule skipped",
		logging.FieldRuleID, skipErr.RuleID,
		logging.FieldReason, skipErr.Reason,
		logging.FieldError, err,
	)
}
