package rules

import (
	"categorizer-server/src/logging"
	"categorizer-server/src/metrics"
	"categorizer-server/src/models"
	"context"
	"errors"
	"testing"
)

// memoryStore is a RuleStore that keeps a copy of the last saved collection.
type memoryStore struct {
	rules   []models.Rule
	loadErr error
	saveErr error
	saves   int
}

func (m *memoryStore) Load(ctx context.Context) ([]models.Rule, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]models.Rule(nil), m.rules...), nil
}

func (m *memoryStore) Save(ctx context.Context, rules []models.Rule) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.rules = append([]models.Rule(nil), rules...)
	return nil
}

var errBroken = errors.New("broken store")

func newTestEvaluator(t *testing.T, rules ...models.Rule) (*Evaluator, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	repo := NewRepository(&memoryStore{rules: rules}, logging.Discard(), m)
	return NewEvaluator(repo, logging.Discard(), m), m
}

func rule(id string, priority int, field string, op models.Op, value interface{}, action models.Action) models.Rule {
	return models.Rule{
		ID:        id,
		Priority:  priority,
		Condition: models.Condition{Field: field, Op: op, Value: value},
		Action:    action,
	}
}

func ruleID(res models.EvaluationResult) string {
	if res.RuleID == nil {
		return ""
	}
	return *res.RuleID
}
