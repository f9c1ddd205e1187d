package rules

import (
	"categorizer-server/src/logging"
	"categorizer-server/src/metrics"
	"categorizer-server/src/models"
	"categorizer-server/src/store"
	"context"
	"log/slog"
)

// Repository is the single source of truth for rules. It reloads the whole
// collection for every read and rewrites it for every mutation. There is no
// locking: two writers racing load-mutate-save can lose an update.
type Repository struct {
	store   store.RuleStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRepository(s store.RuleStore, logger *slog.Logger, m *metrics.Metrics) *Repository {
	return &Repository{
		store:   s,
		logger:  logger.With(logging.FieldComponent, logging.ComponentStore),
		metrics: m,
	}
}

// Load never fails. Unreadable or malformed data is logged and served as an
// empty collection so evaluation keeps working.
func (r *Repository) Load(ctx context.Context) []models.Rule {
	rules, err := r.store.Load(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "rule store unreadable, treating as empty", logging.FieldError, err)
		r.metrics.ObserveStoreLoadError()
		return []models.Rule{}
	}
	if rules == nil {
		return []models.Rule{}
	}
	return rules
}

func (r *Repository) Save(ctx context.Context, rules []models.Rule) error {
	return r.store.Save(ctx, rules)
}

// Upsert replaces the rule with the same id in place, or appends it. Any
// further entries with that id are dropped so ids stay unique.
func (r *Repository) Upsert(ctx context.Context, rule models.Rule) (models.Rule, error) {
	existing := r.Load(ctx)

	updated := make([]models.Rule, 0, len(existing)+1)
	replaced := false
	for _, current := range existing {
		if current.ID != rule.ID {
			updated = append(updated, current)
			continue
		}
		if !replaced {
			updated = append(updated, rule)
			replaced = true
		}
	}
	if !replaced {
		updated = append(updated, rule)
	}

	err := r.store.Save(ctx, updated)
	r.metrics.ObserveMutation("upsert", err)
	if err != nil {
		return models.Rule{}, err
	}
	r.logger.InfoContext(ctx, "rule saved", logging.FieldRuleID, rule.ID, "replaced", replaced)
	return rule, nil
}

// Delete removes the rule with id. If no such rule exists the store is not
// written and ErrRuleNotFound is returned.
func (r *Repository) Delete(ctx context.Context, id string) error {
	existing := r.Load(ctx)

	remaining := make([]models.Rule, 0, len(existing))
	for _, current := range existing {
		if current.ID != id {
			remaining = append(remaining, current)
		}
	}
	if len(remaining) == len(existing) {
		return ErrRuleNotFound
	}

	err := r.store.Save(ctx, remaining)
	r.metrics.ObserveMutation("delete", err)
	if err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "rule deleted", logging.FieldRuleID, id)
	return nil
}
