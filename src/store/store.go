// Package store persists the rule collection. Every backend loads and saves
// the collection as a whole and keeps insertion order.
package store

import (
	"categorizer-server/src/models"
	"context"
)

type RuleStore interface {
	// Load returns the stored rules in insertion order. A store that has
	// never been written returns an empty collection and no error.
	Load(ctx context.Context) ([]models.Rule, error)
	// Save overwrites the entire collection.
	Save(ctx context.Context, rules []models.Rule) error
}
