package db

import (
	"categorizer-server/src/models"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GetAllRules returns the stored rule collection in insertion order.
func GetAllRules(ctx context.Context, pool *pgxpool.Pool) ([]models.Rule, error) {
	query := `
		SELECT id, body
		FROM rules
		ORDER BY position
	`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.Rule
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		r, err := decodeRule(id, body)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// ReplaceAllRules swaps the whole collection for rules in one transaction.
func ReplaceAllRules(ctx context.Context, pool *pgxpool.Pool, rules []models.Rule) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM rules`); err != nil {
		return fmt.Errorf("failed to clear rules: %w", err)
	}

	query := `
		INSERT INTO rules (position, id, body, updated_at)
		VALUES ($1, $2, $3, NOW())
	`
	for i, r := range rules {
		body, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode rule %s: %w", r.ID, err)
		}
		if _, err := tx.Exec(ctx, query, i, r.ID, string(body)); err != nil {
			return fmt.Errorf("failed to insert rule %s: %w", r.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func decodeRule(id string, body []byte) (models.Rule, error) {
	var r models.Rule
	if err := json.Unmarshal(body, &r); err != nil {
		return models.Rule{}, fmt.Errorf("failed to decode rule %s: %w", id, err)
	}
	return r, nil
}
