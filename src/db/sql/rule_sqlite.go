package db

import (
	"categorizer-server/src/models"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

func GetAllRulesSQLite(ctx context.Context, conn *sql.DB) ([]models.Rule, error) {
	rows, err := conn.QueryContext(ctx, `SELECT id, body FROM rules ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.Rule
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		r, err := decodeRule(id, []byte(body))
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func ReplaceAllRulesSQLite(ctx context.Context, conn *sql.DB, rules []models.Rule) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rules`); err != nil {
		return fmt.Errorf("failed to clear rules: %w", err)
	}

	for i, r := range rules {
		body, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode rule %s: %w", r.ID, err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO rules (position, id, body) VALUES (?, ?, ?)`, i, r.ID, string(body))
		if err != nil {
			return fmt.Errorf("failed to insert rule %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}
