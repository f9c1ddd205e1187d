package store

import (
	"categorizer-server/src/db"
	dbsql "categorizer-server/src/db/sql"
	"categorizer-server/src/models"
	"context"
	"database/sql"
)

type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens the database at path, applying migrations first.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := db.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return &SQLite{conn: conn}, nil
}

func (s *SQLite) Load(ctx context.Context) ([]models.Rule, error) {
	return dbsql.GetAllRulesSQLite(ctx, s.conn)
}

func (s *SQLite) Save(ctx context.Context, rules []models.Rule) error {
	return dbsql.ReplaceAllRulesSQLite(ctx, s.conn, rules)
}

func (s *SQLite) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
