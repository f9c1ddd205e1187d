package store

import (
	dbsql "categorizer-server/src/db/sql"
	"categorizer-server/src/models"
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores rules in the rules table of an already migrated database
// (see db.Connect).
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Load(ctx context.Context) ([]models.Rule, error) {
	return dbsql.GetAllRules(ctx, p.pool)
}

func (p *Postgres) Save(ctx context.Context, rules []models.Rule) error {
	return dbsql.ReplaceAllRules(ctx, p.pool, rules)
}
