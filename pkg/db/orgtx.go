// pkg/db/orgtx.go
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BeginTxWithOrg starts a transaction and sets app.org_id for RLS.
// Call tx.Rollback(ctx) on error paths; Commit on success.
func BeginTxWithOrg(ctx context.Context, pool *pgxpool.Pool, orgID string) (pgx.Tx, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('app.org_id', $1, true)", orgID); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	return tx, nil
}
