// internal/resourceapi/postgres.go
package resourceapi

import (
	"context"
	"encoding/json"
	"errors"

	"incidentcmd/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgRecordStore keeps every resource type in one org-partitioned table.
type pgRecordStore struct {
	pool *pgxpool.Pool
	log  *zap.SugaredLogger
}

func NewPostgresStore(pool *pgxpool.Pool, log *zap.SugaredLogger) Store {
	return &pgRecordStore{pool: pool, log: log}
}

// EnsureSchema creates the records table. Safe to call repeatedly.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS records (
  org_id text NOT NULL,
  rtype text NOT NULL,
  id text NOT NULL,
  data jsonb NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT NOW(),
  PRIMARY KEY (org_id, rtype, id)
);
CREATE INDEX IF NOT EXISTS records_org_type_idx ON records(org_id, rtype);
`)
	return err
}

func (s *pgRecordStore) List(ctx context.Context, orgID, typ string) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM records WHERE org_id=$1 AND rtype=$2 ORDER BY updated_at`, orgID, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *pgRecordStore) Get(ctx context.Context, orgID, typ, id string) (Record, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM records WHERE org_id=$1 AND rtype=$2 AND id=$3`, orgID, typ, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *pgRecordStore) Put(ctx context.Context, orgID, typ, id string, data Record) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	tx, err := db.BeginTxWithOrg(ctx, s.pool, orgID)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, `INSERT INTO records(org_id, rtype, id, data)
 VALUES ($1,$2,$3,$4)
 ON CONFLICT (org_id, rtype, id) DO UPDATE SET data=EXCLUDED.data, updated_at=NOW()`,
		orgID, typ, id, raw)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *pgRecordStore) Delete(ctx context.Context, orgID, typ, id string) error {
	tx, err := db.BeginTxWithOrg(ctx, s.pool, orgID)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	tag, err := tx.Exec(ctx,
		`DELETE FROM records WHERE org_id=$1 AND rtype=$2 AND id=$3`, orgID, typ, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return tx.Commit(ctx)
}
