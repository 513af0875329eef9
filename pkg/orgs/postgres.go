// pkg/orgs/postgres.go
package orgs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgStore implements Store backed by PostgreSQL.
type pgStore struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

// NewPostgresStore constructs a PostgreSQL-backed organization store.
func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Store {
	return &pgStore{dbPool: dbPool, log: log}
}

// EnsureSchema creates required tables if they do not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS organizations (
  org_id uuid PRIMARY KEY,
  aud text NOT NULL UNIQUE,
  name text NOT NULL,
  hd text,
  notes text,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS organizations_aud_idx ON organizations(aud);
`)
	return err
}

const orgColumns = `org_id, aud, name, COALESCE(hd,''), COALESCE(notes,'')`

func scanOrg(row pgx.Row) (Organization, error) {
	var o Organization
	if err := row.Scan(&o.OrgID, &o.Aud, &o.Name, &o.HD, &o.Notes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, ErrNotFound
		}
		return Organization{}, err
	}
	return o, nil
}

func (p *pgStore) GetByID(ctx context.Context, orgID string) (Organization, error) {
	return scanOrg(p.dbPool.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE org_id=$1`, orgID))
}

func (p *pgStore) GetByAud(ctx context.Context, aud string) (Organization, error) {
	return scanOrg(p.dbPool.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE aud=$1`, aud))
}

func (p *pgStore) Create(ctx context.Context, aud, name, hd, notes string) (Organization, error) {
	org := Organization{OrgID: uuid.NewString(), Aud: aud, Name: name, HD: hd, Notes: notes}
	_, err := p.dbPool.Exec(ctx,
		`INSERT INTO organizations(org_id, aud, name, hd, notes) VALUES ($1,$2,$3,NULLIF($4,''),NULLIF($5,''))`,
		org.OrgID, org.Aud, org.Name, org.HD, org.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return Organization{}, ErrAudTaken
		}
		return Organization{}, err
	}
	return org, nil
}

func (p *pgStore) Update(ctx context.Context, orgID string, patch Patch) (Organization, error) {
	row := p.dbPool.QueryRow(ctx, `UPDATE organizations SET
  aud = COALESCE($2, aud),
  name = COALESCE($3, name),
  hd = COALESCE($4, hd),
  notes = COALESCE($5, notes),
  updated_at = NOW()
 WHERE org_id=$1
 RETURNING `+orgColumns,
		orgID, patch.Aud, patch.Name, patch.HD, patch.Notes)
	org, err := scanOrg(row)
	if err != nil && isUniqueViolation(err) {
		return Organization{}, ErrAudTaken
	}
	return org, err
}

func (p *pgStore) Delete(ctx context.Context, orgID string) error {
	tag, err := p.dbPool.Exec(ctx, `DELETE FROM organizations WHERE org_id=$1`, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgStore) List(ctx context.Context) ([]Organization, error) {
	rows, err := p.dbPool.Query(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Organization
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.OrgID, &o.Aud, &o.Name, &o.HD, &o.Notes); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
