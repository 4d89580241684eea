package service

import (
	"context"
	"fmt"

	"cryptosim/pkg/db"
	"cryptosim/pkg/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sim_buckets (
	profile    TEXT        NOT NULL,
	bucket     TEXT        NOT NULL,
	payload    JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (profile, bucket)
)`

const upsertSQL = `
INSERT INTO sim_buckets (profile, bucket, payload, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (profile, bucket) DO UPDATE
SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

const selectSQL = `SELECT payload FROM sim_buckets WHERE profile = $1 AND bucket = $2`

// Postgres бакеты в таблице sim_buckets, ключ (profile, bucket).
type Postgres struct {
	db      *db.PgTxManager
	profile string
}

func NewPostgres(m *db.PgTxManager, profile string) *Postgres {
	return &Postgres{db: m, profile: profile}
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Conn().Exec(ctx, schemaSQL)
	if err != nil {
		return errors.Wrap(err, "pg.EnsureSchema")
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, bucket string) (payload []byte, err error) {
	span, ctx := tracing.Start(ctx, "storage.Load")
	defer func() { tracing.Finish(span, err) }()
	defer func() {
		if err != nil && !errors.Is(err, ErrNotFound) {
			err = fmt.Errorf("pg.Load %s: %w", bucket, err)
		}
	}()

	err = p.db.Conn().QueryRow(ctx, selectSQL, p.profile, bucket).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *Postgres) Save(ctx context.Context, bucket string, payload []byte) (err error) {
	span, ctx := tracing.Start(ctx, "storage.Save")
	defer func() { tracing.Finish(span, err) }()
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Save %s: %w", bucket, err)
		}
	}()

	if err = validBucket(bucket); err != nil {
		return err
	}
	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, upsertSQL, p.profile, bucket, string(payload))
		return err
	})
}
