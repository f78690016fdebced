package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func MustOpen(ctx context.Context, dsn string) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect fail")
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping fail")
	}
	return pool
}

const schema = `
CREATE TABLE IF NOT EXISTS glossary_node (
	"nodeUri"   text PRIMARY KEY,
	"parentUri" text,
	"nodeType"  text NOT NULL CHECK ("nodeType" IN ('glossary', 'category', 'term')),
	label       text NOT NULL,
	path        text NOT NULL DEFAULT '',
	readme      text NOT NULL DEFAULT '',
	owner       text NOT NULL DEFAULT '',
	created     timestamptz NOT NULL DEFAULT now(),
	deleted     timestamptz
);
CREATE INDEX IF NOT EXISTS glossary_node_path_idx ON glossary_node (path) WHERE deleted IS NULL;
`

// EnsureSchema creates the tables this service reads when they are missing
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
