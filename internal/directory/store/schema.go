package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the directory schema. Statements are idempotent so repeated
// runs against an existing database are safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	// Advisory lock prevents concurrent migration runs.
	if _, err := pool.Exec(ctx, "SELECT pg_advisory_lock(4821701)"); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer pool.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock(4821701)") //nolint:errcheck

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply directory schema: %w", err)
	}
	return nil
}
