// Package pg holds the PostgreSQL plumbing shared by database-backed storages:
// a retrying pgx pool constructor, goose migrations from embedded file systems,
// a ping health check and error classification helpers.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrationsFS, "migrations", cfg.MigrationsTable, slog.Default()); err != nil {
//	    return err
//	}
//
// Config is populated from the environment (PG_CONN_URL, PG_MAX_OPEN_CONNS, ...)
// with github.com/caarlos0/env.
package pg
