// Package pg connects to PostgreSQL through a pgx/v5 pool and applies goose
// migrations.
//
//	pool, err := pg.Connect(ctx, cfg, pg.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, db.Migrations, "migrations", cfg.MigrationsTable, log); err != nil {
//		return err
//	}
//
// Connect retries with a linearly growing delay and gives up early when ctx
// ends. Healthcheck adapts the pool to a readiness probe.
//
// IsDuplicateKeyError, IsForeignKeyViolationError, IsNotFoundError and
// IsSerializationError classify errors returned by pgx.
package pg
