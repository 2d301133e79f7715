package main

import (
	"context"
	"fmt"
	"log/slog"

	"shorty.local/internal/app/links"
	"shorty.local/internal/app/links/httpapi"
	"shorty.local/internal/app/links/repo"
	"shorty.local/internal/platform/config"
	"shorty.local/internal/platform/db"
	"shorty.local/internal/platform/migrate"
)

type storage struct {
	links links.Store
	users httpapi.UserStore
	close func()
}

// openStorage 按 DB_DRIVER 选择 Postgres 或 SQLite。
func openStorage(ctx context.Context, cfg config.Config) (*storage, error) {
	switch cfg.DBDriver {
	case "postgres", "postgresql", "pgx":
		pool, err := db.New(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if cfg.DBAutoMigrate {
			res, err := migrate.Up(ctx, pool, migrate.Options{Dir: cfg.MigrationsDir})
			if err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			slog.Info("migrations done", "dir", res.Dir, "applied", len(res.Applied), "skipped", len(res.Skipped))
		}
		return &storage{
			links: repo.NewPostgresLinks(pool),
			users: repo.NewPostgresUsers(pool),
			close: pool.Close,
		}, nil

	case "sqlite", "sqlite3":
		sqldb, err := db.OpenSQLite(cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		ls, err := repo.NewSQLiteLinks(ctx, sqldb)
		if err != nil {
			sqldb.Close()
			return nil, err
		}
		us, err := repo.NewSQLiteUsers(ctx, sqldb)
		if err != nil {
			sqldb.Close()
			return nil, err
		}
		return &storage{
			links: ls,
			users: us,
			close: func() { sqldb.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
}
