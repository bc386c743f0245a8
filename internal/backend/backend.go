// Package backend opens the configured primary attendance store.
package backend

import (
	"context"
	"log/slog"

	"attendancetracker/internal/attendance"
	"attendancetracker/internal/config"
	"attendancetracker/internal/store"
)

// Open connects the primary backend named by cfg.PrimaryBackend. An unreachable backend is
// not fatal: callers get a store that fails every call until the server comes back, or
// attendance.Unavailable when nothing could be opened. A schema that could not be created
// here is created by the repository on its first successful call. The returned func
// releases it.
func Open(ctx context.Context, cfg config.App, log *slog.Logger) (attendance.Store, func()) {
	noop := func() {}
	switch cfg.PrimaryBackend {
	case "memory":
		log.Warn("no primary store configured, records are kept in memory only")
		return attendance.Unavailable{}, noop

	case "mongo":
		m, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Warn("mongo not reachable", "error", err.Error())
		}
		if m == nil {
			return attendance.Unavailable{}, noop
		}
		repo := attendance.NewMongoRepository(m.Database)
		if err == nil {
			if err := repo.Migrate(ctx); err != nil {
				log.Warn("mongo index creation deferred", "error", err.Error())
			}
		}
		return repo, func() { _ = m.Close(context.Background()) }

	case "sqlite":
		db, err := store.NewSQLite(cfg.SQLitePath)
		if err != nil {
			log.Warn("sqlite not available", "error", err.Error())
			return attendance.Unavailable{}, noop
		}
		repo := attendance.NewRepository(db.Client, attendance.SQLite)
		if err := repo.Migrate(ctx); err != nil {
			log.Warn("sqlite migration deferred", "error", err.Error())
		}
		return repo, func() { _ = db.Close() }

	default:
		db, err := store.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Warn("db not reachable", "error", err.Error())
		}
		if db == nil {
			return attendance.Unavailable{}, noop
		}
		repo := attendance.NewRepository(db.Client, attendance.Postgres)
		if err == nil {
			if err := repo.Migrate(ctx); err != nil {
				log.Warn("postgres migration deferred", "error", err.Error())
			}
		}
		return repo, func() { _ = db.Close() }
	}
}

