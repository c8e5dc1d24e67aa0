package db

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version     text PRIMARY KEY,
		applied_at  timestamptz NOT NULL DEFAULT now()
	)`

// Migrate applies every *.sql file in fsys that schema_migrations has
// not recorded yet, in file name order, each in its own transaction.
func (db *DB) Migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := db.pool.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := db.pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("scan applied migrations: %w", err)
	}

	todo, err := pendingMigrations(fsys, applied)
	if err != nil {
		return err
	}
	for _, name := range todo {
		if err := db.apply(ctx, fsys, name); err != nil {
			return err
		}
		db.logger.Info("migration applied", zap.String("version", name))
	}
	return nil
}

func (db *DB) apply(ctx context.Context, fsys fs.FS, name string) error {
	script, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer tx.Rollback(ctx)

	// No arguments, so pgx sends the whole file as one simple query.
	if _, err := tx.Exec(ctx, string(script)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

// pendingMigrations lists the .sql files at the root of fsys that are
// not in applied, sorted by name.
func pendingMigrations(fsys fs.FS, applied []string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	var todo []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".sql" || strings.HasPrefix(name, ".") {
			continue
		}
		if slices.Contains(applied, name) {
			continue
		}
		todo = append(todo, name)
	}
	slices.Sort(todo)
	return todo, nil
}
