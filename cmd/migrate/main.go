package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"PictureMarket/internal/config"
	"PictureMarket/internal/db"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	applied, err := run(ctx, pool, "migrations")
	if err != nil {
		log.Fatalf("migrate failed: %v", err)
	}
	log.Printf("migrations up to date (%d applied)", applied)
}

func run(ctx context.Context, pool *db.Pool, dir string) (int, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return 0, err
	}

	files, err := migrationFiles(dir)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, file := range files {
		done, err := apply(ctx, pool, file)
		if err != nil {
			return applied, err
		}
		if done {
			applied++
			log.Printf("applied %s", file)
		}
	}
	return applied, nil
}

// migrationFiles lists the .sql files directly under dir in lexical order;
// the numeric filename prefix is the ordering.
func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// apply runs one migration file and records it in schema_migrations inside
// the same transaction, so a half-applied file is never marked as done. The
// second return is false when the file was already applied.
func apply(ctx context.Context, pool *db.Pool, file string) (bool, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return false, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO schema_migrations (filename) VALUES ($1)
		ON CONFLICT (filename) DO NOTHING
	`, file)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if sqlText := strings.TrimSpace(string(data)); sqlText != "" {
		if _, err := tx.Exec(ctx, sqlText); err != nil {
			return false, err
		}
	}
	return true, tx.Commit(ctx)
}
