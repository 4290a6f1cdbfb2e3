// Package database opens the libSQL file that backs the SQLite room store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/go-libsql"
)

// pragmas are applied once per Open.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}

// Open creates the parent directory if needed and opens path via libSQL.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// libSQL rejects Exec for PRAGMAs that return rows; query and drain instead.
	for _, p := range pragmas {
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %s: %w", p, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}
