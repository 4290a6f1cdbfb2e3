// Package migrations holds the schema of the SQLite room store.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var fs embed.FS

// Run applies all pending migrations against db and returns how many ran.
func Run(ctx context.Context, db *sql.DB) (int, error) {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fs)
	if err != nil {
		return 0, fmt.Errorf("creating migration provider: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("running migrations: %w", err)
	}
	return len(results), nil
}
