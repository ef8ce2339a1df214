// Package db provides PostgreSQL-backed document storage, with each document
// kept as a jsonb row keyed by its id.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/training-dashboard/internal/types"
)

// Tables names the tables holding each collection.
type Tables struct {
	Courses      string
	Participants string
	Dashboard    string
}

// DefaultTables returns the standard collection tables.
func DefaultTables() Tables {
	return Tables{
		Courses:      types.CollectionCourses,
		Participants: types.CollectionParticipants,
		Dashboard:    types.CollectionDashboard,
	}
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool   *pgxpool.Pool
	tables Tables
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string, tables Tables) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool, tables: tables}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// EnsureSchema creates the collection tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, doc JSONB NOT NULL DEFAULT '{}'::jsonb)`,
			ident(db.tables.Courses)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, doc JSONB NOT NULL DEFAULT '{}'::jsonb)`,
			ident(db.tables.Participants)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, doc JSONB NOT NULL, last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW())`,
			ident(db.tables.Dashboard)),
	}
	for _, stmt := range stmts {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
