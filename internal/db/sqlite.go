package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQLite driver names
const (
	SQLiteDriverCGO    = "sqlite3" // github.com/mattn/go-sqlite3
	SQLiteDriverPureGo = "sqlite"  // modernc.org/sqlite
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db   *sql.DB
	path string
}

// NewSQLiteClient creates a new SQLite client using the cgo driver
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	return NewSQLiteClientWithDriver(ctx, SQLiteDriverCGO, path)
}

// NewSQLiteClientWithDriver creates a new SQLite client using the named driver
func NewSQLiteClientWithDriver(ctx context.Context, driver, path string) (*SQLiteClient, error) {
	if driver != SQLiteDriverCGO && driver != SQLiteDriverPureGo {
		return nil, fmt.Errorf("unknown SQLite driver: %s", driver)
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// PRAGMA foreign_keys is per connection
	db.SetMaxOpenConns(1)

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteClient{db: db, path: path}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

// DatabaseName returns the file name of the database without extension
func (c *SQLiteClient) DatabaseName() string {
	path := c.path
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" {
		return "main"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
