package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

// MSSQLClient manages the connection to Microsoft SQL Server
type MSSQLClient struct {
	db     *sql.DB
	dbName string
}

// NewMSSQLClient creates a new SQL Server client
func NewMSSQLClient(ctx context.Context, connString string) (*MSSQLClient, error) {
	// Validate the DSN early to fail fast on obvious mistakes
	cfg, err := msdsn.Parse(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SQL Server DSN: %w", err)
	}

	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MSSQLClient{db: db, dbName: cfg.Database}, nil
}

// Close closes the database connection
func (c *MSSQLClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *MSSQLClient) GetDB() *sql.DB {
	return c.db
}

// DatabaseName returns the database named in the DSN
func (c *MSSQLClient) DatabaseName() string {
	return c.dbName
}
