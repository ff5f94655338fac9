// Package apply executes rendered DDL scripts against a live database.
package apply

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	apperrors "github.com/tordrt/schemasync/internal/errors"
	"github.com/tordrt/schemasync/internal/logging"
	"github.com/tordrt/schemasync/internal/sqlbuilder"
)

// Executor runs a single statement
type Executor interface {
	Exec(ctx context.Context, stmt string) error
}

// SQLExecutor runs statements on one database/sql connection, so session
// settings such as PRAGMA or SET IDENTITY_INSERT hold across the script
type SQLExecutor struct {
	conn *sql.Conn
}

// NewSQLExecutor borrows a connection from db; Close returns it
func NewSQLExecutor(ctx context.Context, db *sql.DB) (*SQLExecutor, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &SQLExecutor{conn: conn}, nil
}

// Exec runs one statement
func (e *SQLExecutor) Exec(ctx context.Context, stmt string) error {
	_, err := e.conn.ExecContext(ctx, stmt)
	return err
}

// Close returns the connection to its pool
func (e *SQLExecutor) Close() error {
	return e.conn.Close()
}

// PoolExecutor runs statements on one connection acquired from a pgx pool
type PoolExecutor struct {
	conn *pgxpool.Conn
}

// NewPoolExecutor acquires a connection from pool; Close releases it
func NewPoolExecutor(ctx context.Context, pool *pgxpool.Pool) (*PoolExecutor, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &PoolExecutor{conn: conn}, nil
}

// Exec runs one statement
func (e *PoolExecutor) Exec(ctx context.Context, stmt string) error {
	_, err := e.conn.Exec(ctx, stmt)
	return err
}

// Close releases the connection back to the pool
func (e *PoolExecutor) Close() error {
	e.conn.Release()
	return nil
}

// Policy controls how failures are handled
type Policy struct {
	// ContinueOnError runs the remaining statements after a failure
	ContinueOnError bool
}

// Result summarises one script execution
type Result struct {
	BatchID  string
	Executed int
	Failed   int
	Errors   []error
}

// Applier executes scripts statement by statement
type Applier struct {
	newID func() string
}

// NewApplier creates an applier
func NewApplier() *Applier {
	return &Applier{newID: func() string { return uuid.NewString() }}
}

// Apply runs the executable statements of script in order. Without ContinueOnError the
// first failure stops the run and is returned as a SQLExecutionError; with it every
// failure is logged and counted, and the returned error reports the count.
func (a *Applier) Apply(ctx context.Context, exec Executor, script *sqlbuilder.Script, policy Policy) (*Result, error) {
	res := &Result{BatchID: a.newID()}
	log := logging.With("batch", res.BatchID)
	log.Info("applying script", "statements", script.Len())

	for _, stmt := range script.Executable() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log.Debug("executing statement", "sql", stmt)
		if err := exec.Exec(ctx, stmt); err != nil {
			execErr := apperrors.NewSQLExecution(stmt, err)
			log.Error("statement failed", "sql", stmt, "error", err)
			res.Failed++
			res.Errors = append(res.Errors, execErr)
			if !policy.ContinueOnError {
				return res, execErr
			}
			continue
		}
		res.Executed++
	}

	log.Info("script applied", "executed", res.Executed, "failed", res.Failed)
	if res.Failed > 0 {
		return res, fmt.Errorf("%d of %d statements failed: %w", res.Failed, res.Failed+res.Executed, res.Errors[0])
	}
	return res, nil
}
