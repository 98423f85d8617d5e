package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/reloquent/kvpview/internal/config"
)

// TxBeginner is satisfied by *sql.DB.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ConnectivityError is returned when the database cannot be reached.
type ConnectivityError struct {
	Host     string
	Port     int
	Database string
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("database connection failed (%s:%d/%s): %v", e.Host, e.Port, e.Database, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// DDLError wraps a failed DDL statement.
type DDLError struct {
	Statement string
	Err       error
}

func (e *DDLError) Error() string {
	return fmt.Sprintf("executing %q: %v", summarize(e.Statement), e.Err)
}

func (e *DDLError) Unwrap() error { return e.Err }

// Code returns the SQLSTATE of the underlying PostgreSQL error, or "" when
// the failure did not come from the server.
func (e *DDLError) Code() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Open creates a *sql.DB backed by the pgx driver. No connection is made until
// first use; call Probe to verify reachability.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	db := stdlib.OpenDB(*connCfg)
	// One job, one connection.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Connect opens the database and runs the startup probe.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Probe(ctx, db); err != nil {
		db.Close()
		var ce *ConnectivityError
		if errors.As(err, &ce) {
			ce.Host, ce.Port, ce.Database = cfg.Host, cfg.Port, cfg.Name
		}
		return nil, err
	}
	return db, nil
}

// Probe issues SELECT 1 and reports any failure as a ConnectivityError.
func Probe(ctx context.Context, q Querier) error {
	var one int
	if err := q.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return &ConnectivityError{Err: err}
	}
	if one != 1 {
		return &ConnectivityError{Err: fmt.Errorf("unexpected probe result %d", one)}
	}
	return nil
}

// WithTx runs fn inside a transaction. fn's error, or a failed commit, rolls
// the transaction back.
func WithTx(ctx context.Context, db TxBeginner, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ExecDDL runs each statement in order, stopping at the first failure.
func ExecDDL(ctx context.Context, ex Execer, statements ...string) error {
	for _, stmt := range statements {
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			return &DDLError{Statement: stmt, Err: err}
		}
	}
	return nil
}

func summarize(stmt string) string {
	const max = 80
	for i, r := range stmt {
		if r == '\n' {
			stmt = stmt[:i] + " ..."
			break
		}
	}
	if len(stmt) > max {
		return stmt[:max] + " ..."
	}
	return stmt
}
