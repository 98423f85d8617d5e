package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloquent/kvpview/internal/config"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestProbe(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	assert.NoError(t, Probe(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProbeFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection refused"))

	err := Probe(context.Background(), db)
	var ce *ConnectivityError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Error(), "connection refused")
}

func TestWithTxCommits(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("DROP VIEW IF EXISTS kvp.v CASCADE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
		return ExecDDL(context.Background(), tx, "DROP VIEW IF EXISTS kvp.v CASCADE")
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("DROP VIEW IF EXISTS kvp.v CASCADE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE VIEW kvp.v AS SELECT").WillReturnError(&pgconn.PgError{Code: "42601", Message: "syntax error at end of input"})
	mock.ExpectRollback()

	err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
		return ExecDDL(context.Background(), tx,
			"DROP VIEW IF EXISTS kvp.v CASCADE",
			"CREATE VIEW kvp.v AS SELECT",
		)
	})

	var ddlErr *DDLError
	require.True(t, errors.As(err, &ddlErr))
	assert.Equal(t, "CREATE VIEW kvp.v AS SELECT", ddlErr.Statement)
	assert.Equal(t, "42601", ddlErr.Code())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxBeginFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("permission denied"))

	called := false
	err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestDDLErrorCodeWithoutServerError(t *testing.T) {
	err := &DDLError{Statement: "DROP VIEW x", Err: errors.New("driver: bad connection")}
	assert.Equal(t, "", err.Code())
}

func TestDDLErrorSummarizesStatement(t *testing.T) {
	err := &DDLError{Statement: "CREATE VIEW kvp.v AS\nSELECT s.id FROM raw.src s", Err: errors.New("boom")}
	assert.Contains(t, err.Error(), `"CREATE VIEW kvp.v AS ..."`)
}

func TestOpenRejectsBadSSLMode(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Host: "localhost", Port: 5432, Name: "rankings", SSLMode: "sometimes"})
	assert.Error(t, err)
}
