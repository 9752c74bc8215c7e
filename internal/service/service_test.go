package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func pqError(code, constraint string) error {
	return &pq.Error{Code: pq.ErrorCode(code), Constraint: constraint}
}

func assertAppError(t *testing.T, err error, want *appErrors.Error) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, want.Code, appErr.Code)
	assert.Equal(t, want.Status, appErr.Status)
	return appErr
}

func TestWriteErrorMapsConstraintViolations(t *testing.T) {
	err := writeError(pqError("23505", "classes_name_year_key"), "doublon", "ref", "interne")
	appErr := assertAppError(t, err, appErrors.ErrDuplicate)
	assert.Equal(t, "doublon", appErr.Message)

	err = writeError(pqError("23503", "schedules_class_id_fkey"), "doublon", "ref", "interne")
	assertAppError(t, err, appErrors.ErrReferenced)

	err = writeError(pqError("23514", ""), "", "", "interne")
	assertAppError(t, err, appErrors.ErrValidation)

	err = writeError(sql.ErrNoRows, "", "", "interne")
	assertAppError(t, err, appErrors.ErrNotFound)

	err = writeError(sql.ErrConnDone, "", "", "interne")
	appErr = assertAppError(t, err, appErrors.ErrInternal)
	assert.Equal(t, "interne", appErr.Message)
}
