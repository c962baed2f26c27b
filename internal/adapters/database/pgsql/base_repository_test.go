package pgsql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgErrorCode(t *testing.T) {
	err := fmt.Errorf("insert line: %w", &pgconn.PgError{Code: pgUniqueViolation})
	assert.Equal(t, pgUniqueViolation, pgErrorCode(err))
	assert.True(t, isUniqueViolation(err))

	assert.Equal(t, "", pgErrorCode(errors.New("dial tcp: connection refused")))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: pgForeignKeyViolation}))
}

func TestNotFoundOr(t *testing.T) {
	err := notFoundOr(pgx.ErrNoRows, "statement line", "l-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "l-1")

	err = notFoundOr(errors.New("conn busy"), "statement line", "l-1")
	var appErr *apperrors.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, 500, appErr.Code)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
