package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_Status(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindMissingCredential, http.StatusUnauthorized},
		{KindInvalidCredential, http.StatusUnauthorized},
		{KindInvalidToken, http.StatusForbidden},
		{KindForbidden, http.StatusForbidden},
		{KindConflict, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindValidation, http.StatusBadRequest},
		{KindInternal, http.StatusInternalServerError},
		{Kind("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Status())
		})
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("service layer: %w", Conflict("dup"))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:5432: connection refused")
	err := Internal(cause)
	assert.Equal(t, InternalMessage, err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestMapDBError(t *testing.T) {
	assert.Nil(t, MapDBError(nil))

	notFound := MapDBError(pgx.ErrNoRows)
	assert.True(t, Is(notFound, KindNotFound))

	plain := errors.New("network down")
	assert.Same(t, plain, MapDBError(plain))

	other := &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
	assert.Equal(t, error(other), MapDBError(other))

	check := MapDBError(&pgconn.PgError{Code: pgerrcode.CheckViolation})
	assert.True(t, Is(check, KindValidation))
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name    string
		pgErr   *pgconn.PgError
		wantMsg string
	}{
		{
			name:    "column name",
			pgErr:   &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "email"},
			wantMsg: "a user with this email already exists",
		},
		{
			name: "detail message",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: `Key (registration_number)=(AB-123-CD) already exists.`,
			},
			wantMsg: "a vehicle with this registration number already exists",
		},
		{
			name:    "constraint name",
			pgErr:   &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"},
			wantMsg: "a user with this email already exists",
		},
		{
			name:    "unknown column",
			pgErr:   &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "x"},
			wantMsg: "this value already exists",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(fmt.Errorf("insert: %w", tt.pgErr))
			appErr, ok := As(err)
			require.True(t, ok)
			assert.Equal(t, KindConflict, appErr.Kind)
			assert.Equal(t, tt.wantMsg, appErr.Message)
			assert.ErrorIs(t, err, tt.pgErr)
		})
	}
}

func TestMapDBError_DataExceptions(t *testing.T) {
	for _, code := range []string{pgerrcode.NumericValueOutOfRange, pgerrcode.StringDataRightTruncationDataException} {
		t.Run(code, func(t *testing.T) {
			err := MapDBError(&pgconn.PgError{Code: code})
			appErr, ok := As(err)
			require.True(t, ok)
			assert.Equal(t, KindValidation, appErr.Kind)
			assert.Equal(t, http.StatusBadRequest, appErr.Kind.Status())
		})
	}
}
