package apperr

import (
	"errors"
	"regexp"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the column from "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// conflictMessages holds the client-facing message per unique column.
var conflictMessages = map[string]string{
	"email":               "a user with this email already exists",
	"registration_number": "a vehicle with this registration number already exists",
}

// MapDBError classifies a database error:
//   - pgx.ErrNoRows → NotFound
//   - unique_violation → Conflict
//   - check / not-null violation, numeric overflow, oversized string → Validation
//
// Anything else is returned unchanged so callers can wrap it with context.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Wrap(KindNotFound, "resource not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return Wrap(KindConflict, conflictMessage(pgErr), err)
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation,
		pgerrcode.NumericValueOutOfRange, pgerrcode.StringDataRightTruncationDataException:
		return &Error{Kind: KindValidation, Message: "invalid request data", Cause: err}
	default:
		return err
	}
}

func conflictMessage(pgErr *pgconn.PgError) string {
	field := pgErr.ColumnName
	if field == "" && pgErr.Detail != "" {
		if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			field = m[1]
		}
	}
	if msg, ok := conflictMessages[field]; ok {
		return msg
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return conflictMessages["email"]
	case "vehicles_registration_number_key":
		return conflictMessages["registration_number"]
	}
	return "this value already exists"
}
