package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// pgCode extracts the SQLSTATE and constraint name from either driver's
// error type: pgx in the server, lib/pq in the container tests.
func pgCode(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}

// IsUniqueViolation reports a duplicate key and the constraint it hit.
func IsUniqueViolation(err error) (string, bool) {
	code, constraint, ok := pgCode(err)
	return constraint, ok && code == codeUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	code, _, ok := pgCode(err)
	return ok && code == codeForeignKeyViolation
}

func IsCheckViolation(err error) bool {
	code, _, ok := pgCode(err)
	return ok && code == codeCheckViolation
}
