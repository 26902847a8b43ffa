package db

import (
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for database operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists indicates a unique constraint violation, e.g. a
	// second account with the same email.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrForeignKey indicates a reference to a row that does not exist.
	ErrForeignKey = errors.New("referenced record does not exist")
)

// PostgreSQL error codes we translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// wrapQueryError maps driver errors onto the package sentinels. Unknown
// errors are returned unchanged.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}
	if pgxscan.NotFound(err) || errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", ErrAlreadyExists, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrForeignKey, pgErr.ConstraintName)
		}
	}
	return err
}
