package pgsession

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mkarri/pgsession/internal/sqlbuild"
)

// Sentinel errors callers can match with errors.Is.
var (
	// ErrNotConnected is returned when an operation runs on a session whose
	// connection handle is not open.
	ErrNotConnected = errors.New("session not connected")

	// ErrTableNotFound is returned when the target table does not exist.
	ErrTableNotFound = errors.New("table does not exist")

	// ErrInvalidLogInput is returned when a log upload input violates the
	// positional contract. The wrapped message names the failing rule.
	ErrInvalidLogInput = errors.New("invalid log input")

	// ErrBadIdentifier is returned for table, column or routine names that
	// fail the identifier allow-list.
	ErrBadIdentifier = sqlbuild.ErrBadIdentifier

	// ErrBadType is returned for column type expressions that fail the type
	// allow-list.
	ErrBadType = sqlbuild.ErrBadType
)

// Kind classifies database errors by SQLSTATE so callers can branch without
// parsing driver messages.
type Kind int

const (
	KindOther Kind = iota
	KindConnection
	KindUniqueViolation
	KindForeignKeyViolation
	KindNotNullViolation
	KindCheckViolation
	KindUndefinedTable
	KindUndefinedFunction
	KindSyntax
)

// DBError carries the classified kind plus the SQLSTATE details reported by
// the server. The driver error stays reachable through Unwrap.
type DBError struct {
	Kind       Kind
	Code       string // SQLSTATE
	Message    string
	Table      string
	Column     string
	Constraint string

	cause error
}

func (e *DBError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("database error: %s", e.Message)
	}
	return fmt.Sprintf("database error %s: %s", e.Code, e.Message)
}

func (e *DBError) Unwrap() error { return e.cause }

// convertError maps driver errors into DBError. Errors that are not
// PostgreSQL server errors pass through unchanged, as does nil.
func convertError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	return &DBError{
		Kind:       classify(pqErr.Code),
		Code:       string(pqErr.Code),
		Message:    pqErr.Message,
		Table:      pqErr.Table,
		Column:     pqErr.Column,
		Constraint: pqErr.Constraint,
		cause:      err,
	}
}

func classify(code pq.ErrorCode) Kind {
	switch code {
	case "23505":
		return KindUniqueViolation
	case "23503":
		return KindForeignKeyViolation
	case "23502":
		return KindNotNullViolation
	case "23514":
		return KindCheckViolation
	case "42P01":
		return KindUndefinedTable
	case "42883":
		return KindUndefinedFunction
	}
	switch code.Class() {
	case "08":
		return KindConnection
	case "42":
		return KindSyntax
	}
	return KindOther
}
