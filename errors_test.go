package pgsession

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := map[pq.ErrorCode]Kind{
		"23505": KindUniqueViolation,
		"23503": KindForeignKeyViolation,
		"23502": KindNotNullViolation,
		"23514": KindCheckViolation,
		"42P01": KindUndefinedTable,
		"42883": KindUndefinedFunction,
		"42601": KindSyntax,
		"08006": KindConnection,
		"08001": KindConnection,
		"57014": KindOther,
	}
	for code, want := range cases {
		assert.Equal(t, want, classify(code), "code %s", code)
	}
}

func TestConvertError(t *testing.T) {
	require.NoError(t, convertError(nil))

	// Non-driver errors pass through untouched.
	plain := errors.New("dial tcp: connection refused")
	assert.Same(t, plain, convertError(plain))

	pqErr := &pq.Error{
		Code:       "23505",
		Message:    "duplicate key value violates unique constraint",
		Table:      "upload_log",
		Column:     "id",
		Constraint: "upload_log_pkey",
	}
	err := convertError(fmt.Errorf("insert: %w", pqErr))

	var dbErr *DBError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, KindUniqueViolation, dbErr.Kind)
	assert.Equal(t, "23505", dbErr.Code)
	assert.Equal(t, "upload_log", dbErr.Table)
	assert.Equal(t, "id", dbErr.Column)
	assert.Equal(t, "upload_log_pkey", dbErr.Constraint)
	assert.Equal(t, "database error 23505: duplicate key value violates unique constraint", dbErr.Error())

	// Unwrap keeps the driver error reachable.
	var back *pq.Error
	require.ErrorAs(t, dbErr, &back)
	assert.Equal(t, pqErr, back)
}
