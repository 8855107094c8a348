// File: internal/sqlbuild/sqlbuild.go

// Package sqlbuild assembles the SQL statements the session executes.
// Table, column and routine names are interpolated into statement text, so
// every identifier is checked against an allow-list first; values are never
// interpolated and always travel as bind arguments.
package sqlbuild

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrBadIdentifier rejects names that are not plain unquoted identifiers.
	ErrBadIdentifier = errors.New("invalid sql identifier")

	// ErrBadType rejects column type expressions outside the allowed shape.
	ErrBadType = errors.New("invalid column type")

	// ErrNoColumns rejects empty column or value maps.
	ErrNoColumns = errors.New("no columns given")
)

// maxIdentLen is the PostgreSQL limit for unquoted identifiers.
const maxIdentLen = 63

var (
	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// typePattern covers plain type names plus forms like VARCHAR(40),
	// NUMERIC(10, 2) and TIMESTAMP WITH TIME ZONE.
	typePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\([0-9]+(, ?[0-9]+)?\))?( [A-Za-z][A-Za-z0-9_]*)*$`)
)

// CheckIdent validates a table or column name before it may be spliced into
// statement text.
func CheckIdent(name string) error {
	if name == "" || len(name) > maxIdentLen || !identPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrBadIdentifier, name)
	}
	return nil
}

// CheckRoutine validates a routine name, allowing one schema qualifier such
// as analytics.rollup_daily.
func CheckRoutine(name string) error {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return fmt.Errorf("%w: %q", ErrBadIdentifier, name)
	}
	for _, part := range parts {
		if err := CheckIdent(part); err != nil {
			return fmt.Errorf("%w: %q", ErrBadIdentifier, name)
		}
	}
	return nil
}

func checkType(typ string) error {
	if typ == "" || !typePattern.MatchString(typ) {
		return fmt.Errorf("%w: %q", ErrBadType, typ)
	}
	return nil
}

// sortedKeys returns map keys in sorted order so generated statements are
// deterministic regardless of map iteration order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// placeholders renders $1..$n.
func placeholders(n int) []string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return ph
}

// CreateTable builds a CREATE TABLE statement from a column-name to
// column-type map. Columns appear in sorted name order.
func CreateTable(table string, columns map[string]string) (string, error) {
	if err := CheckIdent(table); err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("%w: table %s", ErrNoColumns, table)
	}
	defs := make([]string, 0, len(columns))
	for _, name := range sortedKeys(columns) {
		if err := CheckIdent(name); err != nil {
			return "", err
		}
		if err := checkType(columns[name]); err != nil {
			return "", err
		}
		defs = append(defs, name+" "+columns[name])
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", ")), nil
}

// DropTable builds a DROP TABLE statement.
func DropTable(table string) (string, error) {
	if err := CheckIdent(table); err != nil {
		return "", err
	}
	return "DROP TABLE " + table, nil
}

// InsertRow builds a parameterized single-row INSERT and returns the bind
// arguments in the same sorted column order as the statement.
func InsertRow(table string, values map[string]any) (string, []any, error) {
	if err := CheckIdent(table); err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, fmt.Errorf("%w: table %s", ErrNoColumns, table)
	}
	names := sortedKeys(values)
	args := make([]any, 0, len(names))
	for _, name := range names {
		if err := CheckIdent(name); err != nil {
			return "", nil, err
		}
		args = append(args, values[name])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(placeholders(len(names)), ", "))
	return query, args, nil
}

// DuplicateCheck builds the grouped count query that reports column values
// held by more than one row. The probed value stays a bind argument.
func DuplicateCheck(table, column string) (string, error) {
	if err := CheckIdent(table); err != nil {
		return "", err
	}
	if err := CheckIdent(column); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM %s WHERE %s = $1 GROUP BY %s HAVING COUNT(*) > 1",
		column, table, column, column), nil
}

// CallRoutine builds a set-returning routine invocation with argc positional
// placeholders.
func CallRoutine(name string, argc int) (string, error) {
	if err := CheckRoutine(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT * FROM %s(%s)", name, strings.Join(placeholders(argc), ", ")), nil
}
