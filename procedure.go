package pgsession

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mkarri/pgsession/internal/sqlbuild"
)

// Row is one fetched result row keyed by column name. Byte-slice cells are
// surfaced as strings.
type Row map[string]any

// driveLabels is the closed set of drive names accepted at log position 3.
const driveLabels = "drive_1 drive_2 drive_3 drive_4 drive_5 drive_6"

// CallProcedure invokes a set-returning routine with positional arguments
// and fetches every result row. The call runs in its own transaction so
// routine side effects commit exactly when the fetch succeeds; on failure
// the transaction rolls back and the mapped error is returned with no rows.
func (s *Session) CallProcedure(ctx context.Context, name string, args ...any) ([]Row, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}

	query, err := sqlbuild.CallRoutine(name, len(args))
	if err != nil {
		return nil, err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, convertError(err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to call %s: %w", name, convertError(err))
	}
	results, err := scanRows(rows)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to call %s: %w", name, convertError(err))
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", name, convertError(err))
	}

	s.log.Debug().Str("routine", name).Int("rows", len(results)).Msg("routine call completed")
	return results, nil
}

// UploadLog validates the fixed four-input contract of the log upload
// routine and forwards valid input to CallProcedure. The inputs are, in
// order: a text source, a timestamp, a drive label from drive_1 through
// drive_6, and a text detail. Only the first violated rule is reported, and
// nothing reaches the database on a violation.
func (s *Session) UploadLog(ctx context.Context, procedure string, inputs []any) error {
	if err := validateLogInputs(inputs); err != nil {
		return err
	}
	_, err := s.CallProcedure(ctx, procedure, inputs...)
	return err
}

func validateLogInputs(inputs []any) error {
	if len(inputs) != 4 {
		return fmt.Errorf("%w: expected 4 inputs, got %d", ErrInvalidLogInput, len(inputs))
	}
	if _, ok := inputs[0].(string); !ok {
		return fmt.Errorf("%w: first input must be a string", ErrInvalidLogInput)
	}
	if _, ok := inputs[1].(time.Time); !ok {
		return fmt.Errorf("%w: second input must be a timestamp", ErrInvalidLogInput)
	}
	drive, ok := inputs[2].(string)
	if !ok {
		return fmt.Errorf("%w: third input must be a string", ErrInvalidLogInput)
	}
	if err := validator.New().Var(drive, "oneof="+driveLabels); err != nil {
		return fmt.Errorf("%w: third input must be one of drive_1 through drive_6", ErrInvalidLogInput)
	}
	if _, ok := inputs[3].(string); !ok {
		return fmt.Errorf("%w: fourth input must be a string", ErrInvalidLogInput)
	}
	return nil
}

// scanRows drains a result set into generic rows, closing it on every path.
func scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var results []Row
	for rows.Next() {
		values := make([]any, len(columns))
		fieldPtrs := make([]any, len(columns))
		for i := range values {
			fieldPtrs[i] = &values[i]
		}
		if err := rows.Scan(fieldPtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}
