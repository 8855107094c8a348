package pgsession_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarri/pgsession"
)

func TestCallProcedure(t *testing.T) {
	sess, mock := newMockSession(t)

	rows := sqlmock.NewRows([]string{"id", "source"}).
		AddRow(int64(1), []byte("backup-agent")).
		AddRow(int64(2), []byte("archiver"))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM recent_uploads\(\$1\)`).
		WithArgs("drive_1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	results, err := sess.CallProcedure(context.Background(), "recent_uploads", "drive_1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Byte-slice cells come back as strings.
	assert.Equal(t, int64(1), results[0]["id"])
	assert.Equal(t, "backup-agent", results[0]["source"])
	assert.Equal(t, "archiver", results[1]["source"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCallProcedure_NoArgs(t *testing.T) {
	sess, mock := newMockSession(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM cleanup_logs\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"removed"}).AddRow(int64(0)))
	mock.ExpectCommit()

	results, err := sess.CallProcedure(context.Background(), "cleanup_logs")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCallProcedure_ErrorRollsBack(t *testing.T) {
	sess, mock := newMockSession(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM upload_log\(\$1, \$2, \$3, \$4\)`).
		WillReturnError(&pq.Error{Code: "42883", Message: "function upload_log(unknown) does not exist"})
	mock.ExpectRollback()

	results, err := sess.CallProcedure(context.Background(), "upload_log", "a", time.Now(), "drive_1", "b")
	require.Error(t, err)
	assert.Nil(t, results)

	var dbErr *pgsession.DBError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, pgsession.KindUndefinedFunction, dbErr.Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCallProcedure_BadNameNeverReachesDatabase(t *testing.T) {
	sess, mock := newMockSession(t)

	_, err := sess.CallProcedure(context.Background(), "upload_log(); DROP TABLE logs")
	require.ErrorIs(t, err, pgsession.ErrBadIdentifier)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadLog(t *testing.T) {
	sess, mock := newMockSession(t)
	ts := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM upload_log\(\$1, \$2, \$3, \$4\)`).
		WithArgs("backup-agent", ts, "drive_3", "nightly sync ok").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow([]byte("ok")))
	mock.ExpectCommit()

	err := sess.UploadLog(context.Background(), "upload_log",
		[]any{"backup-agent", ts, "drive_3", "nightly sync ok"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestUploadLog_Validation walks the positional rules in order. Every
// rejected case must leave the mock untouched.
func TestUploadLog_Validation(t *testing.T) {
	ts := time.Now()

	cases := []struct {
		name    string
		inputs  []any
		message string
	}{
		{
			name:    "wrong input count",
			inputs:  []any{"src", ts, "drive_1"},
			message: "expected 4 inputs, got 3",
		},
		{
			name:    "first input not text",
			inputs:  []any{42, ts, "drive_1", "detail"},
			message: "first input must be a string",
		},
		{
			name:    "second input not a timestamp",
			inputs:  []any{"src", "2026-03-14", "drive_1", "detail"},
			message: "second input must be a timestamp",
		},
		{
			name:    "third input not text",
			inputs:  []any{"src", ts, 3, "detail"},
			message: "third input must be a string",
		},
		{
			name:    "third input outside drive set",
			inputs:  []any{"src", ts, "drive_9", "detail"},
			message: "third input must be one of drive_1 through drive_6",
		},
		{
			name:    "fourth input not text",
			inputs:  []any{"src", ts, "drive_6", 99},
			message: "fourth input must be a string",
		},
		{
			name:    "first violation wins when several apply",
			inputs:  []any{42, "not a time", 7, 9},
			message: "first input must be a string",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess, mock := newMockSession(t)

			err := sess.UploadLog(context.Background(), "upload_log", tc.inputs)
			require.ErrorIs(t, err, pgsession.ErrInvalidLogInput)
			assert.Contains(t, err.Error(), tc.message)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUploadLog_AcceptsEveryDriveLabel(t *testing.T) {
	ts := time.Now()
	for _, drive := range []string{"drive_1", "drive_2", "drive_3", "drive_4", "drive_5", "drive_6"} {
		t.Run(drive, func(t *testing.T) {
			sess, mock := newMockSession(t)

			mock.ExpectBegin()
			mock.ExpectQuery(`SELECT \* FROM upload_log\(\$1, \$2, \$3, \$4\)`).
				WithArgs("src", ts, drive, "detail").
				WillReturnRows(sqlmock.NewRows([]string{"status"}))
			mock.ExpectCommit()

			err := sess.UploadLog(context.Background(), "upload_log", []any{"src", ts, drive, "detail"})
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
