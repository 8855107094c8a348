// Package pgsession manages a single-connection PostgreSQL session: table
// management, row insertion, duplicate checks and set-returning routine
// calls over one database handle.
package pgsession

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkarri/pgsession/internal/sqlbuild"
)

// connectTimeout bounds the liveness ping issued by Connect.
const connectTimeout = 10 * time.Second

// tableExistsQuery probes the catalog for a table in the public schema.
const tableExistsQuery = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1`

// Config holds the connection parameters for a session. Port stays a string
// because it is only ever joined into the connect URL.
type Config struct {
	User     string `koanf:"user" validate:"required"`
	Password string `koanf:"password" validate:"required"`
	Host     string `koanf:"host" validate:"required"`
	Port     string `koanf:"port" validate:"required"`
	Service  string `koanf:"service" validate:"required"`
	SSLMode  string `koanf:"ssl_mode"`
}

// Session owns at most one open connection handle and runs every operation
// through it. A new session starts disconnected; Connect opens the handle
// and Close releases it. A Session is not safe for concurrent use.
type Session struct {
	cfg  Config
	conn *sql.DB
	log  zerolog.Logger
}

// New returns a disconnected session. The logger is stamped with a fresh
// session_id so operation logs correlate. Pass zerolog.Nop() to silence it.
func New(cfg Config, logger zerolog.Logger) *Session {
	return &Session{
		cfg: cfg,
		log: logger.With().Str("session_id", uuid.NewString()).Logger(),
	}
}

// WrapDB builds a session around an already-open handle. Tests and callers
// that manage their own sql.DB use this instead of Connect.
func WrapDB(conn *sql.DB, logger zerolog.Logger) *Session {
	return &Session{
		conn: conn,
		log:  logger.With().Str("session_id", uuid.NewString()).Logger(),
	}
}

// Connect opens the configured database and verifies it with a bounded
// ping. On failure the session stays disconnected. Connecting an already
// connected session is a no-op.
func (s *Session) Connect(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	conn, err := sql.Open("postgres", s.cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", convertError(err))
	}
	// One handle, not a pool.
	conn.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", convertError(err))
	}

	s.conn = conn
	s.log.Info().Str("host", s.cfg.Host).Str("service", s.cfg.Service).Msg("connected to database")
	return nil
}

// Close releases the connection handle and returns the session to its
// disconnected state. Closing a disconnected session is a no-op.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", convertError(err))
	}
	s.log.Info().Msg("database connection closed")
	return nil
}

// Connected reports whether the session holds an open handle.
func (s *Session) Connected() bool { return s.conn != nil }

// DB exposes the underlying handle, or nil when disconnected.
func (s *Session) DB() *sql.DB { return s.conn }

// Ping verifies the open handle still reaches the server.
func (s *Session) Ping(ctx context.Context) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", convertError(err))
	}
	return nil
}

// TableExists reports whether the named table exists in the public schema.
// The name is lower-cased before matching because PostgreSQL folds unquoted
// identifiers to lower case.
func (s *Session) TableExists(ctx context.Context, table string) (bool, error) {
	if s.conn == nil {
		return false, ErrNotConnected
	}
	if err := sqlbuild.CheckIdent(table); err != nil {
		return false, err
	}

	var count int
	err := s.conn.QueryRowContext(ctx, tableExistsQuery, strings.ToLower(table)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, convertError(err))
	}
	return count > 0, nil
}

// CreateTable creates a table from a column-name to column-type map.
// Creating a table that already exists is a logged no-op.
func (s *Session) CreateTable(ctx context.Context, table string, columns map[string]string) error {
	exists, err := s.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if exists {
		s.log.Info().Str("table", table).Msg("table already exists, skipping create")
		return nil
	}

	query, err := sqlbuild.CreateTable(table, columns)
	if err != nil {
		return err
	}
	if err := s.execTx(ctx, query, nil); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	s.log.Info().Str("table", table).Msg("table created")
	return nil
}

// DropTable removes the named table. Dropping a table that does not exist
// returns ErrTableNotFound.
func (s *Session) DropTable(ctx context.Context, table string) error {
	exists, err := s.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	query, err := sqlbuild.DropTable(table)
	if err != nil {
		return err
	}
	if err := s.execTx(ctx, query, nil); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	s.log.Info().Str("table", table).Msg("table dropped")
	return nil
}

// InsertRow inserts one row described by a column-name to value map into an
// existing table. Columns bind in sorted name order; inserting into a
// missing table returns ErrTableNotFound.
func (s *Session) InsertRow(ctx context.Context, table string, values map[string]any) error {
	exists, err := s.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	query, args, err := sqlbuild.InsertRow(table, values)
	if err != nil {
		return err
	}
	if err := s.execTx(ctx, query, args); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	s.log.Debug().Str("table", table).Msg("row inserted")
	return nil
}

// HasDuplicates reports whether more than one row of the table holds the
// given value in the given column. On a database failure it reports false
// together with the mapped error.
func (s *Session) HasDuplicates(ctx context.Context, table, column string, value any) (bool, error) {
	if s.conn == nil {
		return false, ErrNotConnected
	}

	query, err := sqlbuild.DuplicateCheck(table, column)
	if err != nil {
		return false, err
	}

	rows, err := s.conn.QueryContext(ctx, query, value)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicates on %s.%s: %w", table, column, convertError(err))
	}
	defer rows.Close()

	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed to check duplicates on %s.%s: %w", table, column, convertError(err))
	}
	return found, nil
}

// execTx runs one statement inside its own transaction, committing on
// success and rolling back on failure.
func (s *Session) execTx(ctx context.Context, query string, args []any) error {
	if s.conn == nil {
		return ErrNotConnected
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return convertError(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return convertError(err)
	}
	if err := tx.Commit(); err != nil {
		return convertError(err)
	}
	return nil
}
