package xorm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// DB is the query executor every persistence operation runs through. It
// wraps a connection pool (usually the *sql.DB from pool.Open), rewrites "?"
// markers into the pool's native placeholder style and logs each statement.
//
// The caller owns the pool: construct the DB at startup and Close it at
// shutdown. A DB is safe for concurrent use when its Conn is.
type DB struct {
	conn   Conn
	ph     Placeholder
	logger *slog.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithPlaceholder sets the native placeholder style of the Conn. The default
// is PlaceholderQuestion (MySQL).
func WithPlaceholder(ph Placeholder) Option { return func(db *DB) { db.ph = ph } }

// WithLogger sets the logger for statements and affected-row warnings.
func WithLogger(l *slog.Logger) Option { return func(db *DB) { db.logger = l } }

// New wraps conn.
func New(conn Conn, opts ...Option) *DB {
	db := &DB{conn: conn, ph: PlaceholderQuestion}
	for _, o := range opts {
		o(db)
	}
	if db.logger == nil {
		db.logger = slog.Default()
	}
	return db
}

// Conn returns the wrapped connection.
func (db *DB) Conn() Conn { return db.conn }

// Logger returns the DB's logger.
func (db *DB) Logger() *slog.Logger { return db.logger }

// Close closes the wrapped connection if it supports it.
func (db *DB) Close() error {
	if c, ok := db.conn.(io.Closer); ok {
		db.logger.Debug("closing database connection")
		return c.Close()
	}
	return nil
}

// Select runs a read statement and returns up to size rows (all rows when
// size <= 0), each keyed by column name. []byte column values are returned
// as strings.
func (db *DB) Select(ctx context.Context, query string, args []any, size int) (out []Row, err error) {
	db.logger.Debug("SQL", "sql", query, "args", len(args))
	rows, err := db.conn.QueryContext(ctx, rewritePlaceholders(query, db.ph), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	// Propagate rows.Close() error if nothing else failed.
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		if size > 0 && len(out) == size {
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	db.logger.Debug("rows returned", "rows", len(out))
	return out, nil
}

// Execute runs a write statement and returns the affected-row count.
//
// With autoCommit=false the statement runs inside its own transaction: begin,
// exec, commit. A failing exec is rolled back and its error returned.
func (db *DB) Execute(ctx context.Context, query string, args []any, autoCommit bool) (int64, error) {
	db.logger.Debug("SQL", "sql", query, "args", len(args))
	native := rewritePlaceholders(query, db.ph)
	if autoCommit {
		res, err := db.conn.ExecContext(ctx, native, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to execute SQL: %w", err)
		}
		return res.RowsAffected()
	}

	b, ok := db.conn.(Beginner)
	if !ok {
		return 0, ErrNoTxSupport
	}
	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	res, err := tx.ExecContext(ctx, native, args...)
	if err == nil {
		var n int64
		if n, err = res.RowsAffected(); err == nil {
			if err = tx.Commit(); err != nil {
				return 0, fmt.Errorf("failed to commit: %w", err)
			}
			return n, nil
		}
	}
	if rerr := tx.Rollback(); rerr != nil {
		err = errors.Join(err, rerr)
	}
	return 0, fmt.Errorf("failed to execute SQL: %w", err)
}
