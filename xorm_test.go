package xorm

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/go-mizu/xorm/internal/testutil"
)

// rowsHandler answers a query for the in-process driver with the result
// set to return, or an error.
type rowsHandler func(query string, args []driver.NamedValue) (cols []string, rows [][]driver.Value, err error)

// rowsConnector hands out rowsConn connections to sql.OpenDB.
type rowsConnector struct{ h rowsHandler }

func (c rowsConnector) Connect(context.Context) (driver.Conn, error) { return &rowsConn{h: c.h}, nil }
func (c rowsConnector) Driver() driver.Driver                        { return nil }

// rowsConn serves queries through QueryContext only. The embedded
// driver.Conn is nil: Prepare and Begin are never reached by DB.Select.
type rowsConn struct {
	driver.Conn
	h rowsHandler
}

func (c *rowsConn) Close() error { return nil }

func (c *rowsConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	cols, data, err := c.h(query, args)
	if err != nil {
		return nil, err
	}
	return &memRows{cols: cols, data: data}, nil
}

// memRows iterates a fixed result set; short rows are padded with NULL.
type memRows struct {
	cols []string
	data [][]driver.Value
	next int
}

func (r *memRows) Columns() []string { return r.cols }
func (r *memRows) Close() error      { return nil }

func (r *memRows) Next(dest []driver.Value) error {
	if r.next == len(r.data) {
		return io.EOF
	}
	row := r.data[r.next]
	r.next++
	for i := range dest {
		dest[i] = nil
		if i < len(row) {
			dest[i] = row[i]
		}
	}
	return nil
}

// newTestDB creates a *DB whose queries are answered by h.
func newTestDB(t *testing.T, h rowsHandler, opts ...Option) *DB {
	t.Helper()
	sqlDB := sql.OpenDB(rowsConnector{h: h})
	t.Cleanup(func() { _ = sqlDB.Close() })
	return New(sqlDB, append([]Option{WithLogger(testutil.NewTestLogger(t))}, opts...)...)
}

// newMockDB creates a *DB over go-sqlmock with exact query matching.
func newMockDB(t *testing.T, opts ...Option) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return New(sqlDB, append([]Option{WithLogger(testutil.NewTestLogger(t))}, opts...)...), mock
}
