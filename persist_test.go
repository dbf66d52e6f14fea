package xorm

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-mizu/xorm/internal/testutil"
)

func TestFind(t *testing.T) {
	users := MustRegister("user", userAttrs())
	const query = "select `id`, `name` from `user` where `id`=?"

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(query).WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(3), "bob"))

		rec, err := users.Find(context.Background(), db, int64(3))
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, map[string]any{"id": int64(3), "name": "bob"}, rec.Map())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(query).WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

		rec, err := users.Find(context.Background(), db, int64(404))
		require.NoError(t, err)
		assert.Nil(t, rec)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(query).WithArgs(int64(1)).WillReturnError(assert.AnError)

		rec, err := users.Find(context.Background(), db, int64(1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, assert.AnError))
		assert.Nil(t, rec)
	})
}

func TestFind_ColumnOverrideRekeysRow(t *testing.T) {
	users := MustRegister("user", []Attribute{
		Attr("id", IntegerField(PrimaryKey(), Column("user_id"))),
		Attr("name", StringField(Column("user_name"))),
	})
	db, mock := newMockDB(t)
	mock.ExpectQuery("select `user_id`, `user_name` from `user` where `user_id`=?").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "user_name"}).AddRow(int64(1), "ann"))

	rec, err := users.Find(context.Background(), db, int64(1))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "ann"}, rec.Map())
}

func TestFindAll(t *testing.T) {
	users := MustRegister("user", userAttrs())
	cols := []string{"id", "name"}

	tests := []struct {
		name  string
		opts  []QueryOption
		query string
		args  []any
	}{
		{
			name:  "no clauses",
			query: "select `id`, `name` from `user`",
		},
		{
			name:  "where and order by",
			opts:  []QueryOption{Where("`name`=?", "bob"), OrderBy("`id` desc")},
			query: "select `id`, `name` from `user` where `name`=? order by `id` desc",
			args:  []any{"bob"},
		},
		{
			name:  "integer limit",
			opts:  []QueryOption{Limit(5)},
			query: "select `id`, `name` from `user` limit ?",
			args:  []any{int64(5)},
		},
		{
			name:  "pair limit",
			opts:  []QueryOption{Limit([2]int{10, 5})},
			query: "select `id`, `name` from `user` limit ?, ?",
			args:  []any{int64(10), int64(5)},
		},
		{
			name:  "slice pair limit after where",
			opts:  []QueryOption{Where("`id`>?", 1), Limit([]int64{0, 2})},
			query: "select `id`, `name` from `user` where `id`>? limit ?, ?",
			args:  []any{int64(1), int64(0), int64(2)},
		},
		{
			name:  "named where",
			opts:  []QueryOption{Where("`name`=:name and `id` in (:ids)", map[string]any{"name": "bob", "ids": []int{1, 2}}), Limit(3)},
			query: "select `id`, `name` from `user` where `name`=? and `id` in (?,?) limit ?",
			args:  []any{"bob", int64(1), int64(2), int64(3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			exp := mock.ExpectQuery(tt.query)
			if len(tt.args) > 0 {
				exp = exp.WithArgs(argsOf(tt.args)...)
			}
			exp.WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "ann").AddRow(int64(2), "bob"))

			recs, err := users.FindAll(context.Background(), db, tt.opts...)
			require.NoError(t, err)
			require.Len(t, recs, 2)
			assert.Equal(t, "ann", recs[0].Value("name"))
			assert.Equal(t, "bob", recs[1].Value("name"))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func argsOf(args []any) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

func TestFindAll_InvalidLimit(t *testing.T) {
	users := MustRegister("user", userAttrs())
	for _, limit := range []any{"x", 1.5, []int{1, 2, 3}, [2]string{"a", "b"}, []int{}} {
		db, mock := newMockDB(t)
		recs, err := users.FindAll(context.Background(), db, Limit(limit))
		require.Error(t, err, "limit %v", limit)
		assert.True(t, errors.Is(err, ErrInvalidLimit))
		assert.Nil(t, recs)
		assert.NoError(t, mock.ExpectationsWereMet(), "no statement may run")
	}
}

func TestFindAll_MixedWhereMarkers(t *testing.T) {
	users := MustRegister("user", userAttrs())
	db, mock := newMockDB(t)

	recs, err := users.FindAll(context.Background(), db,
		Where("`id`>? and `name`=:name", map[string]any{"name": "bob"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMixedParams))
	assert.Nil(t, recs)

	_, err = users.FindNumber(context.Background(), db, "count(id)",
		Where("`id`>? and `name`=:name", map[string]any{"name": "bob"}))
	assert.True(t, errors.Is(err, ErrMixedParams))
	assert.NoError(t, mock.ExpectationsWereMet(), "no statement may run")
}

func TestFindAll_Empty(t *testing.T) {
	users := MustRegister("user", userAttrs())
	db, mock := newMockDB(t)
	mock.ExpectQuery("select `id`, `name` from `user`").WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	recs, err := users.FindAll(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestFindNumber(t *testing.T) {
	users := MustRegister("user", userAttrs())

	t.Run("with where", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("select count(id) as _num_ from `user` where `name`=?").WithArgs("bob").
			WillReturnRows(sqlmock.NewRows([]string{"_num_"}).AddRow(int64(2)))

		n, err := users.FindNumber(context.Background(), db, "count(id)", Where("`name`=?", "bob"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("select max(id) as _num_ from `user`").
			WillReturnRows(sqlmock.NewRows([]string{"_num_"}))

		n, err := users.FindNumber(context.Background(), db, "max(id)")
		require.NoError(t, err)
		assert.Nil(t, n)
	})
}

func TestSave_ResolvesDefaults(t *testing.T) {
	users := MustRegister("user", userAttrs())
	db, mock := newMockDB(t)
	mock.ExpectExec("insert into `user` (`name`, `id`) values (?, ?)").
		WithArgs("anon", int64(7)).
		WillReturnResult(sqlmock.NewResult(7, 1))

	u := users.New(map[string]any{"id": int64(7)})
	n, err := u.Save(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "anon", u.Value("name"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_AffectedRowsMismatchWarns(t *testing.T) {
	users := MustRegister("user", userAttrs())
	logger, logs := testutil.NewCaptureLogger()
	db, mock := newMockDB(t, WithLogger(logger))
	mock.ExpectExec("insert into `user` (`name`, `id`) values (?, ?)").
		WithArgs("eve", int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := users.New(map[string]any{"id": int64(8), "name": "eve"}).Save(context.Background(), db)
	require.NoError(t, err, "row-count mismatch is not an error")
	assert.Equal(t, int64(0), n)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "failed to insert record")
	assert.Contains(t, logs.String(), "affected=0")
	assert.True(t, errors.Is(CheckAffected(n), ErrAffectedRows))
}

func TestSave_ExecError(t *testing.T) {
	users := MustRegister("user", userAttrs())
	db, mock := newMockDB(t)
	mock.ExpectExec("insert into `user` (`name`, `id`) values (?, ?)").WillReturnError(assert.AnError)

	_, err := users.New(map[string]any{"id": int64(1)}).Save(context.Background(), db)
	require.Error(t, err)
	assert.True(t, errors.Is(err, assert.AnError))
}

func TestUpdate(t *testing.T) {
	users := MustRegister("user", userAttrs())
	const query = "update `user` set `name`=? where `id`=?"

	t.Run("one row", func(t *testing.T) {
		logger, logs := testutil.NewCaptureLogger()
		db, mock := newMockDB(t, WithLogger(logger))
		mock.ExpectExec(query).WithArgs("bob", int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := users.New(map[string]any{"id": int64(3), "name": "bob"}).Update(context.Background(), db)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.NotContains(t, logs.String(), "level=WARN")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows warns", func(t *testing.T) {
		logger, logs := testutil.NewCaptureLogger()
		db, mock := newMockDB(t, WithLogger(logger))
		mock.ExpectExec(query).WithArgs("bob", int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))

		n, err := users.New(map[string]any{"id": int64(3), "name": "bob"}).Update(context.Background(), db)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
		assert.Contains(t, logs.String(), "failed to update by primary key")
		assert.Contains(t, logs.String(), "affected=0")
	})

	t.Run("no defaults applied", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(query).WithArgs(nil, int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))

		r := users.New(map[string]any{"id": int64(3)})
		_, err := r.Update(context.Background(), db)
		require.NoError(t, err)
		assert.False(t, r.Has("name"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("primary key only model", func(t *testing.T) {
		tags := MustRegister("tag", []Attribute{Attr("id", StringField(PrimaryKey()))})
		db, _ := newMockDB(t)
		_, err := tags.New(map[string]any{"id": "go"}).Update(context.Background(), db)
		assert.True(t, errors.Is(err, ErrNothingToUpdate))
	})
}

func TestRemove(t *testing.T) {
	users := MustRegister("user", userAttrs())
	logger, logs := testutil.NewCaptureLogger()
	db, mock := newMockDB(t, WithLogger(logger))
	mock.ExpectExec("delete from `user` where `id`=?").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from `user` where `id`=?").WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := users.New(map[string]any{"id": int64(3)}).Remove(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = users.New(map[string]any{"id": int64(4)}).Remove(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Contains(t, logs.String(), "failed to remove by primary key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_NativePlaceholders(t *testing.T) {
	users := MustRegister("user", userAttrs(), WithDialect(ANSI))
	db, mock := newMockDB(t, WithPlaceholder(PlaceholderDollar))
	mock.ExpectExec(`insert into "user" ("name", "id") values ($1, $2)`).
		WithArgs("anon", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`select "id", "name" from "user" where "id"=$1`).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "anon"))

	_, err := users.New(map[string]any{"id": int64(1)}).Save(context.Background(), db)
	require.NoError(t, err)
	rec, err := users.Find(context.Background(), db, int64(1))
	require.NoError(t, err)
	assert.Equal(t, "anon", rec.Value("name"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
