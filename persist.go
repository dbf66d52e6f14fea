package xorm

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// QueryOption adds a clause to FindAll or FindNumber.
type QueryOption func(*queryOpts)

type queryOpts struct {
	where   string
	args    []any
	orderBy string
	limit   any
}

// Where filters rows with a raw SQL clause. Args bind its "?" markers; a
// single map[string]any or struct argument binds :name parameters instead,
// and the clause may then not contain "?" markers (ErrMixedParams).
func Where(clause string, args ...any) QueryOption {
	return func(o *queryOpts) {
		o.where = clause
		o.args = args
	}
}

// OrderBy appends a raw "order by" clause.
func OrderBy(clause string) QueryOption { return func(o *queryOpts) { o.orderBy = clause } }

// Limit bounds FindAll. v is either an integer row count or a two-element
// integer pair (offset, count) such as [2]int{10, 5}.
func Limit(v any) QueryOption { return func(o *queryOpts) { o.limit = v } }

func collect(opts []QueryOption) queryOpts {
	var o queryOpts
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// whereSQL appends the where clause to sql, resolving named parameters.
func (o queryOpts) whereSQL(sql []string) ([]string, []any, error) {
	if o.where == "" {
		return sql, append([]any(nil), o.args...), nil
	}
	clause, args := o.where, append([]any(nil), o.args...)
	if len(args) == 1 && isNamedParams(args[0]) {
		var err error
		if clause, args, err = bindNamed(clause, args[0]); err != nil {
			return nil, nil, err
		}
	}
	return append(sql, "where", clause), args, nil
}

// limitArgs validates a limit value and returns its markers and arguments.
func limitArgs(v any) (string, []any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "?", []any{v}, nil
	case reflect.Array, reflect.Slice:
		if rv.Len() == 2 && isIntKind(rv.Type().Elem().Kind()) {
			return "?, ?", []any{rv.Index(0).Interface(), rv.Index(1).Interface()}, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %v", ErrInvalidLimit, v)
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// Find returns the record whose primary key equals pk, or nil when no row matches.
func (m *Model) Find(ctx context.Context, db *DB, pk any) (*Record, error) {
	query := fmt.Sprintf("%s where %s=?", m.selectSQL, m.dialect.Quote(m.column(m.primaryKey)))
	rows, err := db.Select(ctx, query, []any{pk}, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return m.fromRow(rows[0]), nil
}

// FindAll returns the records selected by opts, in result-set order.
func (m *Model) FindAll(ctx context.Context, db *DB, opts ...QueryOption) ([]*Record, error) {
	o := collect(opts)
	sql, args, err := o.whereSQL([]string{m.selectSQL})
	if err != nil {
		return nil, err
	}
	if o.orderBy != "" {
		sql = append(sql, "order by", o.orderBy)
	}
	if o.limit != nil {
		marks, largs, err := limitArgs(o.limit)
		if err != nil {
			return nil, err
		}
		sql = append(sql, "limit", marks)
		args = append(args, largs...)
	}

	rows, err := db.Select(ctx, strings.Join(sql, " "), args, 0)
	if err != nil {
		return nil, err
	}
	out := make([]*Record, len(rows))
	for i, row := range rows {
		out[i] = m.fromRow(row)
	}
	return out, nil
}

// FindNumber evaluates selectField (e.g. "count(id)") over the table,
// optionally filtered with Where, and returns the value from the first row,
// or nil when there is none. OrderBy and Limit are ignored.
func (m *Model) FindNumber(ctx context.Context, db *DB, selectField string, opts ...QueryOption) (any, error) {
	o := collect(opts)
	sql, args, err := o.whereSQL([]string{
		fmt.Sprintf("select %s as _num_ from %s", selectField, m.dialect.Quote(m.table)),
	})
	if err != nil {
		return nil, err
	}
	rows, err := db.Select(ctx, strings.Join(sql, " "), args, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0]["_num_"], nil
}

// Save inserts the record. Unset fields resolve to their defaults first, and
// the resolved values are stored on the record.
//
// Save returns the affected-row count. A count other than 1 is logged as a
// warning, not returned as an error; use CheckAffected to be strict.
func (r *Record) Save(ctx context.Context, db *DB) (int64, error) {
	m := r.model
	args := make([]any, 0, len(m.fields)+1)
	for _, f := range m.fields {
		args = append(args, r.ValueOrDefault(f))
	}
	args = append(args, r.ValueOrDefault(m.primaryKey))
	n, err := db.Execute(ctx, m.insertSQL, args, true)
	if err != nil {
		return 0, err
	}
	if n != 1 {
		db.logger.Warn("failed to insert record", "model", m.name, "affected", n)
	}
	return n, nil
}

// Update writes every non-key field of the record, as stored (no defaults),
// to the row with the record's primary key. Affected-row handling matches Save.
func (r *Record) Update(ctx context.Context, db *DB) (int64, error) {
	m := r.model
	if m.updateSQL == "" {
		return 0, fmt.Errorf("%w: %s", ErrNothingToUpdate, m.name)
	}
	args := make([]any, 0, len(m.fields)+1)
	for _, f := range m.fields {
		args = append(args, r.Value(f))
	}
	args = append(args, r.Value(m.primaryKey))
	n, err := db.Execute(ctx, m.updateSQL, args, true)
	if err != nil {
		return 0, err
	}
	if n != 1 {
		db.logger.Warn("failed to update by primary key", "model", m.name, "affected", n)
	}
	return n, nil
}

// Remove deletes the row with the record's primary key. Affected-row handling matches Save.
func (r *Record) Remove(ctx context.Context, db *DB) (int64, error) {
	m := r.model
	n, err := db.Execute(ctx, m.deleteSQL, []any{r.Value(m.primaryKey)}, true)
	if err != nil {
		return 0, err
	}
	if n != 1 {
		db.logger.Warn("failed to remove by primary key", "model", m.name, "affected", n)
	}
	return n, nil
}
