package xorm

import (
	"fmt"
	"sort"
)

// Record holds the column values of one row, keyed by attribute name.
//
// Any key may be stored, declared or not; only declared attributes take part
// in Save, Update and Remove. A Record is not safe for concurrent mutation.
type Record struct {
	model *Model
	data  map[string]any
}

// New returns a record of model m holding a copy of values.
func (m *Model) New(values map[string]any) *Record {
	data := make(map[string]any, len(values))
	for k, v := range values {
		data[k] = v
	}
	return &Record{model: m, data: data}
}

// fromRow builds a record from a result row, renaming mapped columns to their attributes.
func (m *Model) fromRow(row Row) *Record {
	data := make(map[string]any, len(row))
	for col, v := range row {
		data[m.attrFor(col)] = v
	}
	return &Record{model: m, data: data}
}

// Model returns the record's model.
func (r *Record) Model() *Model { return r.model }

// Get returns the value stored under key, or ErrAttributeNotFound.
func (r *Record) Get(key string) (any, error) {
	v, ok := r.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAttributeNotFound, key)
	}
	return v, nil
}

// Set stores v under key.
func (r *Record) Set(key string, v any) { r.data[key] = v }

// Has reports whether key is set.
func (r *Record) Has(key string) bool {
	_, ok := r.data[key]
	return ok
}

// Delete removes key from the record.
func (r *Record) Delete(key string) { delete(r.data, key) }

// Value returns the value stored under key, or nil.
func (r *Record) Value(key string) any { return r.data[key] }

// ValueOrDefault returns the value stored under key. When it is missing or
// nil, the attribute's default is resolved, stored on the record and
// returned; a nil default yields nil and stores nothing.
func (r *Record) ValueOrDefault(key string) any {
	if v := r.data[key]; v != nil {
		return v
	}
	f, ok := r.model.mappings[key]
	if !ok {
		return nil
	}
	v := f.resolveDefault()
	if v == nil {
		return nil
	}
	r.data[key] = v
	return v
}

// PrimaryKey returns the primary key value, or nil.
func (r *Record) PrimaryKey() any { return r.data[r.model.primaryKey] }

// Keys returns the stored keys in sorted order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.data))
	for k := range r.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the record's data.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out
}
