package xorm

import (
	"fmt"
	"log/slog"
	"strings"
)

// Model is the metadata of one registered model type: its table, field
// mappings and precomputed SQL templates. It is immutable once Register
// returns and safe for concurrent use.
type Model struct {
	name       string
	table      string
	dialect    Dialect
	mappings   map[string]Field
	primaryKey string
	fields     []string // non-key attributes, declaration order
	byColumn   map[string]string

	selectSQL string
	insertSQL string
	updateSQL string
	deleteSQL string
}

// ModelOption configures Register.
type ModelOption func(*modelConfig)

type modelConfig struct {
	table   string
	dialect Dialect
	logger  *slog.Logger
}

// WithTable overrides the table name, which otherwise is the model name.
func WithTable(table string) ModelOption { return func(c *modelConfig) { c.table = table } }

// WithDialect selects identifier quoting for the generated templates.
func WithDialect(d Dialect) ModelOption { return func(c *modelConfig) { c.dialect = d } }

// WithModelLogger sets the logger used while registering.
func WithModelLogger(l *slog.Logger) ModelOption { return func(c *modelConfig) { c.logger = l } }

// Register builds the metadata for a model from its declared attributes.
//
// Exactly one attribute must be a primary key: Register fails with
// ErrMissingPrimaryKey or ErrDuplicatePrimaryKey otherwise. Non-key attributes
// keep their declaration order, which fixes argument order for the insert
// and update templates.
func Register(name string, attrs []Attribute, opts ...ModelOption) (*Model, error) {
	if name == "" {
		return nil, ErrEmptyModelName
	}
	cfg := modelConfig{dialect: MySQL}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	table := cfg.table
	if table == "" {
		table = name
	}
	cfg.logger.Debug("found model", "model", name, "table", table)

	m := &Model{
		name:     name,
		table:    table,
		dialect:  cfg.dialect,
		mappings: make(map[string]Field, len(attrs)),
		byColumn: make(map[string]string, len(attrs)),
	}
	for _, a := range attrs {
		if _, dup := m.mappings[a.Name]; dup {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateAttribute, name, a.Name)
		}
		cfg.logger.Debug("found mapping", "model", name, "attr", a.Name, "field", a.Field.String())
		col := a.Field.column(a.Name)
		if other, dup := m.byColumn[col]; dup {
			return nil, fmt.Errorf("%w: %s.%s: %q already mapped by %s", ErrDuplicateColumn, name, a.Name, col, other)
		}
		m.mappings[a.Name] = a.Field
		m.byColumn[col] = a.Name
		if a.Field.PrimaryKey {
			if m.primaryKey != "" {
				return nil, fmt.Errorf("%w: %s.%s", ErrDuplicatePrimaryKey, name, a.Name)
			}
			m.primaryKey = a.Name
			continue
		}
		m.fields = append(m.fields, a.Name)
	}
	if m.primaryKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingPrimaryKey, name)
	}
	m.buildTemplates()
	return m, nil
}

// MustRegister is like Register but panics on error. It simplifies
// package-level model declarations.
func MustRegister(name string, attrs []Attribute, opts ...ModelOption) *Model {
	m, err := Register(name, attrs, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Model) buildTemplates() {
	q := m.dialect.Quote
	table := q(m.table)
	pk := q(m.column(m.primaryKey))

	cols := make([]string, len(m.fields))
	sets := make([]string, len(m.fields))
	for i, f := range m.fields {
		cols[i] = q(m.column(f))
		sets[i] = cols[i] + "=?"
	}

	selectCols := append([]string{pk}, cols...)
	m.selectSQL = fmt.Sprintf("select %s from %s", strings.Join(selectCols, ", "), table)

	insertCols := append(append([]string(nil), cols...), pk)
	m.insertSQL = fmt.Sprintf("insert into %s (%s) values (%s)",
		table, strings.Join(insertCols, ", "), placeholders(len(m.fields)+1))

	if len(sets) > 0 {
		m.updateSQL = fmt.Sprintf("update %s set %s where %s=?", table, strings.Join(sets, ", "), pk)
	}
	m.deleteSQL = fmt.Sprintf("delete from %s where %s=?", table, pk)
}

// placeholders returns n comma-separated "?" markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (m *Model) column(attr string) string { return m.mappings[attr].column(attr) }

// Name returns the name the model was registered under.
func (m *Model) Name() string { return m.name }

// Table returns the table name.
func (m *Model) Table() string { return m.table }

// Dialect returns the dialect used for the templates.
func (m *Model) Dialect() Dialect { return m.dialect }

// PrimaryKey returns the primary key attribute.
func (m *Model) PrimaryKey() string { return m.primaryKey }

// Fields returns the non-key attributes in declaration order.
func (m *Model) Fields() []string { return append([]string(nil), m.fields...) }

// Mapping returns the descriptor for attr.
func (m *Model) Mapping(attr string) (Field, bool) {
	f, ok := m.mappings[attr]
	return f, ok
}

// SelectSQL returns the select template.
func (m *Model) SelectSQL() string { return m.selectSQL }

// InsertSQL returns the insert template. Its placeholders take the non-key
// fields in order, then the primary key.
func (m *Model) InsertSQL() string { return m.insertSQL }

// UpdateSQL returns the update template, or "" when the model has no non-key fields.
func (m *Model) UpdateSQL() string { return m.updateSQL }

// DeleteSQL returns the delete template.
func (m *Model) DeleteSQL() string { return m.deleteSQL }

// attrFor maps a result column back to its attribute name. Unknown columns
// (computed expressions, extra columns) keep their own name.
func (m *Model) attrFor(col string) string {
	if a, ok := m.byColumn[col]; ok {
		return a
	}
	return col
}
