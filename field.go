package xorm

import (
	"fmt"
	"reflect"
)

// FieldKind names the descriptor variant a Field was built with.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInteger
	KindBoolean
	KindFloat
	KindText
)

var kindNames = [...]string{
	KindString:  "StringField",
	KindInteger: "IntegerField",
	KindBoolean: "BooleanField",
	KindFloat:   "FloatField",
	KindText:    "TextField",
}

func (k FieldKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
	return kindNames[k]
}

// Field describes one mapped column.
//
// Default is either a literal value, nil, or a producer: a function taking no
// arguments and returning one value (func() any, func() string, func() time.Time,
// ...). Producers are invoked each time a default has to be resolved.
type Field struct {
	Kind       FieldKind
	Name       string // column name; empty means the attribute name
	Type       string // SQL column type
	PrimaryKey bool
	Default    any
}

// FieldOption configures a Field built by one of the constructors.
type FieldOption func(*Field)

// PrimaryKey marks the field as the model's primary key.
// BooleanField and TextField ignore it.
func PrimaryKey() FieldOption { return func(f *Field) { f.PrimaryKey = true } }

// Default sets the field's default value or producer.
func Default(v any) FieldOption { return func(f *Field) { f.Default = v } }

// Column overrides the column name.
func Column(name string) FieldOption { return func(f *Field) { f.Name = name } }

// DDL overrides the SQL type. BooleanField and TextField ignore it.
func DDL(sqlType string) FieldOption { return func(f *Field) { f.Type = sqlType } }

func newField(kind FieldKind, sqlType string, def any, opts []FieldOption) Field {
	f := Field{Kind: kind, Type: sqlType, Default: def}
	for _, o := range opts {
		o(&f)
	}
	return f
}

// StringField maps a varchar(20) column with no default.
func StringField(opts ...FieldOption) Field {
	return newField(KindString, "varchar(20)", nil, opts)
}

// IntegerField maps a bigint column defaulting to 0.
func IntegerField(opts ...FieldOption) Field {
	return newField(KindInteger, "bigint", int64(0), opts)
}

// BooleanField maps a boolean column defaulting to false. It is never a primary key.
func BooleanField(opts ...FieldOption) Field {
	f := newField(KindBoolean, "boolean", false, opts)
	f.Type = "boolean"
	f.PrimaryKey = false
	return f
}

// FloatField maps a real column defaulting to 0.0.
func FloatField(opts ...FieldOption) Field {
	return newField(KindFloat, "real", 0.0, opts)
}

// TextField maps a text column with no default. It is never a primary key.
func TextField(opts ...FieldOption) Field {
	f := newField(KindText, "text", nil, opts)
	f.Type = "text"
	f.PrimaryKey = false
	return f
}

// String renders the descriptor for debugging, e.g. "<IntegerField, bigint:id>".
func (f Field) String() string {
	return fmt.Sprintf("<%s, %s:%s>", f.Kind, f.Type, f.Name)
}

// column returns the column name for attribute attr.
func (f Field) column(attr string) string {
	if f.Name != "" {
		return f.Name
	}
	return attr
}

// resolveDefault returns the field's default, invoking it when it is a producer.
func (f Field) resolveDefault() any {
	if f.Default == nil {
		return nil
	}
	if p, ok := f.Default.(func() any); ok && p != nil {
		return p()
	}
	rv := reflect.ValueOf(f.Default)
	if rv.Kind() == reflect.Func && rv.Type().NumIn() == 0 && rv.Type().NumOut() == 1 {
		if rv.IsNil() {
			return nil
		}
		return rv.Call(nil)[0].Interface()
	}
	return f.Default
}

// Attribute is one entry of a model declaration: an attribute name and its
// descriptor. Declaration order is preserved.
type Attribute struct {
	Name  string
	Field Field
}

// Attr is shorthand for Attribute{Name: name, Field: f}.
func Attr(name string, f Field) Attribute { return Attribute{Name: name, Field: f} }
