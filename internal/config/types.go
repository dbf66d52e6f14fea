// Package config loads xorm CLI settings: the connection pool and the
// declarative model definitions.
package config

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-mizu/xorm"
	"github.com/go-mizu/xorm/pool"
)

// Config holds all CLI configuration options.
type Config struct {
	Database pool.Config `koanf:"database"`
	Verbose  bool        `koanf:"verbose"`
	Models   []ModelSpec `koanf:"models"`
}

// ModelSpec declares one model.
type ModelSpec struct {
	Name   string      `koanf:"name"`
	Table  string      `koanf:"table"`
	Fields []FieldSpec `koanf:"fields"`
}

// FieldSpec declares one attribute. Kind is one of string, integer,
// boolean, float or text.
type FieldSpec struct {
	Attr       string `koanf:"attr"`
	Kind       string `koanf:"kind"`
	Column     string `koanf:"column"`
	DDL        string `koanf:"ddl"`
	PrimaryKey bool   `koanf:"primary_key"`
	Default    any    `koanf:"default"`
}

var fieldKinds = map[string]func(...xorm.FieldOption) xorm.Field{
	"string":  xorm.StringField,
	"integer": xorm.IntegerField,
	"boolean": xorm.BooleanField,
	"float":   xorm.FloatField,
	"text":    xorm.TextField,
}

// Field builds the descriptor declared by f.
func (f FieldSpec) Field() (xorm.Field, error) {
	ctor, ok := fieldKinds[f.Kind]
	if !ok {
		return xorm.Field{}, fmt.Errorf("field %q: unknown kind %q", f.Attr, f.Kind)
	}
	var opts []xorm.FieldOption
	if f.PrimaryKey {
		opts = append(opts, xorm.PrimaryKey())
	}
	if f.Column != "" {
		opts = append(opts, xorm.Column(f.Column))
	}
	if f.DDL != "" {
		opts = append(opts, xorm.DDL(f.DDL))
	}
	if f.Default != nil {
		opts = append(opts, xorm.Default(f.Default))
	}
	return ctor(opts...), nil
}

// Register registers the declared model.
func (s ModelSpec) Register(logger *slog.Logger) (*xorm.Model, error) {
	attrs := make([]xorm.Attribute, 0, len(s.Fields))
	for _, fs := range s.Fields {
		f, err := fs.Field()
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", s.Name, err)
		}
		attrs = append(attrs, xorm.Attr(fs.Attr, f))
	}
	opts := []xorm.ModelOption{xorm.WithModelLogger(logger)}
	if s.Table != "" {
		opts = append(opts, xorm.WithTable(s.Table))
	}
	return xorm.Register(s.Name, attrs, opts...)
}

// Registry maps model names to registered models.
type Registry map[string]*xorm.Model

// Names returns the model names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Registry registers every configured model.
func (c *Config) Registry(logger *slog.Logger) (Registry, error) {
	reg := make(Registry, len(c.Models))
	for _, s := range c.Models {
		if _, dup := reg[s.Name]; dup {
			return nil, fmt.Errorf("model %q declared twice", s.Name)
		}
		m, err := s.Register(logger)
		if err != nil {
			return nil, err
		}
		reg[s.Name] = m
	}
	return reg, nil
}
