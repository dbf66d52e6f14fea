package xorm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_GetSetValue(t *testing.T) {
	m := MustRegister("user", userAttrs())
	r := m.New(map[string]any{"id": int64(3)})

	v, err := r.Get("id")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	_, err = r.Get("name")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAttributeNotFound))
	assert.Contains(t, err.Error(), `"name"`)
	assert.Nil(t, r.Value("name"))

	// Undeclared attributes are stored as well.
	r.Set("nickname", "bobby")
	v, err = r.Get("nickname")
	require.NoError(t, err)
	assert.Equal(t, "bobby", v)
	assert.True(t, r.Has("nickname"))
	assert.Equal(t, []string{"id", "nickname"}, r.Keys())

	r.Delete("nickname")
	assert.False(t, r.Has("nickname"))
	assert.Equal(t, int64(3), r.PrimaryKey())
	assert.Same(t, m, r.Model())
}

func TestRecord_NewCopiesValues(t *testing.T) {
	m := MustRegister("user", userAttrs())
	src := map[string]any{"id": 1}
	r := m.New(src)
	src["id"] = 2
	assert.Equal(t, 1, r.Value("id"))

	out := r.Map()
	out["id"] = 3
	assert.Equal(t, 1, r.Value("id"))

	assert.Empty(t, m.New(nil).Keys())
}

func TestRecord_ValueOrDefault_Static(t *testing.T) {
	m := MustRegister("user", userAttrs())
	r := m.New(nil)

	assert.False(t, r.Has("name"))
	assert.Equal(t, "anon", r.ValueOrDefault("name"))
	assert.True(t, r.Has("name"), "default must be stored on the record")
	assert.Equal(t, "anon", r.ValueOrDefault("name"))
	assert.Equal(t, "anon", r.Value("name"))
}

func TestRecord_ValueOrDefault_Producer(t *testing.T) {
	calls := 0
	m := MustRegister("user", []Attribute{
		Attr("id", StringField(PrimaryKey(), Default(func() any {
			calls++
			return "generated-id"
		}))),
	})
	r := m.New(nil)

	assert.Equal(t, "generated-id", r.ValueOrDefault("id"))
	assert.Equal(t, "generated-id", r.Value("id"))
	assert.Equal(t, "generated-id", r.ValueOrDefault("id"))
	assert.Equal(t, 1, calls, "stored value must not re-invoke the producer")
}

func TestRecord_ValueOrDefault_NilAndExplicit(t *testing.T) {
	m := MustRegister("post", []Attribute{
		Attr("id", IntegerField(PrimaryKey())),
		Attr("body", TextField()),
		Attr("title", StringField(Default("untitled"))),
	})

	r := m.New(map[string]any{"title": "hello"})
	assert.Equal(t, "hello", r.ValueOrDefault("title"))

	// nil default: nothing stored.
	assert.Nil(t, r.ValueOrDefault("body"))
	assert.False(t, r.Has("body"))

	// explicit nil counts as unset.
	r.Set("title", nil)
	assert.Equal(t, "untitled", r.ValueOrDefault("title"))

	// integer default.
	assert.Equal(t, int64(0), r.ValueOrDefault("id"))

	// unmapped keys resolve to nil.
	assert.Nil(t, r.ValueOrDefault("unknown"))
}
