package xorm

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"
)

// Mapper caches per-type struct indexes used by Decode, Encode and named binding.
type Mapper struct {
	structIndexCache sync.Map // key: reflect.Type -> *fieldIndex
}

func NewMapper() *Mapper { return &Mapper{} }

var (
	mapper     *Mapper
	mapperOnce sync.Once
)

func getMapper() *Mapper {
	mapperOnce.Do(func() { mapper = NewMapper() })
	return mapper
}

// Decode copies a record into a new T, which must be a struct (or pointer to
// struct) type. Fields bind by `db:"name"` tag, otherwise by case-insensitive
// field name; `db:",inline"` flattens nested structs and `db:"-"` skips a field.
// Keys without a matching field are ignored; fields without a key stay zero.
//
//	type User struct {
//	    ID   int64  `db:"id"`
//	    Name string `db:"name"`
//	}
//	rec, _ := users.Find(ctx, db, 3)
//	u, err := xorm.Decode[User](rec)
func Decode[T any](r *Record) (out T, err error) {
	rv := reflect.ValueOf(&out).Elem()
	target := rv
	if rv.Kind() == reflect.Pointer {
		target = reflect.New(rv.Type().Elem())
		rv.Set(target)
		target = target.Elem()
	}
	if target.Kind() != reflect.Struct {
		return out, fmt.Errorf("xorm: decode into %s: not a struct", rv.Type())
	}
	idx := getMapper().structIndex(target.Type())
	for key, val := range r.data {
		path, ok := idx.byName[toLowerAscii(key)]
		if !ok {
			continue
		}
		if err := assignValue(fieldByPathAlloc(target, path), val); err != nil {
			return out, fmt.Errorf("xorm: decode %q: %w", key, err)
		}
	}
	return out, nil
}

// DecodeAll decodes every record with Decode.
func DecodeAll[T any](rs []*Record) ([]T, error) {
	out := make([]T, 0, len(rs))
	for _, r := range rs {
		v, err := Decode[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Encode builds a record from a struct using Decode's field rules. Only
// declared attributes are copied; nil pointer fields are left unset so their
// defaults apply on Save.
func (m *Model) Encode(v any) (*Record, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("xorm: encode %s: nil value", m.name)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("xorm: encode %s: %s is not a struct", m.name, rv.Type())
	}
	idx := getMapper().structIndex(rv.Type())
	r := m.New(nil)
	for attr := range m.mappings {
		path, ok := idx.byName[toLowerAscii(attr)]
		if !ok {
			continue
		}
		fv, ok := fieldByPath(rv, path)
		if !ok {
			continue
		}
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		r.data[attr] = fv.Interface()
	}
	return r, nil
}

// ---------------- Struct indexing & tags ----------------

type fieldIndex struct {
	byName map[string][]int // lower-case name -> index path
}

func (m *Mapper) structIndex(rt reflect.Type) *fieldIndex {
	if v, ok := m.structIndexCache.Load(rt); ok {
		return v.(*fieldIndex)
	}
	fi := buildStructIndex(rt)
	v, _ := m.structIndexCache.LoadOrStore(rt, &fi)
	return v.(*fieldIndex)
}

func buildStructIndex(rt reflect.Type) fieldIndex {
	idx := fieldIndex{byName: make(map[string][]int)}

	var walk func(t reflect.Type, base []int, forceInline bool)
	walk = func(t reflect.Type, base []int, forceInline bool) {
		t = derefPtr(t)
		if t.Kind() != reflect.Struct {
			return
		}
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous {
				continue
			}
			tag := sf.Tag.Get("db")
			name, inline, omit := parseTag(tag)
			if omit {
				continue
			}
			path := append(append([]int(nil), base...), i)

			if inline || (sf.Anonymous && (forceInline || tag == "")) {
				if isStruct(sf.Type) && !isLeafStruct(sf.Type) {
					walk(sf.Type, path, inline)
					continue
				}
			}
			if sf.PkgPath != "" {
				continue
			}
			if name == "" {
				name = sf.Name
			}
			lc := toLowerAscii(name)
			if _, ok := idx.byName[lc]; !ok {
				idx.byName[lc] = path
			}
		}
	}
	walk(rt, nil, false)
	return idx
}

// parseTag supports: "-", "col", ",inline", "col,inline", "inline,col".
func parseTag(tag string) (name string, inline bool, omit bool) {
	if tag == "-" {
		return "", false, true
	}
	start := 0
	for i := 0; i <= len(tag); i++ {
		if i == len(tag) || tag[i] == ',' {
			part := tag[start:i]
			if part == "inline" {
				inline = true
			} else if part != "" && name == "" {
				name = part
			}
			start = i + 1
		}
	}
	return name, inline, false
}

// fieldByPath walks fpath for reading. It reports false when a nil embedded
// pointer makes the field unreachable.
func fieldByPath(root reflect.Value, fpath []int) (reflect.Value, bool) {
	v := root
	for _, i := range fpath {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v, true
}

// fieldByPathAlloc walks fpath, allocating nil embedded pointers so the final field is settable.
func fieldByPathAlloc(root reflect.Value, fpath []int) reflect.Value {
	v := root
	for _, i := range fpath {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// ---------------- Value assignment ----------------

var (
	timeType    = reflect.TypeOf(time.Time{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// assignValue stores a record value into dst, converting between the driver's
// value shapes (int64, float64, bool, string, []byte, time.Time, nil) and the
// field's type.
func assignValue(dst reflect.Value, src any) error {
	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(src)
	}
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assignValue(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	b, isBytes := src.([]byte)
	if isBytes && dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.Uint8 {
		dst.SetBytes(append([]byte(nil), b...))
		return nil
	}
	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}
	if isBytes {
		src, sv = string(b), reflect.ValueOf(string(b))
	}

	switch dst.Kind() {
	case reflect.String:
		switch s := src.(type) {
		case string:
			dst.SetString(s)
		case time.Time:
			dst.SetString(s.Format(time.RFC3339Nano))
		default:
			dst.SetString(fmt.Sprint(src))
		}
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := asInt(sv)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := asInt(sv)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := asFloat(sv)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
		return nil
	case reflect.Bool:
		switch sv.Kind() {
		case reflect.Bool:
			dst.SetBool(sv.Bool())
			return nil
		case reflect.String:
			b, err := strconv.ParseBool(sv.String())
			if err != nil {
				return err
			}
			dst.SetBool(b)
			return nil
		}
		n, err := asInt(sv)
		if err != nil {
			return err
		}
		dst.SetBool(n != 0)
		return nil
	case reflect.Struct:
		if dst.Type() == timeType {
			if s, ok := src.(string); ok {
				t, err := parseTime(s)
				if err != nil {
					return err
				}
				dst.Set(reflect.ValueOf(t))
				return nil
			}
		}
	}
	if sv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
}

func asInt(v reflect.Value) (int64, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return int64(v.Float()), nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.String:
		return strconv.ParseInt(v.String(), 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %s to integer", v.Type())
}

func asFloat(v reflect.Value) (float64, error) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		return strconv.ParseFloat(v.String(), 64)
	}
	n, err := asInt(v)
	return float64(n), err
}

// parseTime accepts the layouts MySQL returns for DATETIME/DATE columns
// when parseTime is off, plus RFC 3339.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}

// ---------------- Type helpers ----------------

func isStruct(t reflect.Type) bool { return derefPtr(t).Kind() == reflect.Struct }

// isLeafStruct reports struct types that map to a single column.
func isLeafStruct(t reflect.Type) bool {
	t = derefPtr(t)
	return t == timeType || reflect.PointerTo(t).Implements(scannerType)
}

func derefPtr(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func toLowerAscii(s string) string {
	var need bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			need = true
			break
		}
	}
	if !need {
		return s
	}
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c = c + ('a' - 'A')
		}
		b[i] = c
	}
	return string(b)
}
