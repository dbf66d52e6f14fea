package xorm

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Placeholder selects the positional parameter style for a target database.
//
// Templates are always written with "?"; the DB rewrites them before transport:
//   - PlaceholderQuestion   → "?"           (MySQL, SQLite)
//   - PlaceholderDollar     → "$1, $2, …"  (PostgreSQL)
//   - PlaceholderAtP        → "@p1, @p2…"  (SQL Server)
//   - PlaceholderColonNum   → ":1, :2, …"  (Oracle)
type Placeholder int

const (
	PlaceholderQuestion Placeholder = iota
	PlaceholderDollar
	PlaceholderAtP
	PlaceholderColonNum
)

// ErrNilParams is returned when named binding is requested with a nil pointer.
var ErrNilParams = errors.New("xorm: named bind: nil params")

// ErrMixedParams is returned when a query bound with named parameters also
// contains positional "?" markers.
var ErrMixedParams = errors.New("xorm: named bind: query mixes ? markers with :name parameters")

// ErrUnsupportedArg is returned when named parameters are bound from something
// other than a struct or map[string]any.
var ErrUnsupportedArg = errors.New("xorm: named bind: params must be struct or map[string]any")

// PlaceholderFor picks a Placeholder based on a driver name string.
func PlaceholderFor(driverName string) Placeholder {
	switch strings.ToLower(driverName) {
	case "pgx", "postgres", "postgresql", "lib/pq", "pg":
		return PlaceholderDollar
	case "sqlserver", "mssql":
		return PlaceholderAtP
	case "godror", "oracle", "goracle":
		return PlaceholderColonNum
	default:
		return PlaceholderQuestion
	}
}

// Rebind resolves :named parameters when params is exactly one struct or
// map[string]any, then rewrites "?" markers into ph. Any other params are
// treated as positional and returned unchanged. A named query must not also
// carry "?" markers outside quoted text; that fails with ErrMixedParams.
//
//	q, args, err := xorm.Rebind("select * from `user` where `name`=:name", xorm.PlaceholderQuestion,
//	    map[string]any{"name": "bob"})
//	// q    => select * from `user` where `name`=?
//	// args => ["bob"]
//
// Slices expand to one marker per element; an empty slice becomes NULL.
func Rebind(query string, ph Placeholder, params ...any) (string, []any, error) {
	if len(params) == 1 && isNamedParams(params[0]) {
		q, args, err := bindNamed(query, params[0])
		if err != nil {
			return "", nil, err
		}
		return rewritePlaceholders(q, ph), args, nil
	}
	return rewritePlaceholders(query, ph), params, nil
}

// segment is a run of SQL text. Quoted segments (string literals, quoted
// identifiers, comments, dollar-quoted bodies) are never rewritten.
type segment struct {
	text   string
	quoted bool
}

func splitSQL(query string) ([]segment, error) {
	var out []segment
	start, i := 0, 0
	flush := func(end int) {
		if end > start {
			out = append(out, segment{text: query[start:end]})
		}
	}
	for i < len(query) {
		var (
			end int
			err error
			hit = true
		)
		switch c := query[i]; {
		case c == '\'' || c == '"' || c == '`':
			end, err = skipQuoted(query, i+1, c)
		case c == '-' && strings.HasPrefix(query[i:], "--"):
			end = skipLineComment(query, i+2)
		case c == '/' && strings.HasPrefix(query[i:], "/*"):
			end, err = skipBlockComment(query, i+2)
		case c == '$':
			end, hit, err = skipDollarQuoted(query, i)
		default:
			hit = false
		}
		if err != nil {
			return nil, err
		}
		if !hit {
			i++
			continue
		}
		flush(i)
		out = append(out, segment{text: query[i:end], quoted: true})
		start, i = end, end
	}
	flush(len(query))
	return out, nil
}

func rewritePlaceholders(query string, ph Placeholder) string {
	if ph == PlaceholderQuestion || !strings.Contains(query, "?") {
		return query
	}
	segs, err := splitSQL(query)
	if err != nil {
		// Leave malformed SQL for the driver to reject.
		return query
	}
	out := make([]byte, 0, len(query)+16)
	arg := 1
	for _, s := range segs {
		if s.quoted {
			out = append(out, s.text...)
			continue
		}
		for j := 0; j < len(s.text); j++ {
			if s.text[j] != '?' {
				out = append(out, s.text[j])
				continue
			}
			switch ph {
			case PlaceholderDollar:
				out = append(out, '$')
			case PlaceholderAtP:
				out = append(out, '@', 'p')
			case PlaceholderColonNum:
				out = append(out, ':')
			}
			out = strconv.AppendInt(out, int64(arg), 10)
			arg++
		}
	}
	return string(out)
}

func isNamedParams(v any) bool {
	switch v.(type) {
	case nil, time.Time, *time.Time, driver.Valuer:
		return false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Map {
		return rv.Type().Key().Kind() == reflect.String
	}
	return rv.Kind() == reflect.Struct
}

func bindNamed(query string, params any) (string, []any, error) {
	if params == nil {
		return "", nil, ErrNilParams
	}
	segs, err := splitSQL(query)
	if err != nil {
		return "", nil, err
	}
	var lut map[string]any
	var b strings.Builder
	b.Grow(len(query))
	var args []any
	positional := false

	for _, s := range segs {
		if s.quoted {
			b.WriteString(s.text)
			continue
		}
		t := s.text
		for i := 0; i < len(t); {
			if t[i] != ':' {
				positional = positional || t[i] == '?'
				b.WriteByte(t[i])
				i++
				continue
			}
			if strings.HasPrefix(t[i:], "::") {
				b.WriteString("::")
				i += 2
				continue
			}
			name, end := parseIdent(t, i+1)
			if name == "" {
				b.WriteByte(':')
				i++
				continue
			}
			if lut == nil {
				if lut, err = paramLookup(params); err != nil {
					return "", nil, err
				}
			}
			val, ok := lut[strings.ToLower(name)]
			if !ok {
				return "", nil, fmt.Errorf("xorm: named bind: missing value for :%s", name)
			}
			args = appendBound(&b, args, val)
			i = end
		}
	}
	if positional {
		return "", nil, ErrMixedParams
	}
	if lut == nil {
		return query, nil, nil
	}
	return b.String(), args, nil
}

// appendBound writes markers for val and appends its arguments. Slices and
// arrays (except []byte) expand element-wise.
func appendBound(b *strings.Builder, args []any, val any) []any {
	rv := reflect.ValueOf(val)
	expand := rv.IsValid() && (rv.Kind() == reflect.Array ||
		(rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8))
	if !expand {
		b.WriteByte('?')
		return append(args, val)
	}
	if rv.Len() == 0 {
		b.WriteString("NULL")
		return args
	}
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('?')
		args = append(args, rv.Index(i).Interface())
	}
	return args
}

// paramLookup flattens a map[string]any or struct into lower-cased names.
// Struct fields follow the same db tag rules as Decode.
func paramLookup(params any) (map[string]any, error) {
	rv := reflect.ValueOf(params)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, ErrNilParams
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, ErrUnsupportedArg
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[strings.ToLower(iter.Key().String())] = iter.Value().Interface()
		}
		return m, nil
	case reflect.Struct:
		idx := getMapper().structIndex(rv.Type())
		m := make(map[string]any, len(idx.byName))
		for name, path := range idx.byName {
			fv, ok := fieldByPath(rv, path)
			if !ok {
				continue
			}
			m[name] = fv.Interface()
		}
		return m, nil
	default:
		return nil, ErrUnsupportedArg
	}
}

func skipQuoted(s string, i int, q byte) (int, error) {
	for i < len(s) {
		c := s[i]
		i++
		if c == q {
			if i < len(s) && s[i] == q {
				i++
				continue
			}
			return i, nil
		}
	}
	return 0, fmt.Errorf("xorm: unterminated %c-quoted text", q)
}

func skipLineComment(s string, i int) int {
	if j := strings.IndexByte(s[i:], '\n'); j >= 0 {
		return i + j + 1
	}
	return len(s)
}

func skipBlockComment(s string, i int) (int, error) {
	if j := strings.Index(s[i:], "*/"); j >= 0 {
		return i + j + 2, nil
	}
	return 0, fmt.Errorf("xorm: unterminated block comment")
}

// skipDollarQuoted handles $$...$$ and $tag$...$tag$ (PostgreSQL). A "$"
// that does not open such a block (e.g. "$1") is not a hit.
func skipDollarQuoted(s string, i int) (int, bool, error) {
	j := i + 1
	for j < len(s) && s[j] != '$' && isTagChar(rune(s[j])) {
		j++
	}
	if j >= len(s) || s[j] != '$' {
		return 0, false, nil
	}
	if j > i+1 && unicode.IsDigit(rune(s[i+1])) {
		return 0, false, nil
	}
	tag := s[i : j+1]
	k := strings.Index(s[j+1:], tag)
	if k < 0 {
		return 0, true, fmt.Errorf("xorm: unterminated dollar-quoted string")
	}
	return j + 1 + k + len(tag), true, nil
}

func isTagChar(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

func parseIdent(s string, i int) (string, int) {
	start := i
	for i < len(s) {
		r, w := utf8.DecodeRuneInString(s[i:])
		if !isTagChar(r) {
			break
		}
		i += w
	}
	return s[start:i], i
}
