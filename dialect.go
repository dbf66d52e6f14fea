package xorm

import "strings"

// Dialect is the adaptation point for a target database: how identifiers are
// quoted in generated templates and which positional marker the driver expects.
type Dialect struct {
	Name        string
	Placeholder Placeholder
	quote       byte
}

var (
	// MySQL quotes identifiers with backticks and keeps "?" markers.
	MySQL = Dialect{Name: "mysql", Placeholder: PlaceholderQuestion, quote: '`'}
	// ANSI quotes identifiers with double quotes and uses $n markers (PostgreSQL).
	ANSI = Dialect{Name: "ansi", Placeholder: PlaceholderDollar, quote: '"'}
)

// Quote quotes an identifier, doubling any embedded quote character.
func (d Dialect) Quote(ident string) string {
	q := d.quote
	if q == 0 {
		q = '`'
	}
	var b strings.Builder
	b.Grow(len(ident) + 2)
	b.WriteByte(q)
	for i := 0; i < len(ident); i++ {
		if ident[i] == q {
			b.WriteByte(q)
		}
		b.WriteByte(ident[i])
	}
	b.WriteByte(q)
	return b.String()
}

// DialectFor picks a Dialect from a driver name, defaulting to MySQL.
func DialectFor(driverName string) Dialect {
	if PlaceholderFor(driverName) == PlaceholderDollar {
		return ANSI
	}
	return MySQL
}
