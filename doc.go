/*
Package xorm is a minimal model-mapping layer over database/sql for
MySQL-compatible databases. You declare a model's fields once; xorm
precomputes its select, insert, update and delete statements and binds
records to them.

# Models

A model is registered from an ordered list of attributes. Exactly one must be
the primary key:

	var users = xorm.MustRegister("user", []xorm.Attribute{
	    xorm.Attr("id", xorm.IntegerField(xorm.PrimaryKey())),
	    xorm.Attr("name", xorm.StringField(xorm.Default("anon"))),
	    xorm.Attr("created_at", xorm.FloatField(xorm.Default(func() any { return float64(time.Now().Unix()) }))),
	})

Registration builds the templates immediately:

	select `id`, `name`, `created_at` from `user`
	insert into `user` (`name`, `created_at`, `id`) values (?, ?, ?)
	update `user` set `name`=?, `created_at`=? where `id`=?
	delete from `user` where `id`=?

The primary key is always bound last in insert and update.

# Records

A Record is a map-backed row keyed by attribute name. Get fails with
ErrAttributeNotFound for missing keys, Value returns nil, and ValueOrDefault
resolves the attribute's default (calling it when it is a producer) and stores
it on the record. Decode and Model.Encode convert between records and
`db`-tagged structs.

# Executing

Persistence operations take a context and an explicit *DB handle wrapping the
connection pool:

	db := xorm.New(sqlDB)
	u := users.New(map[string]any{"id": 7})
	n, err := u.Save(ctx, db)        // name resolves to "anon"
	rec, err := users.Find(ctx, db, 7)
	all, err := users.FindAll(ctx, db, xorm.Where("`name`=?", "bob"), xorm.OrderBy("`id` desc"), xorm.Limit(10))

Save, Update and Remove log a warning when they do not affect exactly one row
and return the count; they do not fail. CheckAffected converts the count into
an error for callers that need it.

# Placeholders and quoting

Templates use "?" markers and dialect-quoted identifiers (backticks for
MySQL). A DB created WithPlaceholder rewrites the markers into the driver's
native style, skipping quoted strings, identifiers and comments.
*/
package xorm
