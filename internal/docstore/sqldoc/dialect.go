package sqldoc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// pgUniqueViolation is the Postgres SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// Dialect captures the SQL differences between backends.
type Dialect struct {
	Name              string
	placeholder       func(n int) string
	docParam          func(n int) string
	field             func(name string) string
	createTable       func(table string) string
	isUniqueViolation func(err error) bool
}

// Postgres stores documents in JSONB columns.
var Postgres = Dialect{
	Name:        "postgres",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	docParam:    func(n int) string { return fmt.Sprintf("$%d::jsonb", n) },
	field:       func(name string) string { return "doc->>'" + name + "'" },
	createTable: func(table string) string {
		return "CREATE TABLE IF NOT EXISTS " + table + " (seq BIGSERIAL PRIMARY KEY, id TEXT NOT NULL UNIQUE, doc JSONB NOT NULL)"
	},
	isUniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
	},
}

// SQLite stores documents as TEXT and queries them with json_extract.
var SQLite = Dialect{
	Name:        "sqlite",
	placeholder: func(int) string { return "?" },
	docParam:    func(int) string { return "?" },
	field:       func(name string) string { return "json_extract(doc, '$." + name + "')" },
	createTable: func(table string) string {
		return "CREATE TABLE IF NOT EXISTS " + table + " (seq INTEGER PRIMARY KEY AUTOINCREMENT, id TEXT NOT NULL UNIQUE, doc TEXT NOT NULL)"
	},
	isUniqueViolation: func(err error) bool {
		var sqErr *sqlite.Error
		if errors.As(err, &sqErr) {
			code := sqErr.Code()
			return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
		}
		return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
	},
}
