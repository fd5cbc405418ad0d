// Package sqldoc implements docstore.Store on a SQL database that stores each document as a
// JSON column. Postgres (JSONB via pgx) and SQLite (JSON1 via modernc.org/sqlite) are supported
// through a Dialect. Transactions map to database/sql transactions and are always available.
package sqldoc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"teamhub/backend/internal/docstore"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a docstore.Store over a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New returns a Store using the given dialect. The caller owns db until Close.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// CreateTables creates one document table per collection if missing. Postgres deployments
// normally rely on cmd/migrate instead; SQLite databases are initialised here.
func (s *Store) CreateTables(ctx context.Context) error {
	for _, name := range docstore.Collections {
		if _, err := s.db.ExecContext(ctx, s.dialect.createTable(name)); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Session() docstore.Session {
	return session{q: s.db, d: s.dialect}
}

// SupportsTransactions is always true for SQL backends.
func (s *Store) SupportsTransactions(ctx context.Context) (bool, error) {
	return true, nil
}

func (s *Store) Begin(ctx context.Context) (docstore.Tx, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &tx{session: session{q: sqlTx, d: s.dialect}, tx: sqlTx}, nil
}

func (s *Store) EnsureIndexes(ctx context.Context, specs []docstore.IndexSpec) error {
	for _, spec := range specs {
		if !docstore.ValidIdent(spec.Collection) {
			return fmt.Errorf("sqldoc: invalid collection %q", spec.Collection)
		}
		exprs := make([]string, 0, len(spec.Fields))
		for _, f := range spec.Fields {
			if !docstore.ValidIdent(f) {
				return fmt.Errorf("sqldoc: invalid index field %q", f)
			}
			exprs = append(exprs, "("+s.dialect.field(f)+")")
		}
		q := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)", spec.Name(), spec.Collection, strings.Join(exprs, ", "))
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create index %s: %w", spec.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close(ctx context.Context) error { return s.db.Close() }

type tx struct {
	session
	tx *sql.Tx
}

func (t *tx) Commit(ctx context.Context) error { return t.tx.Commit() }

func (t *tx) Abort(ctx context.Context) error { return t.tx.Rollback() }

// End rolls back if the transaction is still open. sql.ErrTxDone means it already finished.
func (t *tx) End(ctx context.Context) {
	_ = t.tx.Rollback()
}

type session struct {
	q DBTX
	d Dialect
}

func (s session) Collection(name string) docstore.Collection {
	return &collection{q: s.q, d: s.d, table: name}
}

type collection struct {
	q     DBTX
	d     Dialect
	table string
}

func (c *collection) check() error {
	if !docstore.ValidIdent(c.table) {
		return fmt.Errorf("sqldoc: invalid collection %q", c.table)
	}
	return nil
}

func (c *collection) Insert(ctx context.Context, id string, doc any) error {
	if err := c.check(); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES (%s, %s)", c.table, c.d.placeholder(1), c.d.docParam(2))
	if _, err := c.q.ExecContext(ctx, q, id, string(raw)); err != nil {
		return c.mapErr(err)
	}
	return nil
}

func (c *collection) Get(ctx context.Context, id string, out any) error {
	if err := c.check(); err != nil {
		return err
	}
	q := fmt.Sprintf("SELECT doc FROM %s WHERE id = %s", c.table, c.d.placeholder(1))
	var raw []byte
	if err := c.q.QueryRowContext(ctx, q, id).Scan(&raw); err != nil {
		return c.mapErr(err)
	}
	return json.Unmarshal(raw, out)
}

func (c *collection) FindOne(ctx context.Context, f docstore.Filter, out any) error {
	where, args, err := c.where(f)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("SELECT doc FROM %s%s ORDER BY seq LIMIT 1", c.table, where)
	var raw []byte
	if err := c.q.QueryRowContext(ctx, q, args...).Scan(&raw); err != nil {
		return c.mapErr(err)
	}
	return json.Unmarshal(raw, out)
}

func (c *collection) Find(ctx context.Context, f docstore.Filter) ([]docstore.Document, error) {
	where, args, err := c.where(f)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT doc FROM %s%s ORDER BY seq", c.table, where)
	rows, err := c.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []docstore.Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		out = append(out, jsonDoc(raw))
	}
	return out, rows.Err()
}

func (c *collection) Replace(ctx context.Context, id string, doc any) error {
	if err := c.check(); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("UPDATE %s SET doc = %s WHERE id = %s", c.table, c.d.docParam(1), c.d.placeholder(2))
	res, err := c.q.ExecContext(ctx, q, string(raw), id)
	if err != nil {
		return c.mapErr(err)
	}
	return requireOne(res)
}

func (c *collection) Delete(ctx context.Context, id string) error {
	if err := c.check(); err != nil {
		return err
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE id = %s", c.table, c.d.placeholder(1))
	res, err := c.q.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	return requireOne(res)
}

func (c *collection) DeleteMany(ctx context.Context, f docstore.Filter) (int64, error) {
	where, args, err := c.where(f)
	if err != nil {
		return 0, err
	}
	res, err := c.q.ExecContext(ctx, "DELETE FROM "+c.table+where, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *collection) Count(ctx context.Context, f docstore.Filter) (int64, error) {
	where, args, err := c.where(f)
	if err != nil {
		return 0, err
	}
	var n int64
	err = c.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table+where, args...).Scan(&n)
	return n, err
}

// where builds a WHERE clause with fields in sorted order so queries are stable.
func (c *collection) where(f docstore.Filter) (string, []any, error) {
	if err := c.check(); err != nil {
		return "", nil, err
	}
	if err := docstore.CheckFilter(f); err != nil {
		return "", nil, err
	}
	if len(f) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		conds = append(conds, c.d.field(k)+" = "+c.d.placeholder(i+1))
		args = append(args, f[k])
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (c *collection) mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.ErrNotFound
	}
	if c.d.isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", docstore.ErrDuplicate, err)
	}
	return err
}

func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

type jsonDoc []byte

func (d jsonDoc) Decode(out any) error { return json.Unmarshal(d, out) }
