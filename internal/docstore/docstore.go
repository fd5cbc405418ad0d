// Package docstore defines the document-store capability the rest of the backend depends on.
//
// A Store hands out Sessions. A Session gives access to named collections of JSON/BSON
// documents keyed by string ID. A Tx is a Session whose writes commit or roll back together;
// whether a Store can open one is a runtime property queried with SupportsTransactions.
//
// Backends live in sub-packages: memory, sqldoc (Postgres JSONB and SQLite), mongodb.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no document matches an ID or filter.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("docstore: duplicate key")
	// ErrTransactionsUnsupported is returned by Begin on stores that cannot open atomic scopes.
	ErrTransactionsUnsupported = errors.New("docstore: transactions not supported")
)

// Filter matches documents whose top-level string fields equal the given values.
// An empty filter matches every document in the collection.
type Filter map[string]string

// Document is a stored document not yet decoded into a Go value.
type Document interface {
	Decode(out any) error
}

// Collection is a set of documents sharing a schema.
type Collection interface {
	// Insert stores doc under id. Returns ErrDuplicate on a unique-index violation.
	Insert(ctx context.Context, id string, doc any) error
	// Get decodes the document with the given id into out. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string, out any) error
	// FindOne decodes the first document matching f into out. Returns ErrNotFound if none match.
	FindOne(ctx context.Context, f Filter, out any) error
	// Find returns every document matching f in insertion order.
	Find(ctx context.Context, f Filter) ([]Document, error)
	// Replace overwrites the document with the given id. Returns ErrNotFound if absent
	// and ErrDuplicate on a unique-index violation.
	Replace(ctx context.Context, id string, doc any) error
	// Delete removes the document with the given id. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
	// DeleteMany removes every document matching f and returns how many were removed.
	DeleteMany(ctx context.Context, f Filter) (int64, error)
	// Count returns the number of documents matching f.
	Count(ctx context.Context, f Filter) (int64, error)
}

// Session is a handle through which collections are read and written.
// Repositories are constructed from a Session so every write goes through an explicit handle.
type Session interface {
	Collection(name string) Collection
}

// Tx is an atomic scope. Writes made through it become visible to other sessions only after Commit.
// End must be called on every path; it rolls back when neither Commit nor Abort succeeded.
type Tx interface {
	Session
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
	End(ctx context.Context)
}

// Store is a document database.
type Store interface {
	// Session returns a non-transactional session. Each write is applied immediately.
	Session() Session
	// SupportsTransactions reports whether Begin can open an atomic scope right now
	// (for example, a MongoDB replica set versus a standalone node).
	SupportsTransactions(ctx context.Context) (bool, error)
	// Begin opens an atomic scope. Returns ErrTransactionsUnsupported when the store cannot.
	Begin(ctx context.Context) (Tx, error)
	// EnsureIndexes creates the given unique indexes if they do not exist.
	EnsureIndexes(ctx context.Context, specs []IndexSpec) error
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// DecodeAll decodes every document into a new T.
func DecodeAll[T any](docs []Document) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, d := range docs {
		v := new(T)
		if err := d.Decode(v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GetByID returns the document with the given id, or nil if not found.
// It returns an error only for store failures, not for missing documents.
func GetByID[T any](ctx context.Context, c Collection, id string) (*T, error) {
	v := new(T)
	if err := c.Get(ctx, id, v); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// FindFirst returns the first document matching f, or nil if none match.
func FindFirst[T any](ctx context.Context, c Collection, f Filter) (*T, error) {
	v := new(T)
	if err := c.FindOne(ctx, f, v); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// FindAll returns every document matching f.
func FindAll[T any](ctx context.Context, c Collection, f Filter) ([]*T, error) {
	docs, err := c.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	return DecodeAll[T](docs)
}
