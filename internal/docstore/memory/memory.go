// Package memory is an in-process docstore.Store used by tests and local development.
// Documents are held as JSON. Transaction support can be toggled at runtime so both
// provisioning strategies can be exercised against the same store.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"teamhub/backend/internal/docstore"
)

var errTxDone = errors.New("memory: transaction already finished")

type entry struct {
	seq int64
	raw []byte
}

type state struct {
	next   int64
	tables map[string]map[string]entry
}

func newState() *state {
	return &state{tables: make(map[string]map[string]entry)}
}

func (s *state) clone() *state {
	c := &state{next: s.next, tables: make(map[string]map[string]entry, len(s.tables))}
	for name, t := range s.tables {
		ct := make(map[string]entry, len(t))
		for id, e := range t {
			ct[id] = e
		}
		c.tables[name] = ct
	}
	return c
}

func (s *state) table(name string) map[string]entry {
	t, ok := s.tables[name]
	if !ok {
		t = make(map[string]entry)
		s.tables[name] = t
	}
	return t
}

// Store is an in-memory document store. The zero value is not usable; call New.
type Store struct {
	mu            sync.RWMutex
	st            *state
	indexes       []docstore.IndexSpec
	transactional bool
	commitErr     error
}

// Option configures a Store.
type Option func(*Store)

// WithTransactions sets whether Begin can open atomic scopes.
func WithTransactions(enabled bool) Option {
	return func(s *Store) { s.transactional = enabled }
}

// New returns an empty store with the default unique indexes.
func New(opts ...Option) *Store {
	s := &Store{st: newState(), indexes: append([]docstore.IndexSpec(nil), docstore.UniqueIndexes...), transactional: true}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetTransactional toggles transaction support. The change is seen by the next capability probe.
func (s *Store) SetTransactional(enabled bool) {
	s.mu.Lock()
	s.transactional = enabled
	s.mu.Unlock()
}

// FailNextCommit makes the next Commit return err without applying any writes.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	s.commitErr = err
	s.mu.Unlock()
}

func (s *Store) Session() docstore.Session { return &session{store: s} }

func (s *Store) SupportsTransactions(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transactional, nil
}

func (s *Store) Begin(ctx context.Context) (docstore.Tx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.transactional {
		return nil, docstore.ErrTransactionsUnsupported
	}
	return &tx{store: s, work: s.st.clone()}, nil
}

func (s *Store) EnsureIndexes(ctx context.Context, specs []docstore.IndexSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, spec := range specs {
		if !hasIndex(s.indexes, spec) {
			s.indexes = append(s.indexes, spec)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close(ctx context.Context) error { return nil }

func hasIndex(list []docstore.IndexSpec, spec docstore.IndexSpec) bool {
	for _, x := range list {
		if x.Name() == spec.Name() {
			return true
		}
	}
	return false
}

// op is a logged write replayed onto the committed state at Commit.
type op struct {
	kind       string
	collection string
	id         string
	raw        []byte
	filter     docstore.Filter
}

type session struct {
	store *Store
}

func (se *session) Collection(name string) docstore.Collection {
	return &collection{name: name, apply: func(fn func(st *state, idx []docstore.IndexSpec) error, write bool) error {
		if write {
			se.store.mu.Lock()
			defer se.store.mu.Unlock()
		} else {
			se.store.mu.RLock()
			defer se.store.mu.RUnlock()
		}
		return fn(se.store.st, se.store.indexes)
	}}
}

type tx struct {
	mu    sync.Mutex
	store *Store
	work  *state
	ops   []op
	done  bool
}

func (t *tx) Collection(name string) docstore.Collection {
	return &collection{name: name, log: t.record, apply: func(fn func(st *state, idx []docstore.IndexSpec) error, write bool) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.done {
			return errTxDone
		}
		t.store.mu.RLock()
		idx := t.store.indexes
		t.store.mu.RUnlock()
		return fn(t.work, idx)
	}}
}

// record is called from inside apply, with t.mu held.
func (t *tx) record(o op) {
	t.ops = append(t.ops, o)
}

func (t *tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return errTxDone
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if err := t.store.commitErr; err != nil {
		t.store.commitErr = nil
		return err
	}
	next := t.store.st.clone()
	for _, o := range t.ops {
		if err := replay(next, t.store.indexes, o); err != nil {
			return err
		}
	}
	t.store.st = next
	t.done = true
	return nil
}

func (t *tx) Abort(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return errTxDone
	}
	t.done = true
	t.ops = nil
	return nil
}

func (t *tx) End(ctx context.Context) {
	t.mu.Lock()
	t.done = true
	t.ops = nil
	t.mu.Unlock()
}

func replay(st *state, idx []docstore.IndexSpec, o op) error {
	switch o.kind {
	case "insert":
		return insert(st, idx, o.collection, o.id, o.raw)
	case "replace":
		return replace(st, idx, o.collection, o.id, o.raw)
	case "delete":
		return remove(st, o.collection, o.id)
	case "deleteMany":
		_, err := removeMany(st, o.collection, o.filter)
		return err
	}
	return fmt.Errorf("memory: unknown op %q", o.kind)
}

type collection struct {
	name  string
	apply func(fn func(st *state, idx []docstore.IndexSpec) error, write bool) error
	log   func(op)
}

func (c *collection) logOp(o op) {
	if c.log != nil {
		c.log(o)
	}
}

func (c *collection) Insert(ctx context.Context, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.apply(func(st *state, idx []docstore.IndexSpec) error {
		if err := insert(st, idx, c.name, id, raw); err != nil {
			return err
		}
		c.logOp(op{kind: "insert", collection: c.name, id: id, raw: raw})
		return nil
	}, true)
}

func (c *collection) Get(ctx context.Context, id string, out any) error {
	return c.apply(func(st *state, _ []docstore.IndexSpec) error {
		e, ok := st.tables[c.name][id]
		if !ok {
			return docstore.ErrNotFound
		}
		return json.Unmarshal(e.raw, out)
	}, false)
}

func (c *collection) FindOne(ctx context.Context, f docstore.Filter, out any) error {
	docs, err := c.Find(ctx, f)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return docstore.ErrNotFound
	}
	return docs[0].Decode(out)
}

func (c *collection) Find(ctx context.Context, f docstore.Filter) ([]docstore.Document, error) {
	var out []docstore.Document
	err := c.apply(func(st *state, _ []docstore.IndexSpec) error {
		for _, e := range sorted(st.tables[c.name]) {
			ok, err := matches(e.raw, f)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, rawDoc(e.raw))
			}
		}
		return nil
	}, false)
	return out, err
}

func (c *collection) Replace(ctx context.Context, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.apply(func(st *state, idx []docstore.IndexSpec) error {
		if err := replace(st, idx, c.name, id, raw); err != nil {
			return err
		}
		c.logOp(op{kind: "replace", collection: c.name, id: id, raw: raw})
		return nil
	}, true)
}

func (c *collection) Delete(ctx context.Context, id string) error {
	return c.apply(func(st *state, _ []docstore.IndexSpec) error {
		if err := remove(st, c.name, id); err != nil {
			return err
		}
		c.logOp(op{kind: "delete", collection: c.name, id: id})
		return nil
	}, true)
}

func (c *collection) DeleteMany(ctx context.Context, f docstore.Filter) (int64, error) {
	var n int64
	err := c.apply(func(st *state, _ []docstore.IndexSpec) error {
		var err error
		n, err = removeMany(st, c.name, f)
		if err == nil && n > 0 {
			c.logOp(op{kind: "deleteMany", collection: c.name, filter: f})
		}
		return err
	}, true)
	return n, err
}

func (c *collection) Count(ctx context.Context, f docstore.Filter) (int64, error) {
	docs, err := c.Find(ctx, f)
	return int64(len(docs)), err
}

type rawDoc []byte

func (d rawDoc) Decode(out any) error { return json.Unmarshal(d, out) }

func insert(st *state, idx []docstore.IndexSpec, name, id string, raw []byte) error {
	t := st.table(name)
	if _, exists := t[id]; exists {
		return docstore.ErrDuplicate
	}
	if err := checkUnique(t, idx, name, id, raw); err != nil {
		return err
	}
	st.next++
	t[id] = entry{seq: st.next, raw: raw}
	return nil
}

func replace(st *state, idx []docstore.IndexSpec, name, id string, raw []byte) error {
	t := st.table(name)
	e, ok := t[id]
	if !ok {
		return docstore.ErrNotFound
	}
	if err := checkUnique(t, idx, name, id, raw); err != nil {
		return err
	}
	t[id] = entry{seq: e.seq, raw: raw}
	return nil
}

func remove(st *state, name, id string) error {
	t := st.table(name)
	if _, ok := t[id]; !ok {
		return docstore.ErrNotFound
	}
	delete(t, id)
	return nil
}

func removeMany(st *state, name string, f docstore.Filter) (int64, error) {
	t := st.table(name)
	var n int64
	for id, e := range t {
		ok, err := matches(e.raw, f)
		if err != nil {
			return n, err
		}
		if ok {
			delete(t, id)
			n++
		}
	}
	return n, nil
}

func sorted(t map[string]entry) []entry {
	out := make([]entry, 0, len(t))
	for _, e := range t {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func matches(raw []byte, f docstore.Filter) (bool, error) {
	if len(f) == 0 {
		return true, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return false, err
	}
	for k, want := range f {
		v, ok := m[k].(string)
		if !ok || v != want {
			return false, nil
		}
	}
	return true, nil
}

func checkUnique(t map[string]entry, idx []docstore.IndexSpec, name, id string, raw []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for _, spec := range idx {
		if spec.Collection != name {
			continue
		}
		key, ok := indexKey(doc, spec.Fields)
		if !ok {
			continue
		}
		for otherID, e := range t {
			if otherID == id {
				continue
			}
			var other map[string]any
			if err := json.Unmarshal(e.raw, &other); err != nil {
				return err
			}
			if k, ok := indexKey(other, spec.Fields); ok && k == key {
				return fmt.Errorf("%w: %s", docstore.ErrDuplicate, spec.Name())
			}
		}
	}
	return nil
}

// indexKey returns the composite key for fields; documents missing any field are not indexed.
func indexKey(doc map[string]any, fields []string) (string, bool) {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v, ok := doc[f]
		if !ok || v == nil {
			return "", false
		}
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, "\x00"), true
}
