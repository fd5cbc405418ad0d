// Package mongodb implements docstore.Store on MongoDB. Multi-document transactions are only
// available on replica sets and sharded clusters; SupportsTransactions asks the server.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"teamhub/backend/internal/docstore"
)

// Store wraps a connected client and database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and pings the primary. Caller must call Close when done.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("MONGO_URI is not set")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Session() docstore.Session {
	return session{db: s.db}
}

// SupportsTransactions runs the hello command. A replica set member reports setName and a
// mongos router reports msg "isdbgrid"; a standalone server reports neither.
func (s *Store) SupportsTransactions(ctx context.Context) (bool, error) {
	var reply bson.M
	if err := s.client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&reply); err != nil {
		return false, fmt.Errorf("mongo hello: %w", err)
	}
	return topologySupportsTransactions(reply), nil
}

func topologySupportsTransactions(reply bson.M) bool {
	if name, ok := reply["setName"].(string); ok && name != "" {
		return true
	}
	msg, _ := reply["msg"].(string)
	return msg == "isdbgrid"
}

func (s *Store) Begin(ctx context.Context) (docstore.Tx, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	if err := sess.StartTransaction(); err != nil {
		sess.EndSession(ctx)
		return nil, fmt.Errorf("start transaction: %w", err)
	}
	return &tx{session: session{db: s.db, sess: sess}, sess: sess}, nil
}

func (s *Store) EnsureIndexes(ctx context.Context, specs []docstore.IndexSpec) error {
	for _, spec := range specs {
		keys := bson.D{}
		for _, f := range spec.Fields {
			keys = append(keys, bson.E{Key: f, Value: 1})
		}
		model := mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true).SetName(spec.Name())}
		if _, err := s.db.Collection(spec.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index %s: %w", spec.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

func (s *Store) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

type tx struct {
	session
	sess mongo.Session
}

func (t *tx) Commit(ctx context.Context) error { return t.sess.CommitTransaction(ctx) }

func (t *tx) Abort(ctx context.Context) error { return t.sess.AbortTransaction(ctx) }

// End aborts any transaction still in progress and releases the server session.
func (t *tx) End(ctx context.Context) { t.sess.EndSession(ctx) }

type session struct {
	db   *mongo.Database
	sess mongo.Session
}

func (s session) Collection(name string) docstore.Collection {
	return &collection{c: s.db.Collection(name), sess: s.sess}
}

type collection struct {
	c    *mongo.Collection
	sess mongo.Session
}

// bind attaches the server session so the operation joins the open transaction.
func (c *collection) bind(ctx context.Context) context.Context {
	if c.sess == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, c.sess)
}

func (c *collection) Insert(ctx context.Context, id string, doc any) error {
	if _, err := c.c.InsertOne(c.bind(ctx), doc); err != nil {
		return mapErr(err)
	}
	return nil
}

func (c *collection) Get(ctx context.Context, id string, out any) error {
	return mapErr(c.c.FindOne(c.bind(ctx), bson.M{"_id": id}).Decode(out))
}

func (c *collection) FindOne(ctx context.Context, f docstore.Filter, out any) error {
	return mapErr(c.c.FindOne(c.bind(ctx), toBSON(f)).Decode(out))
}

func (c *collection) Find(ctx context.Context, f docstore.Filter) ([]docstore.Document, error) {
	ctx = c.bind(ctx)
	cur, err := c.c.Find(ctx, toBSON(f))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []docstore.Document
	for cur.Next(ctx) {
		raw := make(bson.Raw, len(cur.Current))
		copy(raw, cur.Current)
		out = append(out, bsonDoc(raw))
	}
	return out, cur.Err()
}

func (c *collection) Replace(ctx context.Context, id string, doc any) error {
	res, err := c.c.ReplaceOne(c.bind(ctx), bson.M{"_id": id}, doc)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (c *collection) Delete(ctx context.Context, id string) error {
	res, err := c.c.DeleteOne(c.bind(ctx), bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (c *collection) DeleteMany(ctx context.Context, f docstore.Filter) (int64, error) {
	res, err := c.c.DeleteMany(c.bind(ctx), toBSON(f))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c *collection) Count(ctx context.Context, f docstore.Filter) (int64, error) {
	return c.c.CountDocuments(c.bind(ctx), toBSON(f))
}

func toBSON(f docstore.Filter) bson.M {
	m := bson.M{}
	for k, v := range f {
		m[k] = v
	}
	return m
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return docstore.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", docstore.ErrDuplicate, err)
	}
	return err
}

type bsonDoc bson.Raw

func (d bsonDoc) Decode(out any) error { return bson.Unmarshal(d, out) }
