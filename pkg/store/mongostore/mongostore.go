// Package mongostore is a MongoDB-backed [store.Store].
//
// Labels are stored as rows of (child_index, child_post, parent_post, uri).
// A node's tree label is the row whose parent_post is null; each propagated
// label is a row whose parent_post is the post of the node that holds it.
// Counters and counter locks live in their own collections, a lock being a
// document with a unique _id and an expiry.
package mongostore

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/interval"
	"github.com/matzehuels/isalabel/pkg/label"
	"github.com/matzehuels/isalabel/pkg/observability"
	"github.com/matzehuels/isalabel/pkg/store"
)

// Collection names.
const (
	LabelsCollection   = "labels"
	CountersCollection = "counters"
	LocksCollection    = "locks"
)

// DefaultLockTTL bounds how long a crashed importer can block others.
const DefaultLockTTL = 5 * time.Minute

// row is one stored interval.
type row struct {
	Namespace  string `bson:"ns"`
	Kind       string `bson:"kind"`
	URI        string `bson:"uri"`
	ChildIndex int    `bson:"child_index"`
	ChildPost  int    `bson:"child_post"`
	ParentPost *int   `bson:"parent_post"`
	Direct     bool   `bson:"direct,omitempty"`
}

type counterDoc struct {
	ID   string `bson:"_id"`
	Next int    `bson:"next"`
}

type lockDoc struct {
	ID        string    `bson:"_id"`
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Store persists labels and counters in MongoDB.
type Store struct {
	client   *mongo.Client
	labels   *mongo.Collection
	counters *mongo.Collection
	locks    *mongo.Collection
	keys     store.Keyspace
	ttl      time.Duration
	logger   *log.Logger
	owned    bool
}

// Option configures a [Store].
type Option func(*Store)

// WithKeyspace sets the namespace of rows, counters and locks.
func WithKeyspace(k store.Keyspace) Option {
	return func(s *Store) { s.keys = k }
}

// WithLockTTL sets the expiry of counter locks.
func WithLockTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New uses db of an existing client and creates the indexes the store
// relies on. Close does not disconnect the client.
func New(ctx context.Context, db *mongo.Database, opts ...Option) (*Store, error) {
	s := &Store{
		client:   db.Client(),
		labels:   db.Collection(LabelsCollection),
		counters: db.Collection(CountersCollection),
		locks:    db.Collection(LocksCollection),
		keys:     store.DefaultKeyspace,
		ttl:      DefaultLockTTL,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	_, err := s.labels.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ns", Value: 1}, {Key: "kind", Value: 1}, {Key: "uri", Value: 1}},
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create label index")
	}
	return s, nil
}

// Open connects to uri and uses database.
func Open(ctx context.Context, uri, database string, opts ...Option) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}
	s, err := New(ctx, client.Database(database), opts...)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	s.owned = true
	return s, nil
}

func (s *Store) filter(kind hierarchy.Kind) bson.M {
	return bson.M{"ns": s.keys.Prefix, "kind": kind.String()}
}

// Load reads every row of kind and rebuilds the labels.
func (s *Store) Load(ctx context.Context, kind hierarchy.Kind) (hierarchy.MapLabels, error) {
	start := time.Now()
	labels, err := s.load(ctx, kind)
	observability.Store().OnLoad(ctx, "mongo", kind.String(), len(labels), time.Since(start), err)
	return labels, err
}

func (s *Store) load(ctx context.Context, kind hierarchy.Kind) (hierarchy.MapLabels, error) {
	cur, err := s.labels.Find(ctx, s.filter(kind))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load %s labels", kind)
	}
	var rows []row
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode %s labels", kind)
	}

	snaps := make(map[string]*label.Snapshot)
	for _, r := range rows {
		snap, ok := snaps[r.URI]
		if !ok {
			snap = &label.Snapshot{Tree: interval.Empty}
			snaps[r.URI] = snap
		}
		iv := interval.New(r.ChildIndex, r.ChildPost)
		switch {
		case r.ParentPost == nil:
			snap.Tree = iv
		case r.Direct:
			snap.Direct = append(snap.Direct, iv)
		default:
			snap.Indirect = append(snap.Indirect, iv)
		}
	}

	labels := make(hierarchy.MapLabels, len(snaps))
	for uri, snap := range snaps {
		l, err := label.FromSnapshot(*snap)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "rebuild %s label of %s", kind, uri)
		}
		labels[uri] = l
	}
	return labels, nil
}

// Save replaces the rows of every URI in labels.
func (s *Store) Save(ctx context.Context, kind hierarchy.Kind, labels hierarchy.MapLabels) error {
	start := time.Now()
	err := s.save(ctx, kind, labels)
	observability.Store().OnSave(ctx, "mongo", kind.String(), len(labels), time.Since(start), err)
	return err
}

func (s *Store) save(ctx context.Context, kind hierarchy.Kind, labels hierarchy.MapLabels) error {
	var models []mongo.WriteModel
	for uri, l := range labels {
		if l == nil {
			continue
		}
		f := s.filter(kind)
		f["uri"] = uri
		models = append(models, mongo.NewDeleteManyModel().SetFilter(f))
		for _, r := range s.rows(kind, uri, l) {
			models = append(models, mongo.NewInsertOneModel().SetDocument(r))
		}
	}
	if len(models) == 0 {
		return nil
	}
	if _, err := s.labels.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save %s labels", kind)
	}
	return nil
}

// Delete removes every row of uris.
func (s *Store) Delete(ctx context.Context, kind hierarchy.Kind, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	f := s.filter(kind)
	f["uri"] = bson.M{"$in": uris}
	if _, err := s.labels.DeleteMany(ctx, f); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete %s labels", kind)
	}
	return nil
}

func (s *Store) rows(kind hierarchy.Kind, uri string, l *label.Label) []row {
	base := row{Namespace: s.keys.Prefix, Kind: kind.String(), URI: uri}
	tree := l.Tree()
	rows := make([]row, 0, 1+len(l.Propagated()))
	if !tree.IsEmpty() {
		r := base
		r.ChildIndex, r.ChildPost = tree.Index, tree.Post
		rows = append(rows, r)
	}
	add := func(ivs []interval.Interval, direct bool) {
		for _, iv := range ivs {
			r := base
			r.ChildIndex, r.ChildPost = iv.Index, iv.Post
			parent := tree.Post
			r.ParentPost = &parent
			r.Direct = direct
			rows = append(rows, r)
		}
	}
	add(l.Direct(), true)
	add(l.Indirect(), false)
	return rows
}

// Acquire inserts the lock document of kind, polling until it succeeds or
// ctx ends. Expired locks are removed while polling.
func (s *Store) Acquire(ctx context.Context, kind hierarchy.Kind) (hierarchy.CounterLease, error) {
	start := time.Now()
	token := uuid.NewString()
	id := s.keys.Lock(kind)

	err := store.RetryWithBackoff(ctx, func() error {
		_, err := s.locks.InsertOne(ctx, lockDoc{ID: id, Token: token, ExpiresAt: time.Now().Add(s.ttl)})
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return errors.Wrap(errors.ErrCodeStorage, err, "lock %s counter", kind)
		}
		res, err := s.locks.DeleteOne(ctx, bson.M{"_id": id, "expires_at": bson.M{"$lt": time.Now()}})
		if err == nil && res.DeletedCount > 0 {
			s.logger.Warn("broke expired counter lock", "kind", kind)
		}
		return store.Retryable(store.ErrLocked)
	})
	if err != nil {
		return nil, err
	}
	wait := time.Since(start)
	s.logger.Debug("counter locked", "kind", kind, "wait", wait)
	observability.Store().OnLockAcquired(ctx, "mongo", kind.String(), wait)
	return &lease{store: s, kind: kind, id: id, token: token}, nil
}

// Close disconnects the client if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

type lease struct {
	store *Store
	kind  hierarchy.Kind
	id    string
	token string
	done  bool
}

func (l *lease) Load(ctx context.Context) (int, error) {
	if l.done {
		return 0, errors.New(errors.ErrCodeInternal, "%s lease already released", l.kind)
	}
	var doc counterDoc
	err := l.store.counters.FindOne(ctx, bson.M{"_id": l.store.keys.Counter(l.kind)}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "read %s counter", l.kind)
	}
	return doc.Next, nil
}

func (l *lease) Commit(ctx context.Context, next int) error {
	if l.done {
		return errors.New(errors.ErrCodeInternal, "%s lease already released", l.kind)
	}
	l.done = true

	n, err := l.store.locks.CountDocuments(ctx, bson.M{"_id": l.id, "token": l.token})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "check %s counter lock", l.kind)
	}
	if n == 0 {
		return errors.New(errors.ErrCodeLockTimeout, "%s counter lock expired before commit", l.kind)
	}
	_, err = l.store.counters.UpdateOne(ctx,
		bson.M{"_id": l.store.keys.Counter(l.kind)},
		bson.M{"$set": bson.M{"next": next}},
		options.Update().SetUpsert(true))
	if err != nil {
		_ = l.release(ctx)
		return errors.Wrap(errors.ErrCodeStorage, err, "commit %s counter", l.kind)
	}
	return l.release(ctx)
}

func (l *lease) Rollback(ctx context.Context) error {
	if l.done {
		return nil
	}
	l.done = true
	return l.release(ctx)
}

func (l *lease) release(ctx context.Context) error {
	if _, err := l.store.locks.DeleteOne(ctx, bson.M{"_id": l.id, "token": l.token}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "release %s counter lock", l.kind)
	}
	return nil
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
