// Package redisstore is a Redis-backed [store.Store].
//
// Label snapshots of a kind live in one hash (URI → JSON label). The
// counter is a plain integer key. The counter lock is a key set with NX and
// a TTL, holding a random token; it is released by a script that deletes
// the key only if it still holds that token.
package redisstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/label"
	"github.com/matzehuels/isalabel/pkg/observability"
	"github.com/matzehuels/isalabel/pkg/store"
)

// DefaultLockTTL bounds how long a crashed importer can block others.
const DefaultLockTTL = 5 * time.Minute

var (
	// KEYS[1]=lock ARGV[1]=token
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	// KEYS[1]=lock KEYS[2]=counter ARGV[1]=token ARGV[2]=next
	commitScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2])
redis.call("DEL", KEYS[1])
return 1`)
)

// Store persists labels and counters in Redis.
type Store struct {
	client redis.UniversalClient
	keys   store.Keyspace
	ttl    time.Duration
	logger *log.Logger
	owned  bool
}

// Option configures a [Store].
type Option func(*Store)

// WithKeyspace sets the key prefix.
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

// New wraps an existing client. Close does not close it.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		keys:   store.DefaultKeyspace,
		ttl:    DefaultLockTTL,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to the server at addr and checks it answers.
func Open(ctx context.Context, addr string, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to redis at %s", addr)
	}
	s := New(client, opts...)
	s.owned = true
	return s, nil
}

// Load reads the label hash of kind.
func (s *Store) Load(ctx context.Context, kind hierarchy.Kind) (hierarchy.MapLabels, error) {
	start := time.Now()
	labels, err := s.load(ctx, kind)
	observability.Store().OnLoad(ctx, "redis", kind.String(), len(labels), time.Since(start), err)
	return labels, err
}

func (s *Store) load(ctx context.Context, kind hierarchy.Kind) (hierarchy.MapLabels, error) {
	raw, err := s.client.HGetAll(ctx, s.keys.Labels(kind)).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load %s labels", kind)
	}
	labels := make(hierarchy.MapLabels, len(raw))
	for uri, data := range raw {
		var l label.Label
		if err := json.Unmarshal([]byte(data), &l); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode %s label of %s", kind, uri)
		}
		labels[uri] = &l
	}
	return labels, nil
}

// Save writes labels into the label hash of kind.
func (s *Store) Save(ctx context.Context, kind hierarchy.Kind, labels hierarchy.MapLabels) error {
	start := time.Now()
	err := s.save(ctx, kind, labels)
	observability.Store().OnSave(ctx, "redis", kind.String(), len(labels), time.Since(start), err)
	return err
}

func (s *Store) save(ctx context.Context, kind hierarchy.Kind, labels hierarchy.MapLabels) error {
	if len(labels) == 0 {
		return nil
	}
	fields := make(map[string]any, len(labels))
	for uri, l := range labels {
		if l == nil {
			continue
		}
		data, err := json.Marshal(l)
		if err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "encode %s label of %s", kind, uri)
		}
		fields[uri] = data
	}
	if err := s.client.HSet(ctx, s.keys.Labels(kind), fields).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save %s labels", kind)
	}
	return nil
}

// Delete removes uris from the label hash of kind.
func (s *Store) Delete(ctx context.Context, kind hierarchy.Kind, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.keys.Labels(kind), uris...).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete %s labels", kind)
	}
	return nil
}

// Acquire sets the lock key of kind, polling until it is free or ctx ends.
func (s *Store) Acquire(ctx context.Context, kind hierarchy.Kind) (hierarchy.CounterLease, error) {
	start := time.Now()
	token := uuid.NewString()
	key := s.keys.Lock(kind)

	err := store.RetryWithBackoff(ctx, func() error {
		ok, err := s.client.SetNX(ctx, key, token, s.ttl).Result()
		switch {
		case err != nil:
			return errors.Wrap(errors.ErrCodeStorage, err, "lock %s counter", kind)
		case !ok:
			return store.Retryable(store.ErrLocked)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	wait := time.Since(start)
	s.logger.Debug("counter locked", "kind", kind, "wait", wait)
	observability.Store().OnLockAcquired(ctx, "redis", kind.String(), wait)
	return &lease{store: s, kind: kind, token: token}, nil
}

// Close closes the client if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

type lease struct {
	store *Store
	kind  hierarchy.Kind
	token string
	done  bool
}

func (l *lease) Load(ctx context.Context) (int, error) {
	if l.done {
		return 0, errors.New(errors.ErrCodeInternal, "%s lease already released", l.kind)
	}
	next, err := l.store.client.Get(ctx, l.store.keys.Counter(l.kind)).Int()
	if stderrors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "read %s counter", l.kind)
	}
	return next, nil
}

func (l *lease) Commit(ctx context.Context, next int) error {
	if l.done {
		return errors.New(errors.ErrCodeInternal, "%s lease already released", l.kind)
	}
	l.done = true
	keys := []string{l.store.keys.Lock(l.kind), l.store.keys.Counter(l.kind)}
	n, err := commitScript.Run(ctx, l.store.client, keys, l.token, next).Int()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "commit %s counter", l.kind)
	}
	if n == 0 {
		return errors.New(errors.ErrCodeLockTimeout, "%s counter lock expired before commit", l.kind)
	}
	return nil
}

func (l *lease) Rollback(ctx context.Context) error {
	if l.done {
		return nil
	}
	l.done = true
	if err := releaseScript.Run(ctx, l.store.client, []string{l.store.keys.Lock(l.kind)}, l.token).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "release %s counter lock", l.kind)
	}
	return nil
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
