package store

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/observability"
)

// Memory is an in-process [Store]. It is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	labels   map[hierarchy.Kind]hierarchy.MapLabels
	counters map[hierarchy.Kind]int
	locks    map[hierarchy.Kind]chan struct{}
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		labels:   make(map[hierarchy.Kind]hierarchy.MapLabels),
		counters: make(map[hierarchy.Kind]int),
		locks:    make(map[hierarchy.Kind]chan struct{}),
	}
}

// Load returns a copy of the labels saved for kind.
func (m *Memory) Load(ctx context.Context, kind hierarchy.Kind) (hierarchy.MapLabels, error) {
	start := time.Now()
	m.mu.Lock()
	out := CloneLabels(m.labels[kind])
	m.mu.Unlock()
	observability.Store().OnLoad(ctx, "memory", kind.String(), len(out), time.Since(start), nil)
	return out, nil
}

// Save upserts a copy of labels.
func (m *Memory) Save(ctx context.Context, kind hierarchy.Kind, labels hierarchy.MapLabels) error {
	start := time.Now()
	m.mu.Lock()
	cur := m.labels[kind]
	if cur == nil {
		cur = make(hierarchy.MapLabels, len(labels))
		m.labels[kind] = cur
	}
	for uri, l := range labels {
		if l != nil {
			cur[uri] = l.Clone()
		}
	}
	m.mu.Unlock()
	observability.Store().OnSave(ctx, "memory", kind.String(), len(labels), time.Since(start), nil)
	return nil
}

// Delete removes the labels of uris.
func (m *Memory) Delete(ctx context.Context, kind hierarchy.Kind, uris []string) error {
	m.mu.Lock()
	for _, uri := range uris {
		delete(m.labels[kind], uri)
	}
	m.mu.Unlock()
	return nil
}

// Acquire takes the counter lock of kind, waiting until it is free or ctx
// ends.
func (m *Memory) Acquire(ctx context.Context, kind hierarchy.Kind) (hierarchy.CounterLease, error) {
	m.mu.Lock()
	lock, ok := m.locks[kind]
	if !ok {
		lock = make(chan struct{}, 1)
		m.locks[kind] = lock
	}
	m.mu.Unlock()

	start := time.Now()
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrCodeLockTimeout, ctx.Err(), "acquire %s counter", kind)
	}
	observability.Store().OnLockAcquired(ctx, "memory", kind.String(), time.Since(start))
	return &memoryLease{store: m, kind: kind, lock: lock}, nil
}

// Close does nothing.
func (m *Memory) Close() error { return nil }

type memoryLease struct {
	store *Memory
	kind  hierarchy.Kind
	lock  chan struct{}
	done  bool
}

func (l *memoryLease) Load(context.Context) (int, error) {
	if l.done {
		return 0, errors.New(errors.ErrCodeInternal, "%s lease already released", l.kind)
	}
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return l.store.counters[l.kind], nil
}

func (l *memoryLease) Commit(_ context.Context, next int) error {
	if l.done {
		return errors.New(errors.ErrCodeInternal, "%s lease already released", l.kind)
	}
	l.store.mu.Lock()
	l.store.counters[l.kind] = next
	l.store.mu.Unlock()
	l.release()
	return nil
}

func (l *memoryLease) Rollback(context.Context) error {
	if !l.done {
		l.release()
	}
	return nil
}

func (l *memoryLease) release() {
	l.done = true
	<-l.lock
}

// Ensure Memory implements Store.
var _ Store = (*Memory)(nil)
