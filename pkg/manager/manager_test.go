package manager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/rdf"
	"github.com/matzehuels/isalabel/pkg/store"
)

const ns = "urn:test:"

func sub(child, parent string) rdf.Triple { return rdf.T(ns+child, rdf.SubClassOf, ns+parent) }

func subProp(child, parent string) rdf.Triple {
	return rdf.T(ns+child, rdf.SubPropertyOf, ns+parent)
}

// schema is Animal > Mammal > Dog, Animal > Pet > Dog, Animal > Bird, plus
// hasOwner ⊑ related and a metaclass Species typing Dog.
func schema() []rdf.Triple {
	return []rdf.Triple{
		sub("Mammal", "Animal"),
		sub("Dog", "Mammal"),
		sub("Dog", "Pet"),
		sub("Bird", "Animal"),
		sub("Pet", "Animal"),
		subProp("hasOwner", "related"),
		rdf.T(ns+"Dog", rdf.Type, ns+"Species"),
	}
}

func feed(t *testing.T, m LabelManager, triples []rdf.Triple) {
	t.Helper()
	for _, tr := range triples {
		require.NoError(t, m.AddTriple(tr))
	}
}

func ancestor(t *testing.T, m LabelManager, kind hierarchy.Kind, a, b string) bool {
	t.Helper()
	ok, err := m.IsFirstAncestorOfSecond(kind, a, b)
	require.NoError(t, err)
	return ok
}

func TestNonIncrementalAncestry(t *testing.T) {
	m, err := NewNonIncremental()
	require.NoError(t, err)
	feed(t, m, schema())

	rep, err := m.UpdateLabels(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Kinds, len(hierarchy.Kinds))
	assert.Positive(t, rep.Changed())

	tests := []struct {
		a, b string
		want bool
	}{
		{ns + "Animal", ns + "Dog", true},
		{ns + "Mammal", ns + "Dog", true},
		{ns + "Pet", ns + "Dog", true},
		{ns + "Dog", ns + "Dog", true},
		{ns + "Dog", ns + "Animal", false},
		{ns + "Bird", ns + "Dog", false},
		{ns + "Pet", ns + "Mammal", false},
		{rdf.Resource, ns + "Pet", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ancestor(t, m, hierarchy.KindClass, tt.a, tt.b), "%s ⊒ %s", tt.a, tt.b)
	}

	assert.True(t, ancestor(t, m, hierarchy.KindProperty, ns+"related", ns+"hasOwner"))
	assert.True(t, ancestor(t, m, hierarchy.KindProperty, rdf.TopProperty, ns+"related"))
	assert.True(t, ancestor(t, m, hierarchy.KindMetaclass, rdf.Class, ns+"Species"))
}

func TestNonIncrementalStaleness(t *testing.T) {
	ctx := context.Background()
	m, err := NewNonIncremental()
	require.NoError(t, err)
	feed(t, m, schema())

	_, err = m.IsFirstAncestorOfSecond(hierarchy.KindClass, ns+"Animal", ns+"Dog")
	assert.True(t, errors.Is(err, errors.ErrCodeStaleLabels), "got %v", err)

	_, err = m.UpdateLabels(ctx)
	require.NoError(t, err)
	rep, err := m.UpdateLabels(ctx)
	require.NoError(t, err)
	assert.Empty(t, rep.Kinds, "nothing to do without changes")

	require.NoError(t, m.AddTriple(sub("Dog", "Mammal")), "duplicate add")
	assert.True(t, ancestor(t, m, hierarchy.KindClass, ns+"Mammal", ns+"Dog"), "duplicates keep labels current")

	require.NoError(t, m.DeleteTriple(sub("Dog", "Pet")))
	_, err = m.LabelOf(hierarchy.KindClass, ns+"Dog")
	assert.True(t, errors.Is(err, errors.ErrCodeStaleLabels))

	_, err = m.UpdateLabels(ctx)
	require.NoError(t, err)
	assert.False(t, ancestor(t, m, hierarchy.KindClass, ns+"Pet", ns+"Dog"))
	assert.True(t, ancestor(t, m, hierarchy.KindClass, ns+"Mammal", ns+"Dog"))

	_, err = m.LabelOf(hierarchy.KindClass, ns+"Unicorn")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestAddTripleValidates(t *testing.T) {
	m, err := NewNonIncremental()
	require.NoError(t, err)
	err = m.AddTriple(rdf.T("not a uri", rdf.SubClassOf, ns+"A"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidTriple), "got %v", err)
}

func TestNonIncrementalCycle(t *testing.T) {
	m, err := NewNonIncremental()
	require.NoError(t, err)
	feed(t, m, []rdf.Triple{sub("A", "B"), sub("B", "C"), sub("C", "A")})

	rep, err := m.UpdateLabels(context.Background())
	require.NoError(t, err)
	var broken int
	for _, k := range rep.Kinds {
		if k.Kind == hierarchy.KindClass {
			broken = len(k.Broken)
		}
	}
	assert.Equal(t, 1, broken)
}

func TestIncrementalPersists(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	first, err := NewIncremental(st)
	require.NoError(t, err)
	feed(t, first, schema())
	_, err = first.UpdateLabels(ctx)
	require.NoError(t, err)

	saved, err := st.Load(ctx, hierarchy.KindClass)
	require.NoError(t, err)
	require.Contains(t, saved, ns+"Dog")

	lease, err := st.Acquire(ctx, hierarchy.KindClass)
	require.NoError(t, err)
	next, err := lease.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, lease.Rollback(ctx))
	assert.Greater(t, next, 0, "counter committed")

	// A second importer sees the same schema plus one class.
	second, err := NewIncremental(st)
	require.NoError(t, err)
	feed(t, second, append(schema(), sub("Puppy", "Dog")))
	rep, err := second.UpdateLabels(ctx)
	require.NoError(t, err)

	assert.True(t, ancestor(t, second, hierarchy.KindClass, ns+"Animal", ns+"Puppy"))
	assert.True(t, ancestor(t, second, hierarchy.KindClass, ns+"Pet", ns+"Puppy"))
	assert.False(t, ancestor(t, second, hierarchy.KindClass, ns+"Bird", ns+"Puppy"))

	var classChanges []hierarchy.Change
	for _, k := range rep.Kinds {
		if k.Kind == hierarchy.KindClass {
			classChanges = k.Changes
		}
	}
	require.NotEmpty(t, classChanges)
	var sawPuppy bool
	for _, c := range classChanges {
		if c.URI == ns+"Puppy" {
			sawPuppy = true
			assert.True(t, c.Old.IsEmpty())
		}
	}
	assert.True(t, sawPuppy)

	dog, err := second.LabelOf(hierarchy.KindClass, ns+"Dog")
	require.NoError(t, err)
	puppy, err := second.LabelOf(hierarchy.KindClass, ns+"Puppy")
	require.NoError(t, err)
	assert.True(t, dog.Tree().StrictlyContains(puppy.Tree()), "Puppy sits in Dog's subtree")
}

func TestIncrementalRerunIsNoop(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	first, err := NewIncremental(st)
	require.NoError(t, err)
	feed(t, first, schema())
	_, err = first.UpdateLabels(ctx)
	require.NoError(t, err)

	m, err := NewIncremental(st)
	require.NoError(t, err)
	feed(t, m, schema())
	rep, err := m.UpdateLabels(ctx)
	require.NoError(t, err)
	assert.Zero(t, rep.Changed())
}

func TestIncrementalRejectsDelete(t *testing.T) {
	m, err := NewIncremental(store.NewMemory())
	require.NoError(t, err)
	err = m.DeleteTriple(sub("A", "B"))
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported))
}

func TestIncrementalWaitsForLease(t *testing.T) {
	st := store.NewMemory()
	lease, err := st.Acquire(context.Background(), hierarchy.KindClass)
	require.NoError(t, err)
	defer lease.Rollback(context.Background())

	m, err := NewIncremental(st)
	require.NoError(t, err)
	feed(t, m, schema())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = m.UpdateLabels(ctx)
	assert.True(t, errors.Is(err, errors.ErrCodeLockTimeout), "got %v", err)

	_, err = m.IsFirstAncestorOfSecond(hierarchy.KindClass, ns+"Animal", ns+"Dog")
	assert.True(t, errors.Is(err, errors.ErrCodeStaleLabels), "failed update leaves labels stale")

	saved, err := st.Load(context.Background(), hierarchy.KindMetaclass)
	require.NoError(t, err)
	assert.Empty(t, saved, "no hierarchy is labeled while one lease is busy")
	assertLeaseFree(t, st, hierarchy.KindMetaclass)
}

// faultyStore wraps a memory store, failing Save or Load on demand and
// recording the context error every lease was released with.
type faultyStore struct {
	*store.Memory
	save func(hierarchy.Kind) error
	load func(hierarchy.Kind) error

	mu       sync.Mutex
	released []error
}

func (f *faultyStore) Save(ctx context.Context, kind hierarchy.Kind, labels hierarchy.MapLabels) error {
	if f.save != nil {
		if err := f.save(kind); err != nil {
			return err
		}
	}
	return f.Memory.Save(ctx, kind, labels)
}

func (f *faultyStore) Load(ctx context.Context, kind hierarchy.Kind) (hierarchy.MapLabels, error) {
	if f.load != nil {
		if err := f.load(kind); err != nil {
			return nil, err
		}
	}
	return f.Memory.Load(ctx, kind)
}

func (f *faultyStore) Acquire(ctx context.Context, kind hierarchy.Kind) (hierarchy.CounterLease, error) {
	lease, err := f.Memory.Acquire(ctx, kind)
	if err != nil {
		return nil, err
	}
	return &recordingLease{CounterLease: lease, store: f}, nil
}

type recordingLease struct {
	hierarchy.CounterLease
	store *faultyStore
}

func (l *recordingLease) Rollback(ctx context.Context) error {
	l.store.mu.Lock()
	l.store.released = append(l.store.released, ctx.Err())
	l.store.mu.Unlock()
	return l.CounterLease.Rollback(ctx)
}

func assertLeaseFree(t *testing.T, st hierarchy.CounterStore, kind hierarchy.Kind) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	lease, err := st.Acquire(ctx, kind)
	require.NoError(t, err, "%s lease released", kind)
	next, err := lease.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, lease.Rollback(ctx))
	return next
}

func TestIncrementalFailedSaveSavesNothing(t *testing.T) {
	ctx := context.Background()
	st := &faultyStore{
		Memory: store.NewMemory(),
		save: func(k hierarchy.Kind) error {
			if k == hierarchy.KindClass {
				return errors.New(errors.ErrCodeStorage, "disk full")
			}
			return nil
		},
	}
	m, err := NewIncremental(st)
	require.NoError(t, err)
	feed(t, m, schema())

	_, err = m.UpdateLabels(ctx)
	require.True(t, errors.Is(err, errors.ErrCodeStorage), "got %v", err)

	for _, kind := range hierarchy.Kinds {
		saved, err := st.Memory.Load(ctx, kind)
		require.NoError(t, err)
		assert.Empty(t, saved, "%s labels rolled back", kind)
		assert.Zero(t, assertLeaseFree(t, st.Memory, kind), "%s counter untouched", kind)
	}
	_, err = m.LabelOf(hierarchy.KindMetaclass, ns+"Species")
	assert.True(t, errors.Is(err, errors.ErrCodeStaleLabels))

	st.save = nil
	_, err = m.UpdateLabels(ctx)
	require.NoError(t, err)
	saved, err := st.Memory.Load(ctx, hierarchy.KindClass)
	require.NoError(t, err)
	assert.Contains(t, saved, ns+"Dog")
}

func TestIncrementalFailedSaveRestoresMovedLabels(t *testing.T) {
	ctx := context.Background()
	st := &faultyStore{Memory: store.NewMemory()}
	first, err := NewIncremental(st)
	require.NoError(t, err)
	feed(t, first, schema())
	_, err = first.UpdateLabels(ctx)
	require.NoError(t, err)
	before, err := st.Memory.Load(ctx, hierarchy.KindMetaclass)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	st.save = func(k hierarchy.Kind) error {
		if k == hierarchy.KindProperty {
			return errors.New(errors.ErrCodeStorage, "disk full")
		}
		return nil
	}
	second, err := NewIncremental(st)
	require.NoError(t, err)
	feed(t, second, append(schema(), rdf.T(ns+"Bird", rdf.Type, ns+"Genus"), sub("Puppy", "Dog")))
	_, err = second.UpdateLabels(ctx)
	require.Error(t, err)

	after, err := st.Memory.Load(ctx, hierarchy.KindMetaclass)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for uri, l := range before {
		assert.True(t, l.Equal(after[uri]), "%s: got %s, want %s", uri, after[uri], l)
	}
	classes, err := st.Memory.Load(ctx, hierarchy.KindClass)
	require.NoError(t, err)
	assert.NotContains(t, classes, ns+"Puppy")
}

func TestIncrementalReleasesLeasesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st := &faultyStore{
		Memory: store.NewMemory(),
		load: func(k hierarchy.Kind) error {
			if k == hierarchy.KindProperty {
				cancel()
				return errors.New(errors.ErrCodeStorage, "connection reset")
			}
			return nil
		},
	}
	m, err := NewIncremental(st)
	require.NoError(t, err)
	feed(t, m, schema())

	_, err = m.UpdateLabels(ctx)
	require.Error(t, err)

	st.mu.Lock()
	released := st.released
	st.mu.Unlock()
	require.Len(t, released, len(hierarchy.Kinds))
	for _, err := range released {
		assert.NoError(t, err, "lease released with a live context")
	}
	for _, kind := range hierarchy.Kinds {
		assertLeaseFree(t, st.Memory, kind)
	}
}
