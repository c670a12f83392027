package store

import (
	"context"

	"github.com/matzehuels/isalabel/pkg/hierarchy"
)

// Null is a [Store] that never persists anything. Every Load is empty and
// every lease starts from zero.
type Null struct{}

// NewNull creates a null store.
func NewNull() Store {
	return Null{}
}

// Load always returns no labels.
func (Null) Load(context.Context, hierarchy.Kind) (hierarchy.MapLabels, error) {
	return hierarchy.MapLabels{}, nil
}

// Save does nothing.
func (Null) Save(context.Context, hierarchy.Kind, hierarchy.MapLabels) error {
	return nil
}

// Delete does nothing.
func (Null) Delete(context.Context, hierarchy.Kind, []string) error {
	return nil
}

// Acquire returns a lease that is never contended.
func (Null) Acquire(context.Context, hierarchy.Kind) (hierarchy.CounterLease, error) {
	return nullLease{}, nil
}

// Close does nothing.
func (Null) Close() error {
	return nil
}

type nullLease struct{}

func (nullLease) Load(context.Context) (int, error) { return 0, nil }
func (nullLease) Commit(context.Context, int) error { return nil }
func (nullLease) Rollback(context.Context) error { return nil }

// Ensure Null implements Store.
var _ Store = Null{}
