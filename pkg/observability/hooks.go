// Package observability provides hooks for metrics, tracing, and logging.
//
// Labeling and storage code emit events through globally registered hooks
// that default to no-ops, so libraries carry no dependency on a particular
// metrics or tracing backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLabelingHooks(&myLabelingHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Labeling().OnPassStart(ctx, "class", len(roots))
//	// ... label ...
//	observability.Labeling().OnPassComplete(ctx, "class", stats, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Labeling Hooks
// =============================================================================

// PassStats summarizes one labeling pass.
type PassStats struct {
	NewRoots   int
	Relabels   int
	Shifted    int
	Overflowed bool
}

// LabelingHooks receives events from labeling passes.
type LabelingHooks interface {
	// OnPassStart is called once the new roots of a pass are known.
	OnPassStart(ctx context.Context, kind string, newRoots int)
	// OnPassComplete is called when a pass ends, successfully or not.
	OnPassComplete(ctx context.Context, kind string, stats PassStats, duration time.Duration, err error)

	// OnRelabel records one relabel cascade and how many nodes it moved.
	OnRelabel(ctx context.Context, kind string, shifted int)
	// OnOverflow records a fallback to relabeling the whole hierarchy.
	OnOverflow(ctx context.Context, kind string)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from label stores.
type StoreHooks interface {
	// OnLoad records a label snapshot read.
	OnLoad(ctx context.Context, backend, kind string, labels int, duration time.Duration, err error)
	// OnSave records a label snapshot write.
	OnSave(ctx context.Context, backend, kind string, labels int, duration time.Duration, err error)
	// OnLockAcquired records how long the counter lease took to obtain.
	OnLockAcquired(ctx context.Context, backend, kind string, wait time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLabelingHooks is a no-op implementation of LabelingHooks.
type NoopLabelingHooks struct{}

func (NoopLabelingHooks) OnPassStart(context.Context, string, int) {}
func (NoopLabelingHooks) OnPassComplete(context.Context, string, PassStats, time.Duration, error) {
}
func (NoopLabelingHooks) OnRelabel(context.Context, string, int) {}
func (NoopLabelingHooks) OnOverflow(context.Context, string)     {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLoad(context.Context, string, string, int, time.Duration, error) {}
func (NoopStoreHooks) OnSave(context.Context, string, string, int, time.Duration, error) {}
func (NoopStoreHooks) OnLockAcquired(context.Context, string, string, time.Duration)    {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	labelingHooks LabelingHooks = NoopLabelingHooks{}
	storeHooks    StoreHooks    = NoopStoreHooks{}
	hooksMu       sync.RWMutex
)

// SetLabelingHooks registers custom labeling hooks.
// This should be called once at application startup before any labeling pass.
func SetLabelingHooks(h LabelingHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		labelingHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store access.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Labeling returns the registered labeling hooks.
func Labeling() LabelingHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return labelingHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	labelingHooks = NoopLabelingHooks{}
	storeHooks = NoopStoreHooks{}
}
