package store

import (
	"context"

	"github.com/matzehuels/isalabel/pkg/hierarchy"
)

// LabelStore loads and saves label snapshots, one set per hierarchy kind.
type LabelStore interface {
	// Load returns every persisted label of kind. A kind never saved yields
	// an empty map.
	Load(ctx context.Context, kind hierarchy.Kind) (hierarchy.MapLabels, error)
	// Save upserts labels. Labels of URIs not in the map are kept.
	Save(ctx context.Context, kind hierarchy.Kind, labels hierarchy.MapLabels) error
	// Delete removes the labels of uris. Unknown URIs are ignored.
	Delete(ctx context.Context, kind hierarchy.Kind, uris []string) error
}

// Store is a complete persistence backend.
type Store interface {
	LabelStore
	hierarchy.CounterStore
	// Close releases the backend's resources.
	Close() error
}

// Keyspace derives backend keys for a namespace. Importers that share a
// backend but label unrelated schemas use different prefixes.
type Keyspace struct {
	Prefix string
}

// DefaultKeyspace is used when a backend is given no prefix.
var DefaultKeyspace = Keyspace{Prefix: "isalabel:"}

// Labels returns the key of the label snapshot of kind.
func (k Keyspace) Labels(kind hierarchy.Kind) string {
	return k.Prefix + "labels:" + kind.String()
}

// Counter returns the key of the counter of kind.
func (k Keyspace) Counter(kind hierarchy.Kind) string {
	return k.Prefix + "counter:" + kind.String()
}

// Lock returns the key of the counter lock of kind.
func (k Keyspace) Lock(kind hierarchy.Kind) string {
	return k.Prefix + "lock:" + kind.String()
}

// CloneLabels deep-copies m so callers never share cells with a backend.
func CloneLabels(m hierarchy.MapLabels) hierarchy.MapLabels {
	out := make(hierarchy.MapLabels, len(m))
	for uri, l := range m {
		if l != nil {
			out[uri] = l.Clone()
		}
	}
	return out
}
