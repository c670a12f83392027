package label

import (
	"encoding/json"

	"github.com/matzehuels/isalabel/pkg/interval"
)

// Snapshot is the persisted form of a [Label].
type Snapshot struct {
	Tree     interval.Interval   `json:"tree" bson:"tree"`
	Direct   []interval.Interval `json:"direct,omitempty" bson:"direct,omitempty"`
	Indirect []interval.Interval `json:"indirect,omitempty" bson:"indirect,omitempty"`
}

// Snapshot returns the persisted form of l.
func (l *Label) Snapshot() Snapshot {
	return Snapshot{Tree: l.Tree(), Direct: l.Direct(), Indirect: l.Indirect()}
}

// FromSnapshot rebuilds a label. Propagated labels that clash with the tree
// label yield the same error as [Label.AddPropagated].
func FromSnapshot(s Snapshot) (*Label, error) {
	l := New(s.Tree)
	for _, iv := range s.Direct {
		if _, err := l.AddPropagated(iv, true); err != nil {
			return nil, err
		}
	}
	for _, iv := range s.Indirect {
		if _, err := l.AddPropagated(iv, false); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// MarshalJSON encodes the label as its [Snapshot].
func (l *Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Snapshot())
}

// UnmarshalJSON decodes a [Snapshot].
func (l *Label) UnmarshalJSON(data []byte) error {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := FromSnapshot(s)
	if err != nil {
		return err
	}
	*l = *decoded
	return nil
}
