package label

import (
	"encoding/json"
	"testing"

	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/interval"
)

func TestZeroLabel(t *testing.T) {
	var l Label
	if l.HasTree() {
		t.Error("zero Label should have no tree label")
	}
	if !l.Tree().IsEmpty() {
		t.Errorf("Tree() = %v, want empty", l.Tree())
	}
	if l.ContainsInterval(interval.New(0, 0)) {
		t.Error("zero Label should contain nothing")
	}
}

func TestSetTree(t *testing.T) {
	l := New(interval.New(10, 20))
	if l.Tree() != interval.New(10, 20) {
		t.Errorf("Tree() = %v", l.Tree())
	}
	l.SetTree(interval.Empty)
	if l.HasTree() {
		t.Error("SetTree(Empty) should clear the tree label")
	}
}

func TestAddPropagated(t *testing.T) {
	tests := []struct {
		name        string
		iv          interval.Interval
		direct      bool
		wantChanged bool
		wantCode    errors.Code
	}{
		{"disjoint direct", interval.New(50, 60), true, true, ""},
		{"disjoint indirect", interval.New(70, 80), false, true, ""},
		{"contained by tree", interval.New(12, 14), true, false, ""},
		{"equal to tree", interval.New(10, 20), false, false, ""},
		{"overlapping", interval.New(15, 25), true, false, errors.ErrCodeIllegalPropagatedLabel},
		{"empty", interval.Empty, true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(interval.New(10, 20))
			changed, err := l.AddPropagated(tt.iv, tt.direct)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("err = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
		})
	}
}

func TestAddPropagatedSets(t *testing.T) {
	l := New(interval.New(0, 9))

	if changed, _ := l.AddPropagated(interval.New(20, 29), false); !changed {
		t.Fatal("first indirect add should change")
	}
	if changed, _ := l.AddPropagated(interval.New(20, 29), false); changed {
		t.Error("repeated add should not change")
	}
	// A direct edge promotes the interval out of the indirect set.
	l.AddPropagated(interval.New(20, 29), true)
	if len(l.Direct()) != 1 || len(l.Indirect()) != 0 {
		t.Errorf("after promotion direct=%v indirect=%v", l.Direct(), l.Indirect())
	}
	// An indirect add never demotes a direct one.
	l.AddPropagated(interval.New(20, 29), false)
	if len(l.Direct()) != 1 || len(l.Indirect()) != 0 {
		t.Errorf("after indirect re-add direct=%v indirect=%v", l.Direct(), l.Indirect())
	}

	if !l.ContainsInterval(interval.New(21, 22)) {
		t.Error("label should contain an interval inside a propagated label")
	}
	if !l.Contains(25) || l.Contains(15) {
		t.Error("Contains(point) mismatch")
	}
}

func TestRemoveAndReplacePropagated(t *testing.T) {
	l := New(interval.New(0, 9))
	l.AddPropagated(interval.New(20, 29), true)
	l.AddPropagated(interval.New(40, 49), false)

	if !l.ReplacePropagated(interval.New(40, 49), interval.New(60, 69)) {
		t.Fatal("ReplacePropagated should rewrite the indirect entry")
	}
	if !l.HasPropagated(interval.New(60, 69)) || l.HasPropagated(interval.New(40, 49)) {
		t.Errorf("Propagated() = %v", l.Propagated())
	}

	// Replacing into the tree label drops the entry.
	if !l.ReplacePropagated(interval.New(20, 29), interval.New(2, 3)) {
		t.Fatal("ReplacePropagated into tree should report a change")
	}
	if l.HasPropagated(interval.New(2, 3)) || len(l.Direct()) != 0 {
		t.Errorf("Direct() = %v, want empty", l.Direct())
	}

	if !l.RemovePropagated(interval.New(60, 69)) {
		t.Error("RemovePropagated should report the removed entry")
	}
	if l.RemovePropagated(interval.New(60, 69)) {
		t.Error("second RemovePropagated should report false")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := New(interval.New(0, 9))
	orig.AddPropagated(interval.New(20, 29), true)

	cp := orig.Clone()
	if !cp.Equal(orig) {
		t.Fatal("Clone should be Equal to the original")
	}

	cp.SetTree(interval.New(0, 19))
	cp.AddPropagated(interval.New(40, 49), false)

	if orig.Tree() != interval.New(0, 9) {
		t.Errorf("original tree changed to %v", orig.Tree())
	}
	if len(orig.Indirect()) != 0 {
		t.Errorf("original indirect changed to %v", orig.Indirect())
	}
	if cp.Equal(orig) {
		t.Error("modified clone should differ from the original")
	}

	var nilLabel *Label
	if nilLabel.Clone().HasTree() {
		t.Error("Clone of nil should be an empty label")
	}
}

func TestString(t *testing.T) {
	l := New(interval.New(0, 9))
	if got := l.String(); got != "[0,9]" {
		t.Errorf("String() = %q", got)
	}
	l.AddPropagated(interval.New(20, 29), true)
	if got := l.String(); got != "[0,9] d{[20,29]} i{}" {
		t.Errorf("String() = %q", got)
	}
}

func TestRemapPropagated(t *testing.T) {
	l := New(interval.New(0, 9))
	l.AddPropagated(interval.New(20, 29), true)
	l.AddPropagated(interval.New(30, 39), false)

	shifts := map[interval.Interval]interval.Interval{
		interval.New(20, 29): interval.New(30, 39),
		interval.New(30, 39): interval.New(40, 49),
	}
	if !l.RemapPropagated(shifts) {
		t.Fatal("RemapPropagated should report a change")
	}
	if got := l.Direct(); len(got) != 1 || got[0] != interval.New(30, 39) {
		t.Errorf("Direct() = %v, want [[30,39]]", got)
	}
	if got := l.Indirect(); len(got) != 1 || got[0] != interval.New(40, 49) {
		t.Errorf("Indirect() = %v, want [[40,49]]", got)
	}
	if l.RemapPropagated(map[interval.Interval]interval.Interval{interval.New(1, 1): interval.New(2, 2)}) {
		t.Error("RemapPropagated without matches should report no change")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := New(interval.New(1, 10))
	l.AddPropagated(interval.New(20, 30), true)
	l.AddPropagated(interval.New(40, 50), false)

	data, err := json.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	var got Label
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Equal(l) {
		t.Errorf("round trip = %s, want %s", &got, l)
	}

	if _, err := FromSnapshot(Snapshot{Tree: interval.New(1, 10), Direct: []interval.Interval{interval.New(5, 15)}}); !errors.Is(err, errors.ErrCodeIllegalPropagatedLabel) {
		t.Errorf("FromSnapshot overlapping = %v, want illegal propagated label", err)
	}
}
