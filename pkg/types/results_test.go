package types_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/parsekit/pkg/types"
)

func TestResultsIndexing(t *testing.T) {
	r := types.NewResults("a", "b", "c")
	if got := r.Len(); got != 3 {
		t.Fatalf("expected length 3, got %d", got)
	}
	tests := []struct {
		name string
		idx  int
		want any
	}{
		{"first", 0, "a"},
		{"last", 2, "c"},
		{"negative", -1, "c"},
		{"negative first", -3, "a"},
		{"out of range", 3, nil},
		{"negative out of range", -4, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Get(tt.idx); got != tt.want {
				t.Errorf("Get(%d) = %v, want %v", tt.idx, got, tt.want)
			}
		})
	}
}

func TestResultsSlice(t *testing.T) {
	r := types.NewResults("a", "b", "c", "d")
	s := r.Slice(1, -1)
	if diff := cmp.Diff([]any{"b", "c"}, s.Flatten()); diff != "" {
		t.Errorf("slice mismatch (-want +got):\n%s", diff)
	}
}

func TestResultsNamedModal(t *testing.T) {
	r := types.NewResults("x", "y")
	r.PutNamed("v", "x", 0, false)
	r.PutNamed("v", "y", 1, false)
	got, ok := r.GetByName("v")
	if !ok || got != "y" {
		t.Fatalf("expected last match %q, got %v (ok=%v)", "y", got, ok)
	}
	if all := r.GetAllByName("v"); len(all) != 2 {
		t.Fatalf("expected 2 recorded values, got %d", len(all))
	}
}

func TestResultsNamedAccumulateAll(t *testing.T) {
	r := types.NewResults("x", "y")
	r.PutNamed("v", "x", 0, true)
	r.PutNamed("v", "y", 1, true)
	got, ok := r.GetByName("v")
	if !ok {
		t.Fatal("expected name to resolve")
	}
	list, ok := got.(*types.Results)
	if !ok {
		t.Fatalf("expected accumulated Results, got %T", got)
	}
	if diff := cmp.Diff([]any{"x", "y"}, list.Flatten()); diff != "" {
		t.Errorf("accumulated values mismatch (-want +got):\n%s", diff)
	}
}

func TestResultsDeleteRepairsPositions(t *testing.T) {
	r := types.NewResults("a", "b", "c")
	r.PutNamed("mid", "b", 1, false)
	r.PutNamed("end", "c", 2, false)
	r.Delete(0)
	if diff := cmp.Diff([]any{"b", "c"}, r.Flatten()); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
	if got := r.Positions("mid"); got[0] != 0 {
		t.Errorf("expected position 0 after delete, got %d", got[0])
	}
	if got := r.Positions("end"); got[0] != 1 {
		t.Errorf("expected position 1 after delete, got %d", got[0])
	}
}

func TestResultsInsertRepairsPositions(t *testing.T) {
	r := types.NewResults("a", "c")
	r.PutNamed("end", "c", 1, false)
	r.Insert(1, "b")
	if diff := cmp.Diff([]any{"a", "b", "c"}, r.Flatten()); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
	if got := r.Positions("end"); got[0] != 2 {
		t.Errorf("expected position 2 after insert, got %d", got[0])
	}
}

func TestResultsMergeReoffsets(t *testing.T) {
	left := types.NewResults("a", "b")
	right := types.NewResults("c")
	right.PutNamed("tail", "c", 0, false)

	sum := left.Plus(right)
	if left.Len() != 2 || right.Len() != 1 {
		t.Fatal("Plus must not mutate its operands")
	}
	if got := sum.Positions("tail"); got[0] != 2 {
		t.Errorf("expected re-offset position 2, got %d", got[0])
	}
	v, _ := sum.GetByName("tail")
	if v != "c" {
		t.Errorf("expected named value %q, got %v", "c", v)
	}
}

func TestResultsCopyIsShallowButIndependent(t *testing.T) {
	r := types.NewResults("a")
	r.PutNamed("n", "a", 0, false)
	c := r.Copy()
	c.Append("b")
	c.PutNamed("n", "b", 1, false)
	if r.Len() != 1 {
		t.Error("copy mutation leaked into original sequence")
	}
	if len(r.GetAllByName("n")) != 1 {
		t.Error("copy mutation leaked into original multimap")
	}
}

func TestResultsRoundTrip(t *testing.T) {
	inner := types.NewResults("x", "y")
	r := types.NewResults("a", inner, "b")

	flat := r.Flatten()
	rebuilt := types.FromNested(flat)
	if !r.Equal(rebuilt) {
		t.Fatalf("round trip mismatch: %s vs %s", r, rebuilt)
	}
	if diff := cmp.Diff(flat, rebuilt.Flatten()); diff != "" {
		t.Errorf("flattened forms differ (-want +got):\n%s", diff)
	}
}

func TestResultsEqualNilOperands(t *testing.T) {
	var a, b *types.Results
	if !a.Equal(b) {
		t.Error("two nil results must compare equal")
	}
	if !a.Equal(types.NewResults()) {
		t.Error("nil must compare equal to empty")
	}
	if a.Equal(types.NewResults("x")) {
		t.Error("nil must not compare equal to a non-empty result")
	}
	if types.NewResults("x").Equal(nil) {
		t.Error("a non-empty result must not compare equal to nil")
	}
}

func TestResultsNamesOnly(t *testing.T) {
	r := types.NewResults("a", "b")
	r.PutNamed("x", "a", 0, false)
	n := r.NamesOnly()
	if n.Len() != 0 {
		t.Fatalf("expected no positional values, got %d", n.Len())
	}
	v, ok := n.GetByName("x")
	if !ok || v != "a" {
		t.Fatalf("expected preserved name, got %v (ok=%v)", v, ok)
	}
}

func TestResultsMatchedUnderName(t *testing.T) {
	r := types.NewResults("a")
	r.SetName("operand")
	if got := r.Name(); got != "operand" {
		t.Errorf("expected matched-under name %q, got %q", "operand", got)
	}
}
