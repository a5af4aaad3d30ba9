package chart

import (
	"math"
	"testing"

	"github.com/phichain-go/phichain/internal/beat"
	"github.com/phichain-go/phichain/internal/easing"
)

func TestFlattenProducesRootOnlyLines(t *testing.T) {
	grandchild := &Line{Name: "grandchild"}
	child := &Line{Name: "child", Children: []*Line{grandchild}}
	root := &Line{Name: "root", Children: []*Line{child}}

	flat := Flatten(root)
	if len(flat) != 3 {
		t.Fatalf("expected 3 flattened lines, got %d", len(flat))
	}
	for _, l := range flat {
		if len(l.Children) != 0 {
			t.Fatalf("flattened line %q should have no children", l.Name)
		}
	}
}

func TestFlattenEquivalence(t *testing.T) {
	parent := &Line{
		Name: "parent",
		Events: Sequence{
			{Kind: KindX, StartBeat: beat.Zero, EndBeat: beat.New(4, 0, 1), Value: Transitioning(0, 400, easing.Named(easing.Linear))},
		},
	}
	child := &Line{
		Name: "child",
		Events: Sequence{
			{Kind: KindX, StartBeat: beat.Zero, EndBeat: beat.New(4, 0, 1), Value: Transitioning(0, 100, easing.Named(easing.Linear))},
		},
	}
	parent.Children = []*Line{child}

	flat := Flatten(parent)
	var flatChild *Line
	for _, l := range flat {
		if l.Name == "child" {
			flatChild = l
		}
	}
	if flatChild == nil {
		t.Fatalf("flattened child not found")
	}

	step := beat.New(0, 1, 32).Value()
	for bv := 0.0; bv <= 4.0; bv += step {
		b := beat.FromFloat64(bv)
		wantX := parent.Events.EvaluateInclusive(b) + child.Events.EvaluateInclusive(b)
		gotX := flatChild.Events.EvaluateInclusive(b)
		if math.Abs(gotX-wantX) > 1e-4 {
			t.Fatalf("at beat %v: flattened X = %v, want %v", bv, gotX, wantX)
		}
	}
}
