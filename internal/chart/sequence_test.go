package chart

import (
	"testing"

	"github.com/phichain-go/phichain/internal/beat"
	"github.com/phichain-go/phichain/internal/easing"
)

func TestSortedOrdersByStartBeat(t *testing.T) {
	s := Sequence{
		{Kind: KindX, StartBeat: beat.New(3, 0, 1), EndBeat: beat.New(4, 0, 1), Value: Constant(1)},
		{Kind: KindX, StartBeat: beat.New(1, 0, 1), EndBeat: beat.New(2, 0, 1), Value: Constant(1)},
	}
	sorted := s.Sorted()
	if !beat.Equal(sorted[0].StartBeat, beat.New(1, 0, 1)) {
		t.Fatalf("expected beat 1 first, got %v", sorted[0].StartBeat)
	}
}

func TestGroupByKind(t *testing.T) {
	s := Sequence{
		{Kind: KindX, Value: Constant(1)},
		{Kind: KindY, Value: Constant(2)},
		{Kind: KindX, Value: Constant(3)},
	}
	groups := s.GroupByKind()
	if len(groups[KindX]) != 2 {
		t.Fatalf("expected 2 X events, got %d", len(groups[KindX]))
	}
	if len(groups[KindY]) != 1 {
		t.Fatalf("expected 1 Y event, got %d", len(groups[KindY]))
	}
	if len(groups[KindSpeed]) != 0 {
		t.Fatalf("expected 0 Speed events, got %d", len(groups[KindSpeed]))
	}
}

func TestEvaluateInclusiveDefaultsToZero(t *testing.T) {
	var s Sequence
	if got := s.EvaluateInclusive(beat.Zero); got != 0 {
		t.Fatalf("empty sequence should evaluate to 0, got %v", got)
	}
}

func TestCutLinearPassesThrough(t *testing.T) {
	e := Event{
		Kind:      KindX,
		StartBeat: beat.Zero,
		EndBeat:   beat.New(1, 0, 1),
		Value:     Transitioning(0, 10, easing.Named(easing.Linear)),
	}
	cut := Cut(e, beat.New(0, 1, 32))
	if len(cut) != 1 {
		t.Fatalf("linear event should pass through unchanged, got %d segments", len(cut))
	}
}

func TestCutNonLinearProducesSegments(t *testing.T) {
	e := Event{
		Kind:      KindX,
		StartBeat: beat.Zero,
		EndBeat:   beat.New(1, 0, 1),
		Value:     Transitioning(0, 10, easing.Named(easing.EaseInOutCubic)),
	}
	cut := Cut(e, beat.New(0, 1, 4))
	if len(cut) < 2 {
		t.Fatalf("non-linear event should be discretized, got %d segments", len(cut))
	}
	if !beat.Equal(cut[0].StartBeat, e.StartBeat) {
		t.Fatalf("first segment should start at original start beat")
	}
	if !beat.Equal(cut[len(cut)-1].EndBeat, e.EndBeat) {
		t.Fatalf("last segment should end at original end beat")
	}
	for _, seg := range cut {
		if !seg.Value.Easing.IsLinear() {
			t.Fatalf("cut segments must be linear")
		}
	}
}

func TestFillGapCoversHoles(t *testing.T) {
	events := Sequence{
		{Kind: KindX, StartBeat: beat.Zero, EndBeat: beat.New(1, 0, 1), Value: Constant(1)},
		{Kind: KindX, StartBeat: beat.New(3, 0, 1), EndBeat: beat.New(4, 0, 1), Value: Constant(2)},
	}
	filled := FillGap(events, KindX, 0)
	if len(filled) != 3 {
		t.Fatalf("expected a filler segment inserted, got %d events", len(filled))
	}
	if !beat.Equal(filled[1].StartBeat, beat.New(1, 0, 1)) || !beat.Equal(filled[1].EndBeat, beat.New(3, 0, 1)) {
		t.Fatalf("filler segment should span the gap, got %+v", filled[1])
	}
}

func TestMergeConstantRuns(t *testing.T) {
	events := Sequence{
		{Kind: KindX, StartBeat: beat.Zero, EndBeat: beat.New(1, 0, 1), Value: Constant(5)},
		{Kind: KindX, StartBeat: beat.New(1, 0, 1), EndBeat: beat.New(2, 0, 1), Value: Constant(5)},
		{Kind: KindX, StartBeat: beat.New(2, 0, 1), EndBeat: beat.New(3, 0, 1), Value: Constant(9)},
	}
	merged := MergeConstantRuns(events)
	if len(merged) != 2 {
		t.Fatalf("expected 2 runs after merge, got %d", len(merged))
	}
	if !beat.Equal(merged[0].EndBeat, beat.New(2, 0, 1)) {
		t.Fatalf("first run should extend through the merged span, got end %v", merged[0].EndBeat)
	}
}

func TestFitEasingRecoversCandidate(t *testing.T) {
	target := easing.Named(easing.EaseInOutQuad)
	const segments = 8
	chain := make(Sequence, 0, segments)
	for i := 0; i < segments; i++ {
		f0 := float64(i) / segments
		f1 := float64(i+1) / segments
		chain = append(chain, Event{
			Kind:      KindX,
			StartBeat: beat.FromFloat64(f0),
			EndBeat:   beat.FromFloat64(f1),
			Value: Transitioning(
				target.Ease(f0)*100,
				target.Ease(f1)*100,
				easing.Named(easing.Linear),
			),
		})
	}

	fitted := FitEasing(chain, easing.All(), 1e-2)
	if len(fitted) != 1 {
		t.Fatalf("expected a single fitted event, got %d", len(fitted))
	}
	if fitted[0].Value.Easing.Kind != easing.EaseInOutQuad {
		t.Fatalf("fitted easing = %v, want EaseInOutQuad", fitted[0].Value.Easing)
	}
}

func TestFitEasingFailsOnNonChain(t *testing.T) {
	chain := Sequence{
		{Kind: KindX, StartBeat: beat.Zero, EndBeat: beat.New(1, 0, 1), Value: Transitioning(0, 10, easing.Named(easing.Linear))},
		{Kind: KindX, StartBeat: beat.New(5, 0, 1), EndBeat: beat.New(6, 0, 1), Value: Transitioning(10, 20, easing.Named(easing.Linear))},
	}
	fitted := FitEasing(chain, easing.All(), 1e-2)
	if len(fitted) != len(chain) {
		t.Fatalf("non-contiguous chain should pass through unchanged")
	}
}
