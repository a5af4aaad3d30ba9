package chart

import (
	"math"
	"testing"

	"github.com/phichain-go/phichain/internal/beat"
	"github.com/phichain-go/phichain/internal/easing"
)

func TestCNTGenerateS5(t *testing.T) {
	a := Note{Kind: Tap(), Above: true, Beat: beat.Zero, X: -100}
	b := Note{Kind: Tap(), Above: true, Beat: beat.New(1, 0, 1), X: 100}
	c := CNT{From: a, To: b, Options: CNTOptions{Density: 4, Kind: Tap(), Curve: easing.Named(easing.Linear)}}

	notes := c.Generate()
	if len(notes) != 5 {
		t.Fatalf("expected 5 notes, got %d", len(notes))
	}

	wantX := []float64{-100, -50, 0, 50, 100}
	wantBeat := []float64{0, 0.25, 0.5, 0.75, 1}
	for i, n := range notes {
		if math.Abs(n.X-wantX[i]) > 1e-6 {
			t.Fatalf("note %d x = %v, want %v", i, n.X, wantX[i])
		}
		if math.Abs(n.Beat.Value()-wantBeat[i]) > 1e-6 {
			t.Fatalf("note %d beat = %v, want %v", i, n.Beat.Value(), wantBeat[i])
		}
	}
}

func TestCNTZeroDensityEmitsNothing(t *testing.T) {
	a := Note{Beat: beat.Zero, X: 0}
	b := Note{Beat: beat.New(1, 0, 1), X: 10}
	c := CNT{From: a, To: b, Options: CNTOptions{Density: 0}}
	if notes := c.Generate(); notes != nil {
		t.Fatalf("expected no notes with density 0, got %d", len(notes))
	}
}

func TestCNTSameBeatEmitsNothing(t *testing.T) {
	a := Note{Beat: beat.New(2, 0, 1), X: 0}
	b := Note{Beat: beat.New(2, 0, 1), X: 10}
	c := CNT{From: a, To: b, Options: CNTOptions{Density: 4}}
	if notes := c.Generate(); notes != nil {
		t.Fatalf("expected no notes when anchors share a beat, got %d", len(notes))
	}
}
