package bpm

import (
	"math"
	"testing"

	"github.com/phichain-go/phichain/internal/beat"
)

func TestTimeAtConversion(t *testing.T) {
	l := New([]Point{
		{Beat: beat.Zero, BPM: 120},
		{Beat: beat.New(4, 0, 1), BPM: 60},
	})

	got, err := l.TimeAt(beat.New(4, 0, 1))
	if err != nil {
		t.Fatalf("TimeAt: %v", err)
	}
	if math.Abs(got-2.0) > 1e-9 {
		t.Fatalf("TimeAt(beat 4) = %v, want 2.0", got)
	}

	got, err = l.TimeAt(beat.New(6, 0, 1))
	if err != nil {
		t.Fatalf("TimeAt: %v", err)
	}
	if math.Abs(got-4.0) > 1e-9 {
		t.Fatalf("TimeAt(beat 6) = %v, want 4.0", got)
	}
}

func TestBeatTimeMutualInverse(t *testing.T) {
	l := New([]Point{
		{Beat: beat.Zero, BPM: 120},
		{Beat: beat.New(4, 0, 1), BPM: 180},
		{Beat: beat.New(10, 0, 1), BPM: 90},
	})

	for _, b := range []beat.Beat{beat.Zero, beat.New(2, 1, 2), beat.New(4, 0, 1), beat.New(7, 3, 4), beat.New(20, 0, 1)} {
		tm, err := l.TimeAt(b)
		if err != nil {
			t.Fatalf("TimeAt: %v", err)
		}
		back, err := l.BeatAt(tm)
		if err != nil {
			t.Fatalf("BeatAt: %v", err)
		}
		if math.Abs(back.Value()-b.Value()) > 1e-6 {
			t.Fatalf("BeatAt(TimeAt(%v)) = %v, want %v", b, back, b)
		}
	}

	for _, tm := range []float64{0, 1.5, 3.999, 10} {
		b, err := l.BeatAt(tm)
		if err != nil {
			t.Fatalf("BeatAt: %v", err)
		}
		back, err := l.TimeAt(b)
		if err != nil {
			t.Fatalf("TimeAt: %v", err)
		}
		if math.Abs(back-tm) > 1e-6 {
			t.Fatalf("TimeAt(BeatAt(%v)) = %v, want %v", tm, back, tm)
		}
	}
}

func TestEmptyList(t *testing.T) {
	l := &List{}
	if _, err := l.TimeAt(beat.Zero); err != ErrEmpty {
		t.Fatalf("TimeAt on empty list = %v, want ErrEmpty", err)
	}
	if _, err := l.BeatAt(0); err != ErrEmpty {
		t.Fatalf("BeatAt on empty list = %v, want ErrEmpty", err)
	}
	if err := l.Validate(); err != ErrEmpty {
		t.Fatalf("Validate on empty list = %v, want ErrEmpty", err)
	}
}

func TestInsertReordersAndRecomputes(t *testing.T) {
	l := New([]Point{{Beat: beat.Zero, BPM: 120}})
	l.Insert(beat.New(8, 0, 1), 200)
	l.Insert(beat.New(4, 0, 1), 150)

	if len(l.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(l.Points))
	}
	if !beat.Equal(l.Points[1].Beat, beat.New(4, 0, 1)) {
		t.Fatalf("expected second point at beat 4, got %v", l.Points[1].Beat)
	}
	if err := l.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestFirstPointForcedToZero(t *testing.T) {
	l := New([]Point{{Beat: beat.New(2, 0, 1), BPM: 100}})
	if !beat.Equal(l.Points[0].Beat, beat.Zero) {
		t.Fatalf("first point should be forced to beat zero, got %v", l.Points[0].Beat)
	}
}
