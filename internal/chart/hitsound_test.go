package chart

import (
	"testing"

	"github.com/phichain-go/phichain/internal/beat"
	"github.com/phichain-go/phichain/internal/bpm"
)

func TestTrackerFiresOnceForTap(t *testing.T) {
	bpmList := bpm.New([]bpm.Point{{Beat: beat.Zero, BPM: 120}})
	notes := []Note{{Kind: Tap(), Beat: beat.New(1, 0, 1)}}
	tr := NewTracker(bpmList)

	noteTime, _ := bpmList.TimeAt(notes[0].Beat)

	fired, err := tr.Advance(notes, noteTime+0.01, false)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("expected tap to fire once at %v, got %v", noteTime+0.01, fired)
	}

	fired, _ = tr.Advance(notes, noteTime+0.02, false)
	if len(fired) != 0 {
		t.Fatalf("expected tap latch to suppress repeat fire, got %v", fired)
	}
}

func TestTrackerSkipsStaleTap(t *testing.T) {
	bpmList := bpm.New([]bpm.Point{{Beat: beat.Zero, BPM: 120}})
	notes := []Note{{Kind: Tap(), Beat: beat.Zero}}
	tr := NewTracker(bpmList)

	fired, _ := tr.Advance(notes, 1.0, false)
	if len(fired) != 0 {
		t.Fatalf("expected stale tap (past tolerance) not to fire, got %v", fired)
	}
}

func TestTrackerHoldPulses(t *testing.T) {
	bpmList := bpm.New([]bpm.Point{{Beat: beat.Zero, BPM: 60}})
	notes := []Note{{Kind: Hold(beat.New(2, 0, 1)), Beat: beat.Zero}}
	tr := NewTracker(bpmList)

	if fired, _ := tr.Advance(notes, 0.0, false); len(fired) != 1 {
		t.Fatalf("expected initial hold latch at t=0, got %v", fired)
	}
	if fired, _ := tr.Advance(notes, 0.1, false); len(fired) != 0 {
		t.Fatalf("expected no pulse before interval elapses, got %v", fired)
	}
	if fired, _ := tr.Advance(notes, 0.2, false); len(fired) != 1 {
		t.Fatalf("expected a pulse once HoldPulseInterval has elapsed, got %v", fired)
	}
}

func TestTrackerResetsOnSeekBack(t *testing.T) {
	bpmList := bpm.New([]bpm.Point{{Beat: beat.Zero, BPM: 120}})
	notes := []Note{{Kind: Tap(), Beat: beat.New(1, 0, 1)}}
	tr := NewTracker(bpmList)

	noteTime, _ := bpmList.TimeAt(notes[0].Beat)
	tr.Advance(notes, noteTime+0.01, false)

	tr.Advance(notes, noteTime-1.0, false)

	fired, _ := tr.Advance(notes, noteTime+0.01, false)
	if len(fired) != 1 {
		t.Fatalf("expected tap to re-fire after seeking back past it, got %v", fired)
	}
}

func TestTrackerSuppressedWhilePaused(t *testing.T) {
	bpmList := bpm.New([]bpm.Point{{Beat: beat.Zero, BPM: 120}})
	notes := []Note{{Kind: Tap(), Beat: beat.Zero}}
	tr := NewTracker(bpmList)

	fired, _ := tr.Advance(notes, 0.01, true)
	if len(fired) != 0 {
		t.Fatalf("expected no trigger while paused, got %v", fired)
	}
}
