package chart

import (
	"github.com/phichain-go/phichain/internal/bpm"
)

// HitSoundTolerance is the window after a tap/drag/flick note's time
// during which its hit sound still fires; past it, the note is considered
// missed for sound-triggering purposes.
const HitSoundTolerance = 0.05

// HoldPulseInterval is the repeat period for a Hold note's hit effect
// while the playhead is inside its [start, end] span.
const HoldPulseInterval = 0.15

// SoundKind identifies which hit-sound clip a note triggers.
type SoundKind int

const (
	SoundTap SoundKind = iota
	SoundDrag
	SoundFlick
)

// SoundKindOf maps a note kind to the clip it plays; Hold notes use the
// Tap clip on both their initial latch and every subsequent pulse.
func SoundKindOf(k NoteKind) SoundKind {
	switch k.Tag {
	case NoteDrag:
		return SoundDrag
	case NoteFlick:
		return SoundFlick
	default:
		return SoundTap
	}
}

// noteLatch tracks one note's hit-sound state across successive Advance
// calls: whether it has already fired, and (for Hold notes) the wall-clock
// time of its most recent pulse.
type noteLatch struct {
	played    bool
	lastPulse float64
}

// Tracker drives per-note hit-sound triggering as the playhead moves
// through a chart, with a latch per note so each note fires once (Hold
// notes: once per HoldPulseInterval while held) and resets cleanly when
// the playhead seeks backward past it.
type Tracker struct {
	bpmList *bpm.List
	latches map[int]*noteLatch
}

// NewTracker builds a Tracker against the given tempo map.
func NewTracker(bpmList *bpm.List) *Tracker {
	return &Tracker{bpmList: bpmList, latches: map[int]*noteLatch{}}
}

// Advance evaluates every note against the current playhead time and
// returns the indices (into notes) that should trigger a hit sound this
// call. paused suppresses all triggering without disturbing latch state.
func (t *Tracker) Advance(notes []Note, time float64, paused bool) ([]int, error) {
	var triggered []int

	for i, n := range notes {
		noteTime, err := t.bpmList.TimeAt(n.Beat)
		if err != nil {
			return nil, err
		}

		latch := t.latches[i]
		if latch == nil {
			latch = &noteLatch{}
			t.latches[i] = latch
		}

		if n.Kind.Tag == NoteHold {
			endTime, err := t.bpmList.TimeAt(n.EndBeat())
			if err != nil {
				return nil, err
			}
			inSpan := noteTime <= time && time <= endTime
			due := !latch.played || (time-latch.lastPulse) > HoldPulseInterval
			if inSpan && !paused && due {
				latch.played = true
				latch.lastPulse = time
				triggered = append(triggered, i)
			}
		} else {
			if noteTime <= time && time-noteTime < HitSoundTolerance && !latch.played && !paused {
				latch.played = true
				triggered = append(triggered, i)
			}
		}

		// Seeking back past the note's own time resets its latch so it can
		// fire again on a later forward pass.
		if noteTime > time && latch.played {
			latch.played = false
			latch.lastPulse = 0
		}
	}

	return triggered, nil
}

// Reset clears every note's latch, forcing the next Advance to
// re-evaluate from a clean state (used when loading a new chart or
// jumping the playhead by more than a frame).
func (t *Tracker) Reset() {
	t.latches = map[int]*noteLatch{}
}
