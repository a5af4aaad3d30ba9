package chart

import "github.com/phichain-go/phichain/internal/beat"

// NoteKind tags the four note shapes; Hold carries its own duration.
type NoteKind struct {
	Tag      NoteTag
	HoldBeat beat.Beat // meaningful only when Tag == NoteTap's sibling NoteHold
}

// NoteTag enumerates the note shapes.
type NoteTag int

const (
	NoteTap NoteTag = iota
	NoteDrag
	NoteHold
	NoteFlick
)

func Tap() NoteKind  { return NoteKind{Tag: NoteTap} }
func Drag() NoteKind { return NoteKind{Tag: NoteDrag} }
func Flick() NoteKind { return NoteKind{Tag: NoteFlick} }
func Hold(holdBeat beat.Beat) NoteKind { return NoteKind{Tag: NoteHold, HoldBeat: holdBeat} }

// Note is a single tap/drag/hold/flick note anchored to a beat, in canvas
// X units (canvas width 1350), with its own speed multiplier.
type Note struct {
	Kind  NoteKind
	Above bool
	Beat  beat.Beat
	X     float64
	Speed float64
}

// EndBeat returns beat + hold_beat for Hold notes, else beat.
func (n Note) EndBeat() beat.Beat {
	if n.Kind.Tag == NoteHold {
		return beat.Add(n.Beat, n.Kind.HoldBeat)
	}
	return n.Beat
}
