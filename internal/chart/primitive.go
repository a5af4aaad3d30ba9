package chart

import (
	"github.com/phichain-go/phichain/internal/bpm"
	"github.com/phichain-go/phichain/internal/easing"
)

// Primitive is the flattened normal form used as the hub for every format
// conversion: root-level lines only, no curve-note-tracks, no nested
// children, every event expressed as a Transition (Constants are widened to
// an equal-endpoint Linear transition).
type Primitive struct {
	OffsetMS float64
	BPM      *bpm.List
	Lines    []PrimitiveLine
}

// PrimitiveLine is a flat line: notes and events only.
type PrimitiveLine struct {
	Name   string
	Notes  []Note
	Events Sequence
}

// ToPrimitive flattens a Phichain document into its Primitive normal form:
// children are merged via Flatten, curve-note-tracks are baked into real
// notes, and every Constant event is widened into an equal-endpoint
// Transition.
func ToPrimitive(d *Document) *Primitive {
	p := &Primitive{OffsetMS: d.OffsetMS, BPM: d.BPM}
	for _, root := range d.Lines {
		for _, flat := range Flatten(root) {
			p.Lines = append(p.Lines, bakeLine(flat))
		}
	}
	return p
}

func bakeLine(l *Line) PrimitiveLine {
	notes := append([]Note(nil), l.Notes...)
	for _, cnt := range l.CurveNoteTracks {
		notes = append(notes, cnt.Generate()...)
	}

	events := make(Sequence, 0, len(l.Events))
	for _, e := range l.Events {
		events = append(events, widenConstant(e))
	}

	return PrimitiveLine{Name: l.Name, Notes: notes, Events: events}
}

func widenConstant(e Event) Event {
	if e.Value.Transition {
		return e
	}
	return Event{
		Kind:      e.Kind,
		StartBeat: e.StartBeat,
		EndBeat:   e.EndBeat,
		Value:     Transitioning(e.Value.Start, e.Value.Start, easing.Named(easing.Linear)),
	}
}

// ToPhichain lifts a Primitive chart back into Phichain's document shape.
// This direction is structurally lossless: every Primitive line becomes a
// childless, CNT-free root line.
func ToPhichain(p *Primitive, format int64) *Document {
	d := &Document{Format: format, OffsetMS: p.OffsetMS, BPM: p.BPM}
	for _, pl := range p.Lines {
		d.Lines = append(d.Lines, &Line{
			Name:   pl.Name,
			Notes:  append([]Note(nil), pl.Notes...),
			Events: append(Sequence(nil), pl.Events...),
		})
	}
	return d
}
