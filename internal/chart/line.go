package chart

import "github.com/phichain-go/phichain/internal/beat"

// Line is a judge line: geometry and visibility driven by events, carrying
// its own notes, curve-note-tracks, and nested child lines.
type Line struct {
	Name            string
	Notes           []Note
	Events          Sequence
	Children        []*Line
	CurveNoteTracks []CNT
}

// State is the resolved per-beat line state produced by Resolve.
type State struct {
	X, Y        float64
	RotationDeg float64
	Opacity01   float64
	Speed       float64
}

// Resolve folds each event kind independently using inclusive-start
// evaluation, taking the maximum result under the event-ordering rule, and
// falls back to the kind's default when nothing affects it (4.F).
func Resolve(l *Line, b beat.Beat) State {
	groups := l.Events.GroupByKind()

	valueOrDefault := func(k Kind) float64 {
		r := groups[k].evaluate(b, false)
		if r.Kind == Unaffected {
			return k.DefaultValue()
		}
		return r.Value
	}

	return State{
		X:           valueOrDefault(KindX),
		Y:           valueOrDefault(KindY),
		RotationDeg: valueOrDefault(KindRotation),
		Opacity01:   valueOrDefault(KindOpacity) / 255,
		Speed:       valueOrDefault(KindSpeed),
	}
}
