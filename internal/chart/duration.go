package chart

import "github.com/phichain-go/phichain/internal/beat"

// LastBeat returns the latest beat touched by any note (its end beat, so
// Hold notes count their release) or event across the whole line tree,
// zero if the document is empty. cmd/render uses it to default --to when
// the flag is omitted.
func (d *Document) LastBeat() beat.Beat {
	last := beat.Zero
	for _, l := range d.Lines {
		lineLastBeat(l, &last)
	}
	return last
}

func lineLastBeat(l *Line, last *beat.Beat) {
	for _, n := range l.Notes {
		if b := n.EndBeat(); beat.Less(*last, b) {
			*last = b
		}
	}
	for _, e := range l.Events {
		if beat.Less(*last, e.EndBeat) {
			*last = e.EndBeat
		}
	}
	for _, c := range l.Children {
		lineLastBeat(c, last)
	}
}
