package chart

import (
	"github.com/phichain-go/phichain/internal/beat"
	"github.com/phichain-go/phichain/internal/easing"
)

// CNTOptions configures a curve-note-track's generated notes.
type CNTOptions struct {
	Density uint8 // 1..32
	Kind    NoteKind
	Curve   easing.Easing
}

// CNT (curve-note-track) is a pair of anchor notes plus generation options.
// It is a pure projection: its notes are generated on demand and never
// persisted.
type CNT struct {
	From    Note
	To      Note
	Options CNTOptions
}

// Generate produces density+1 notes uniformly spaced in beat between From
// and To, with X interpolated along the configured easing curve. It emits
// nothing when the anchors share a beat or density is zero.
func (c CNT) Generate() []Note {
	if c.Options.Density == 0 || beat.Equal(c.From.Beat, c.To.Beat) {
		return nil
	}

	density := int(c.Options.Density)
	notes := make([]Note, 0, density+1)
	fromValue := c.From.Beat.Value()
	deltaBeat := c.To.Beat.Value() - fromValue
	deltaX := c.To.X - c.From.X

	for k := 0; k <= density; k++ {
		t := float64(k) / float64(density)
		notes = append(notes, Note{
			Kind:  c.Options.Kind,
			Above: c.From.Above,
			Beat:  beat.FromFloat64(fromValue + t*deltaBeat),
			X:     c.From.X + c.Options.Curve.Ease(t)*deltaX,
			Speed: c.From.Speed,
		})
	}
	return notes
}
