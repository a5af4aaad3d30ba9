package chart

import (
	"errors"
	"fmt"

	"github.com/phichain-go/phichain/internal/beat"
)

// ErrNonExistentCNTAnchor is returned when a curve-note-track's anchor note
// cannot be resolved against the line's note list.
var ErrNonExistentCNTAnchor = errors.New("chart: curve-note-track references a non-existent note")

// Validate checks a document's domain invariants: non-empty, zero-free BPM
// list, start_beat <= end_beat on every event, and CNT anchors that resolve
// to real notes. The line tree is a Go slice-of-children structure built
// fresh from JSON on every load, so it cannot contain cycles by
// construction; no runtime cycle check is needed.
func (d *Document) Validate() error {
	if d.BPM == nil {
		return errors.New("chart: validate: empty bpm list")
	}
	if err := d.BPM.Validate(); err != nil {
		return fmt.Errorf("chart: validate: %w", err)
	}
	for _, line := range d.Lines {
		if err := validateLine(line); err != nil {
			return err
		}
	}
	return nil
}

func validateLine(l *Line) error {
	for _, e := range l.Events {
		if beat.Less(e.EndBeat, e.StartBeat) {
			return fmt.Errorf("chart: validate: line %q: event end_beat %v before start_beat %v", l.Name, e.EndBeat, e.StartBeat)
		}
	}

	for _, cnt := range l.CurveNoteTracks {
		if !noteExists(l.Notes, cnt.From) || !noteExists(l.Notes, cnt.To) {
			return fmt.Errorf("chart: validate: line %q: %w", l.Name, ErrNonExistentCNTAnchor)
		}
	}

	for _, child := range l.Children {
		if err := validateLine(child); err != nil {
			return err
		}
	}
	return nil
}

func noteExists(notes []Note, anchor Note) bool {
	for _, n := range notes {
		if beat.Equal(n.Beat, anchor.Beat) && n.Above == anchor.Above && n.X == anchor.X {
			return true
		}
	}
	return false
}
