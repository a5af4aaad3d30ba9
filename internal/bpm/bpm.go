// Package bpm models a chart's piecewise-constant tempo map and converts
// between beat positions and wall-clock seconds.
package bpm

import (
	"errors"
	"fmt"
	"sort"

	"github.com/phichain-go/phichain/internal/beat"
)

// ErrEmpty is returned by operations that require at least one BPM point.
var ErrEmpty = errors.New("bpm: empty bpm list")

// Point is one tempo change: the tempo becomes BPM starting at Beat, holding
// constant until the next point. Time is derived by Compute and must not be
// set directly by callers.
type Point struct {
	Beat beat.Beat
	BPM  float64
	Time float64
}

// List is an ordered sequence of tempo points. It may be empty (New accepts
// an empty slice); conversions on an empty list return ErrEmpty.
// Points[0].Beat must be beat.Zero.
type List struct {
	Points []Point
}

// New builds a List from the given points, sorting them by beat and
// recomputing derived Time fields. The first point's beat is forced to zero,
// matching the invariant that a chart's tempo map always starts at beat 0.
func New(points []Point) *List {
	l := &List{Points: append([]Point(nil), points...)}
	l.sort()
	if len(l.Points) > 0 {
		l.Points[0].Beat = beat.Zero
	}
	l.compute()
	return l
}

func (l *List) sort() {
	sort.SliceStable(l.Points, func(i, j int) bool {
		return beat.Less(l.Points[i].Beat, l.Points[j].Beat)
	})
}

// compute rebuilds every Time field from the Beat/BPM values, following the
// point list in beat order.
func (l *List) compute() {
	for i := 1; i < len(l.Points); i++ {
		prev := l.Points[i-1]
		deltaBeats := beat.Sub(l.Points[i].Beat, prev.Beat).Value()
		l.Points[i].Time = prev.Time + deltaBeats*60/prev.BPM
	}
	if len(l.Points) > 0 {
		l.Points[0].Time = 0
	}
}

// Insert adds or replaces the tempo point at the given beat and recomputes
// every derived Time field.
func (l *List) Insert(b beat.Beat, bpmValue float64) {
	for i := range l.Points {
		if beat.Equal(l.Points[i].Beat, b) {
			l.Points[i].BPM = bpmValue
			l.sort()
			l.compute()
			return
		}
	}
	l.Points = append(l.Points, Point{Beat: b, BPM: bpmValue})
	l.sort()
	l.compute()
}

// Remove deletes the tempo point at the given beat, if any. The point at
// beat.Zero can never be removed.
func (l *List) Remove(b beat.Beat) {
	if beat.Equal(b, beat.Zero) {
		return
	}
	for i := range l.Points {
		if beat.Equal(l.Points[i].Beat, b) {
			l.Points = append(l.Points[:i], l.Points[i+1:]...)
			l.compute()
			return
		}
	}
}

// pointAt returns the last point whose beat is <= query, along with its
// index.
func (l *List) pointAt(query beat.Beat) (Point, int, error) {
	if len(l.Points) == 0 {
		return Point{}, 0, ErrEmpty
	}
	idx := 0
	for i, p := range l.Points {
		if beat.LessEqual(p.Beat, query) {
			idx = i
		} else {
			break
		}
	}
	return l.Points[idx], idx, nil
}

// TimeAt converts a beat position to wall-clock seconds.
func (l *List) TimeAt(b beat.Beat) (float64, error) {
	p, _, err := l.pointAt(b)
	if err != nil {
		return 0, err
	}
	deltaBeats := beat.Sub(b, p.Beat).Value()
	return p.Time + deltaBeats*60/p.BPM, nil
}

// BeatAt converts wall-clock seconds to a beat position, the inverse of
// TimeAt within a tempo segment.
func (l *List) BeatAt(t float64) (beat.Beat, error) {
	if len(l.Points) == 0 {
		return beat.Zero, ErrEmpty
	}
	idx := 0
	for i, p := range l.Points {
		if p.Time <= t {
			idx = i
		} else {
			break
		}
	}
	p := l.Points[idx]
	deltaBeats := (t - p.Time) * p.BPM / 60
	return beat.Add(p.Beat, beat.FromFloat64(deltaBeats)), nil
}

// NormalizeBeat converts an absolute beat to the equivalent beat count as if
// the whole chart ran at referenceBPM from the start: it re-expresses the
// elapsed wall-clock time at b in beats of referenceBPM.
func (l *List) NormalizeBeat(referenceBPM float64, b beat.Beat) (beat.Beat, error) {
	t, err := l.TimeAt(b)
	if err != nil {
		return beat.Zero, err
	}
	return beat.FromFloat64(t * referenceBPM / 60), nil
}

// BaseBPM returns the tempo of the first point, used by format exporters
// that intentionally ignore later tempo changes for floor-position math.
func (l *List) BaseBPM() (float64, error) {
	if len(l.Points) == 0 {
		return 0, ErrEmpty
	}
	return l.Points[0].BPM, nil
}

// Validate checks the list invariants: non-empty, sorted strictly by beat,
// first point at beat zero.
func (l *List) Validate() error {
	if len(l.Points) == 0 {
		return ErrEmpty
	}
	if !beat.Equal(l.Points[0].Beat, beat.Zero) {
		return fmt.Errorf("bpm: first point must be at beat zero, got %v", l.Points[0].Beat)
	}
	for i := 1; i < len(l.Points); i++ {
		if !beat.Less(l.Points[i-1].Beat, l.Points[i].Beat) {
			return fmt.Errorf("bpm: points must be strictly increasing by beat at index %d", i)
		}
	}
	return nil
}
