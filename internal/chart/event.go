// Package chart models a single Phichain chart: its lines, notes, and line
// events, the evaluator that turns those events into per-frame line state,
// and the speed integrator, curve-note-track generator, and flattening
// compiler built on top of them.
package chart

import (
	"math"

	"github.com/phichain-go/phichain/internal/beat"
	"github.com/phichain-go/phichain/internal/easing"
)

// Kind identifies which line property an event drives.
type Kind int

const (
	KindX Kind = iota
	KindY
	KindRotation
	KindOpacity
	KindSpeed
)

// DefaultValue is the value a line property takes when no event affects it,
// per the resolver's defaults (4.F): position and rotation at the origin,
// full opacity, and the default judge-line speed.
func (k Kind) DefaultValue() float64 {
	if k == KindOpacity {
		return 255
	}
	if k == KindSpeed {
		return 10
	}
	return 0
}

// Value is either a constant or a tween between Start and End eased by
// Easing. Constant values store the same number in Start and End.
type Value struct {
	Transition bool
	Start      float64
	End        float64
	Easing     easing.Easing
}

// Constant builds a non-transitioning event value.
func Constant(v float64) Value { return Value{Start: v, End: v} }

// Transitioning builds a tweened event value.
func Transitioning(start, end float64, e easing.Easing) Value {
	return Value{Transition: true, Start: start, End: end, Easing: e}
}

// At evaluates the value at the given fraction through the event's interval
// (0 at start_beat, 1 at end_beat).
func (v Value) At(fraction float64) float64 {
	if !v.Transition {
		return v.Start
	}
	return v.Start + v.Easing.Ease(fraction)*(v.End-v.Start)
}

// Event is a single piecewise-function segment over [StartBeat, EndBeat].
type Event struct {
	Kind      Kind
	StartBeat beat.Beat
	EndBeat   beat.Beat
	Value     Value
}

func (e Event) fraction(b beat.Beat) float64 {
	span := beat.Sub(e.EndBeat, e.StartBeat).Value()
	if span == 0 {
		return 0
	}
	return beat.Sub(b, e.StartBeat).Value() / span
}

// ResultKind distinguishes the three possible evaluation outcomes.
type ResultKind int

const (
	Unaffected ResultKind = iota
	Inherited
	Affecting
)

// Result is the outcome of evaluating a single event at a beat.
type Result struct {
	Kind  ResultKind
	From  beat.Beat // meaningful only when Kind == Inherited
	Value float64   // meaningful when Kind == Inherited or Affecting
}

func unaffectedResult() Result { return Result{Kind: Unaffected} }

func inheritedResult(from beat.Beat, value float64) Result {
	return Result{Kind: Inherited, From: from, Value: value}
}

func affectingResult(value float64) Result {
	return Result{Kind: Affecting, Value: value}
}

// Compare orders results Unaffected < Inherited < Affecting; within
// Inherited, by From beat; within Affecting, by numeric value with NaN
// sorting last.
func Compare(a, b Result) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case Unaffected:
		return 0
	case Inherited:
		return beat.Compare(a.From, b.From)
	default: // Affecting
		return compareFloatNaNLast(a.Value, b.Value)
	}
}

func compareFloatNaNLast(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Evaluate evaluates the event at beat b with an inclusive start boundary:
// b == StartBeat is Affecting.
func (e Event) Evaluate(b beat.Beat) Result {
	if beat.Less(b, e.StartBeat) {
		return unaffectedResult()
	}
	if beat.LessEqual(b, e.EndBeat) {
		return affectingResult(e.Value.At(e.fraction(b)))
	}
	return inheritedResult(e.EndBeat, e.Value.At(1))
}

// EvaluateStartNoEffect evaluates the event at beat b with an exclusive
// start boundary: b == StartBeat is Unaffected. Child-line flattening needs
// both boundary modes to split "value up to this beat" from "value from
// this beat onward".
func (e Event) EvaluateStartNoEffect(b beat.Beat) Result {
	if beat.LessEqual(b, e.StartBeat) {
		return unaffectedResult()
	}
	if beat.LessEqual(b, e.EndBeat) {
		return affectingResult(e.Value.At(e.fraction(b)))
	}
	return inheritedResult(e.EndBeat, e.Value.At(1))
}
