package chart

import (
	"sort"

	"github.com/phichain-go/phichain/internal/beat"
	"github.com/phichain-go/phichain/internal/easing"
)

// Sequence is a list of events, possibly of mixed kinds, with the helper
// operations needed by the resolver and by format converters.
type Sequence []Event

// Sorted returns a copy ordered by StartBeat ascending.
func (s Sequence) Sorted() Sequence {
	out := append(Sequence(nil), s...)
	sort.SliceStable(out, func(i, j int) bool {
		return beat.Less(out[i].StartBeat, out[j].StartBeat)
	})
	return out
}

// GroupByKind stably partitions the sequence into five buckets, one per
// Kind, in X/Y/Rotation/Opacity/Speed order.
func (s Sequence) GroupByKind() map[Kind]Sequence {
	groups := map[Kind]Sequence{
		KindX: {}, KindY: {}, KindRotation: {}, KindOpacity: {}, KindSpeed: {},
	}
	for _, e := range s {
		groups[e.Kind] = append(groups[e.Kind], e)
	}
	return groups
}

func (s Sequence) evaluate(b beat.Beat, exclusiveStart bool) Result {
	best := unaffectedResult()
	for _, e := range s {
		var r Result
		if exclusiveStart {
			r = e.EvaluateStartNoEffect(b)
		} else {
			r = e.Evaluate(b)
		}
		if Compare(r, best) > 0 {
			best = r
		}
	}
	return best
}

// EvaluateInclusive folds the sequence at beat b using inclusive-start
// evaluation, taking the maximum result under Compare. It returns the
// resolved numeric value, defaulting to 0 when every event is Unaffected.
func (s Sequence) EvaluateInclusive(b beat.Beat) float64 {
	r := s.evaluate(b, false)
	if r.Kind == Unaffected {
		return 0
	}
	return r.Value
}

// EvaluateExclusive is EvaluateInclusive's exclusive-start counterpart.
func (s Sequence) EvaluateExclusive(b beat.Beat) float64 {
	r := s.evaluate(b, true)
	if r.Kind == Unaffected {
		return 0
	}
	return r.Value
}

// Cut discretizes a non-linear transition event into a chain of linear
// equal-length segments, their count being span/minBeat rounded to the
// nearest whole number (at least one), sampling the original event's
// value at every segment endpoint. Constant and already-linear events pass
// through unchanged.
func Cut(e Event, minBeat beat.Beat) Sequence {
	if !e.Value.Transition || e.Value.Easing.IsLinear() {
		return Sequence{e}
	}

	span := beat.Sub(e.EndBeat, e.StartBeat)
	if !beat.Less(beat.Zero, span) {
		return Sequence{e}
	}

	steps := int(span.Value()/minBeat.Value() + 0.5)
	if steps < 1 {
		steps = 1
	}

	out := make(Sequence, 0, steps)
	prevBeat := e.StartBeat
	prevValue := e.Value.At(0)
	for i := 1; i <= steps; i++ {
		fraction := float64(i) / float64(steps)
		var curBeat beat.Beat
		if i == steps {
			curBeat = e.EndBeat
		} else {
			curBeat = beat.Add(e.StartBeat, beat.FromFloat64(span.Value()*fraction))
		}
		curValue := e.Value.At(fraction)
		out = append(out, Event{
			Kind:      e.Kind,
			StartBeat: prevBeat,
			EndBeat:   curBeat,
			Value:     Transitioning(prevValue, curValue, easing.Named(easing.Linear)),
		})
		prevBeat = curBeat
		prevValue = curValue
	}
	return out
}

// FillGap inserts constant filler events so the union of the sequence's
// intervals covers [first start, last end] with no holes, using
// defaultValue for any gap. The input is ordered by StartBeat first, so it
// need not be sorted.
func FillGap(events Sequence, kind Kind, defaultValue float64) Sequence {
	if len(events) == 0 {
		return nil
	}
	sorted := events.Sorted()
	out := make(Sequence, 0, len(sorted)*2)
	cursor := sorted[0].StartBeat
	for _, e := range sorted {
		if beat.Less(cursor, e.StartBeat) {
			out = append(out, Event{
				Kind:      kind,
				StartBeat: cursor,
				EndBeat:   e.StartBeat,
				Value:     Constant(defaultValue),
			})
		}
		out = append(out, e)
		if beat.Less(cursor, e.EndBeat) {
			cursor = e.EndBeat
		}
	}
	return out
}

// MergeConstantRuns coalesces adjacent constant events with equal values
// and contiguous beats into a single constant event spanning the run.
func MergeConstantRuns(events Sequence) Sequence {
	sorted := events.Sorted()
	out := make(Sequence, 0, len(sorted))
	for _, e := range sorted {
		if n := len(out); n > 0 {
			last := out[n-1]
			if !last.Value.Transition && !e.Value.Transition &&
				last.Kind == e.Kind &&
				last.Value.Start == e.Value.Start &&
				beat.Equal(last.EndBeat, e.StartBeat) {
				out[n-1].EndBeat = e.EndBeat
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// FitEasing attempts to reverse-engineer a single eased transition from a
// chain of contiguous, equal-duration transition events whose endpoints
// progress monotonically. It tries each candidate easing in order and
// accepts the first whose predicted values all land within eps of the real
// sampled endpoints; it returns the original chain unchanged on failure.
func FitEasing(chain Sequence, candidates []easing.Easing, eps float64) Sequence {
	if len(chain) < 2 {
		return chain
	}
	sorted := chain.Sorted()

	span := beat.Sub(sorted[0].EndBeat, sorted[0].StartBeat).Value()
	for i := 1; i < len(sorted); i++ {
		if !beat.Equal(sorted[i-1].EndBeat, sorted[i].StartBeat) {
			return chain
		}
		thisSpan := beat.Sub(sorted[i].EndBeat, sorted[i].StartBeat).Value()
		if absFloat(thisSpan-span) > 1e-6 {
			return chain
		}
		if !sorted[i].Value.Transition || !sorted[i-1].Value.Transition {
			return chain
		}
	}

	start := sorted[0].Value.Start
	end := sorted[len(sorted)-1].Value.End
	total := beat.Sub(sorted[len(sorted)-1].EndBeat, sorted[0].StartBeat).Value()
	if total == 0 {
		return chain
	}

	for _, candidate := range candidates {
		ok := true
		cumulative := sorted[0].StartBeat
		for _, seg := range sorted {
			segFraction := beat.Sub(seg.EndBeat, sorted[0].StartBeat).Value() / total
			predicted := start + candidate.Ease(segFraction)*(end-start)
			if absFloat(predicted-seg.Value.End) > eps {
				ok = false
				break
			}
			cumulative = seg.EndBeat
		}
		_ = cumulative
		if ok {
			return Sequence{{
				Kind:      sorted[0].Kind,
				StartBeat: sorted[0].StartBeat,
				EndBeat:   sorted[len(sorted)-1].EndBeat,
				Value:     Transitioning(start, end, candidate),
			}}
		}
	}
	return chain
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
