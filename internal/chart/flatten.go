package chart

import (
	"math"

	"github.com/phichain-go/phichain/internal/beat"
	"github.com/phichain-go/phichain/internal/easing"
)

// flattenStep is the beat granularity (1/32) used to discretize a parent's
// continuous transform onto its children.
var flattenStep = beat.New(0, 1, 32)

// Flatten recursively bakes a line tree's parent transforms into its
// children's X/Y events, producing a flat list where every originally
// nested line appears at the root with its world geometry already applied.
// Each child is baked against its parent before the child's own children
// are processed, so a grandchild is baked against its parent's world-space
// events. The input tree is left unchanged; baking works on copies.
func Flatten(root *Line) []*Line {
	var out []*Line
	flattenInto(root, &out)
	return out
}

func flattenInto(l *Line, out *[]*Line) {
	for _, child := range l.Children {
		baked := *child
		flattenChild(l, &baked)
		flattenInto(&baked, out)
	}
	flat := *l
	flat.Children = nil
	*out = append(*out, &flat)
}

// flattenChild bakes parent's world transform into child's X/Y events
// in place, following §4.I: step through the union of boundary beats in
// increments of flattenStep, sampling both lines' exclusive-start /
// inclusive-end values at each step edge, and composing a 2D rotation.
func flattenChild(parent, child *Line) {
	parentGroups := parent.Events.GroupByKind()
	childGroups := child.Events.GroupByKind()

	boundaries := collectBoundaries(
		parentGroups[KindX], parentGroups[KindY], parentGroups[KindRotation],
		childGroups[KindX], childGroups[KindY],
	)
	if len(boundaries) < 2 {
		return
	}

	first, last := boundaries[0], boundaries[len(boundaries)-1]

	var worldX, worldY Sequence
	step := flattenStep.Value()

	for b := first; b < last-1e-9; b += step {
		end := b + step
		if end > last {
			end = last
		}
		bBeat := beat.FromFloat64(b)
		endBeat := beat.FromFloat64(end)

		pxS := parentGroups[KindX].evaluate(bBeat, true).orDefault(KindX)
		pyS := parentGroups[KindY].evaluate(bBeat, true).orDefault(KindY)
		prS := parentGroups[KindRotation].evaluate(bBeat, true).orDefault(KindRotation)
		pxE := parentGroups[KindX].evaluate(endBeat, false).orDefault(KindX)
		pyE := parentGroups[KindY].evaluate(endBeat, false).orDefault(KindY)
		prE := parentGroups[KindRotation].evaluate(endBeat, false).orDefault(KindRotation)

		cxS := childGroups[KindX].evaluate(bBeat, true).orDefault(KindX)
		cyS := childGroups[KindY].evaluate(bBeat, true).orDefault(KindY)
		cxE := childGroups[KindX].evaluate(endBeat, false).orDefault(KindX)
		cyE := childGroups[KindY].evaluate(endBeat, false).orDefault(KindY)

		wxS, wyS := composeRotation(pxS, pyS, prS, cxS, cyS)
		wxE, wyE := composeRotation(pxE, pyE, prE, cxE, cyE)

		worldX = append(worldX, Event{
			Kind: KindX, StartBeat: bBeat, EndBeat: endBeat,
			Value: Transitioning(wxS, wxE, easing.Named(easing.Linear)),
		})
		worldY = append(worldY, Event{
			Kind: KindY, StartBeat: bBeat, EndBeat: endBeat,
			Value: Transitioning(wyS, wyE, easing.Named(easing.Linear)),
		})
	}

	var rest Sequence
	for _, e := range child.Events {
		if e.Kind != KindX && e.Kind != KindY {
			rest = append(rest, e)
		}
	}

	replaced := append(Sequence{}, rest...)
	replaced = append(replaced, worldX...)
	replaced = append(replaced, worldY...)
	child.Events = replaced
}

// composeRotation applies the standard 2D rotation matrix (rotating the
// child's local offset by the parent's rotation, in degrees) and translates
// by the parent's world position.
func composeRotation(px, py, rotationDeg, cx, cy float64) (x, y float64) {
	theta := rotationDeg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	x = px + cx*cos - cy*sin
	y = py + cx*sin + cy*cos
	return x, y
}

func (r Result) orDefault(k Kind) float64 {
	if r.Kind == Unaffected {
		return k.DefaultValue()
	}
	return r.Value
}

func collectBoundaries(sequences ...Sequence) []float64 {
	seen := map[float64]struct{}{}
	var out []float64
	add := func(v float64) {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for _, seq := range sequences {
		for _, e := range seq {
			add(e.StartBeat.Value())
			add(e.EndBeat.Value())
		}
	}
	if len(out) == 0 {
		return nil
	}
	// simple insertion sort; boundary lists are small
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
