package easing

// BezierTween solves a cubic-bezier timing function with control points
// (0,0), p1, p2, (1,1) the way browsers resolve CSS cubic-bezier() curves:
// a sampled lookup table seeds a Newton-Raphson search for t given x, with a
// binary-subdivision fallback where the slope is too shallow to converge.
//
// https://github.com/gre/bezier-easing
type BezierTween struct {
	sampleTable [sampleTableSize]float64
	p1x, p1y    float64
	p2x, p2y    float64
}

const (
	sampleTableSize        = 21
	sampleStep             = 1.0 / float64(sampleTableSize-1)
	newtonMinSlope         = 1e-3
	newtonIterations       = 4
	subdivisionPrecision   = 1e-7
	subdivisionMaxIteration = 10
	slopeEpsilon           = 1e-7
)

// NewBezierTween builds the solver and precomputes its sample table.
func NewBezierTween(x1, y1, x2, y2 float64) *BezierTween {
	t := &BezierTween{p1x: x1, p1y: y1, p2x: x2, p2y: y2}
	for i := range t.sampleTable {
		t.sampleTable[i] = sampleCurve(x1, x2, float64(i)*sampleStep)
	}
	return t
}

func coefficients(a1, a2 float64) (a, b, c float64) {
	return (a1-a2)*3 + 1, a2*3 - a1*6, a1 * 3
}

func sampleCurve(a1, a2, t float64) float64 {
	a, b, c := coefficients(a1, a2)
	return ((a*t+b)*t+c)*t
}

func slopeCurve(a1, a2, t float64) float64 {
	a, b, c := coefficients(a1, a2)
	return (a*3*t+b*2)*t + c
}

func newtonRaphson(x, t, x1, x2 float64) float64 {
	for i := 0; i < newtonIterations; i++ {
		slope := slopeCurve(x1, x2, t)
		if slope <= slopeEpsilon {
			return t
		}
		diff := sampleCurve(x1, x2, t) - x
		t -= diff / slope
	}
	return t
}

func binarySubdivide(x, l, r, x1, x2 float64) float64 {
	t := (l + r) / 2
	for i := 0; i < subdivisionMaxIteration; i++ {
		diff := sampleCurve(x1, x2, t) - x
		if abs(diff) <= subdivisionPrecision {
			break
		}
		if diff > 0 {
			r = t
		} else {
			l = t
		}
		t = (l + r) / 2
	}
	return t
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// TForX solves for the bezier parameter t such that the curve's x-component
// equals x.
func (b *BezierTween) TForX(x float64) float64 {
	if x == 0 || x == 1 {
		return x
	}

	id := int(x / sampleStep)
	if id > sampleTableSize-2 {
		id = sampleTableSize - 2
	}
	dist := (x - b.sampleTable[id]) / (b.sampleTable[id+1] - b.sampleTable[id])
	initT := sampleStep * (float64(id) + dist)

	slope := slopeCurve(b.p1x, b.p2x, initT)
	switch {
	case slope <= slopeEpsilon:
		return initT
	case slope >= newtonMinSlope:
		return newtonRaphson(x, initT, b.p1x, b.p2x)
	default:
		return binarySubdivide(x, sampleStep*float64(id), sampleStep*float64(id+1), b.p1x, b.p2x)
	}
}

// Y evaluates the curve's y-component at the given x.
func (b *BezierTween) Y(x float64) float64 {
	return sampleCurve(b.p1y, b.p2y, b.TForX(x))
}
