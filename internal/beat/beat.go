// Package beat implements exact-rational beat positions used throughout the
// chart engine: a whole-beat count plus a reduced fractional remainder, so
// that equality and ordering never suffer floating-point drift.
package beat

import (
	"encoding/json"
	"fmt"
	"math"
)

// Beat is a whole beat count plus a fractional remainder, kept as a reduced
// ratio. The fractional part is not normalized into [0, 1) until Reduce is
// called; arithmetic (Add, Sub) is componentwise and does not carry, mirroring
// the teacher's ratio type.
type Beat struct {
	Whole int32
	Num   int32
	Den   int32
}

// New builds a Beat from a whole-beat count and a num/den fraction, reducing
// the fraction to lowest terms with a positive denominator.
func New(whole, num, den int32) Beat {
	n, d := reduceFraction(num, den)
	return Beat{Whole: whole, Num: n, Den: d}
}

var (
	// Zero is the beat at the start of the chart.
	Zero = Beat{0, 0, 1}
	// One is exactly one beat.
	One = Beat{1, 0, 1}
	// Max and Min bound the representable whole-beat range.
	Max = Beat{math.MaxInt32, 0, 1}
	Min = Beat{math.MinInt32, 0, 1}
)

func reduceFraction(num, den int32) (int32, int32) {
	if den == 0 {
		panic("beat: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	if num == 0 {
		return 0, 1
	}
	g := gcd32(abs32(num), den)
	return num / g, den / g
}

func gcd32(a, b int32) int32 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Reduce absorbs the integer part of the fractional remainder into Whole,
// leaving a fraction strictly between -1 and 1 (and non-negative whenever the
// reduced value as a whole is non-negative).
func (b Beat) Reduce() Beat {
	if b.Num == 0 {
		return Beat{b.Whole, 0, 1}
	}
	intPart := b.Num / b.Den
	remNum := b.Num - intPart*b.Den
	if remNum < 0 && b.Den > 0 {
		// Floor rather than truncate, so the remainder is never negative.
		remNum += b.Den
		intPart--
	}
	n, d := reduceFraction(remNum, b.Den)
	return Beat{Whole: b.Whole + intPart, Num: n, Den: d}
}

// Add returns a + b, componentwise (no carry; call Reduce to normalize).
func Add(a, b Beat) Beat {
	n, d := addFrac(a.Num, a.Den, b.Num, b.Den)
	return Beat{Whole: a.Whole + b.Whole, Num: n, Den: d}
}

// Sub returns a - b, componentwise (no carry; call Reduce to normalize).
func Sub(a, b Beat) Beat {
	n, d := addFrac(a.Num, a.Den, -b.Num, b.Den)
	return Beat{Whole: a.Whole - b.Whole, Num: n, Den: d}
}

func addFrac(an, ad, bn, bd int32) (int32, int32) {
	num := an*bd + bn*ad
	den := ad * bd
	return reduceFraction(num, den)
}

// Compare returns -1, 0, or 1 after reducing both operands, comparing Whole
// first and the reduced fraction second.
func Compare(a, b Beat) int {
	ra, rb := a.Reduce(), b.Reduce()
	if ra.Whole != rb.Whole {
		if ra.Whole < rb.Whole {
			return -1
		}
		return 1
	}
	// Same denominator after independent reduction is not guaranteed, so
	// cross-multiply.
	lhs := int64(ra.Num) * int64(rb.Den)
	rhs := int64(rb.Num) * int64(ra.Den)
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}

// Equal reports whether a and b denote the same beat position.
func Equal(a, b Beat) bool { return Compare(a, b) == 0 }

// Less reports whether a occurs strictly before b.
func Less(a, b Beat) bool { return Compare(a, b) < 0 }

// LessEqual reports whether a occurs at or before b.
func LessEqual(a, b Beat) bool { return Compare(a, b) <= 0 }

// Value converts the beat to a floating-point beat count.
func (b Beat) Value() float64 {
	return float64(b.Whole) + float64(b.Num)/float64(b.Den)
}

// FromFloat64 converts a floating-point beat count to a Beat by decomposing
// its binary representation into a reduced fraction, then folding the
// integer part into Whole. The denominator is a power of two no larger than
// 2^20; binary digits finer than that are rounded away.
func FromFloat64(v float64) Beat {
	if v == 0 {
		return Zero
	}
	frac, exp := math.Frexp(v)
	const mantissaBits = 53
	mantissa := int64(frac * float64(int64(1)<<mantissaBits))
	exp -= mantissaBits

	var num, den int64
	if exp >= 0 {
		num = mantissa << uint(exp)
		den = 1
	} else {
		shift := uint(-exp)
		const maxShift = 20
		if shift > maxShift {
			// Keep the denominator within int32 range: round away the
			// bits finer than 2^-maxShift.
			drop := shift - maxShift
			if drop >= 63 {
				mantissa = 0
			} else {
				mantissa = (mantissa + int64(1)<<(drop-1)) >> drop
			}
			shift = maxShift
		}
		num = mantissa
		den = int64(1) << shift
	}

	g := gcd64(abs64(num), den)
	num /= g
	den /= g

	whole := num / den
	remNum := num - whole*den
	n, d := reduceFraction(int32(remNum), int32(den))
	return Beat{Whole: int32(whole), Num: n, Den: d}
}

func gcd64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Attach snaps a floating-point beat value to the nearest grid line at the
// given density (subdivisions per beat), returning an exact Beat.
func Attach(value float64, density uint32) Beat {
	step := 1.0 / float64(density)
	rounded := math.Round(value/step) * step
	integerPart := math.Floor(rounded)
	fractionalPart := math.Round((rounded - integerPart) * float64(density))
	return New(int32(integerPart), int32(fractionalPart), int32(density))
}

// String renders the beat in "whole+num/den" form, matching the teacher's
// Debug implementation for the equivalent Rust type.
func (b Beat) String() string {
	return fmt.Sprintf("%d+%d/%d", b.Whole, b.Num, b.Den)
}

// MarshalJSON encodes the beat as the 3-tuple [whole, num, den].
func (b Beat) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int32{b.Whole, b.Num, b.Den})
}

// UnmarshalJSON decodes the beat from the 3-tuple [whole, num, den].
func (b *Beat) UnmarshalJSON(data []byte) error {
	var tuple [3]int32
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("decode beat tuple: %w", err)
	}
	if tuple[2] == 0 {
		return fmt.Errorf("decode beat tuple: zero denominator")
	}
	n, d := reduceFraction(tuple[1], tuple[2])
	*b = Beat{Whole: tuple[0], Num: n, Den: d}
	return nil
}
