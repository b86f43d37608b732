// Package interval implements closed float64 intervals with hull-based
// arithmetic. Intervals summarise the values a ground function term may take
// under a partial assignment; the empty interval means no value is possible.
package interval

import "math"

// Interval is a closed interval [Lo, Hi]. Lo > Hi denotes the empty interval.
type Interval struct {
	Lo float64
	Hi float64
}

// Empty returns the empty interval.
func Empty() Interval {
	return Interval{Lo: math.Inf(1), Hi: math.Inf(-1)}
}

// Point returns the degenerate interval [v, v].
func Point(v float64) Interval {
	return Interval{Lo: v, Hi: v}
}

// IsEmpty reports whether i contains no value.
func (i Interval) IsEmpty() bool { return i.Lo > i.Hi }

// Hull returns the smallest interval containing both a and b.
func Hull(a, b Interval) Interval {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	return Interval{Lo: math.Min(a.Lo, b.Lo), Hi: math.Max(a.Hi, b.Hi)}
}

// Neg returns {-x : x in i}.
func (i Interval) Neg() Interval {
	if i.IsEmpty() {
		return Empty()
	}
	return Interval{Lo: -i.Hi, Hi: -i.Lo}
}

// Add returns {x+y : x in a, y in b}.
func Add(a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	return Interval{Lo: a.Lo + b.Lo, Hi: a.Hi + b.Hi}
}

// Sub returns {x-y : x in a, y in b}.
func Sub(a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	return Interval{Lo: a.Lo - b.Hi, Hi: a.Hi - b.Lo}
}

// Mul returns the hull of {x*y : x in a, y in b}.
func Mul(a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	p1, p2, p3, p4 := a.Lo*b.Lo, a.Lo*b.Hi, a.Hi*b.Lo, a.Hi*b.Hi
	return Interval{
		Lo: math.Min(math.Min(p1, p2), math.Min(p3, p4)),
		Hi: math.Max(math.Max(p1, p2), math.Max(p3, p4)),
	}
}

// Div returns a conservative hull of {x/y : x in a, y in b}. A divisor
// interval straddling zero widens to the full line.
func Div(a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	if b.Lo <= 0 && b.Hi >= 0 {
		return Interval{Lo: math.Inf(-1), Hi: math.Inf(1)}
	}
	return Mul(a, Interval{Lo: 1 / b.Hi, Hi: 1 / b.Lo})
}

// MaybeEQ reports whether a and b can possibly be equal.
func MaybeEQ(a, b Interval) bool {
	return !a.IsEmpty() && !b.IsEmpty() && a.Lo <= b.Hi && b.Lo <= a.Hi
}

// MaybeNE reports whether a and b can possibly differ.
func MaybeNE(a, b Interval) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	// Only impossible when both are the same single point.
	return !(a.Lo == a.Hi && b.Lo == b.Hi && a.Lo == b.Lo)
}

// MaybeLT reports whether some x in a is strictly below some y in b.
func MaybeLT(a, b Interval) bool {
	return !a.IsEmpty() && !b.IsEmpty() && a.Lo < b.Hi
}

// MaybeLE reports whether some x in a is at most some y in b.
func MaybeLE(a, b Interval) bool {
	return !a.IsEmpty() && !b.IsEmpty() && a.Lo <= b.Hi
}

// MaybeGT reports whether some x in a is strictly above some y in b.
func MaybeGT(a, b Interval) bool {
	return !a.IsEmpty() && !b.IsEmpty() && a.Hi > b.Lo
}

// MaybeGE reports whether some x in a is at least some y in b.
func MaybeGE(a, b Interval) bool {
	return !a.IsEmpty() && !b.IsEmpty() && a.Hi >= b.Lo
}
