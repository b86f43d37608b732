package interval

import (
	"math"
	"testing"
)

func TestEmptyAndHull(t *testing.T) {
	e := Empty()
	if !e.IsEmpty() {
		t.Fatal("Empty() should be empty")
	}
	h := Hull(e, Point(3))
	if h.Lo != 3 || h.Hi != 3 {
		t.Errorf("hull with empty = %+v, want [3,3]", h)
	}
	h = Hull(Point(1), Point(5))
	if h.Lo != 1 || h.Hi != 5 {
		t.Errorf("hull = %+v, want [1,5]", h)
	}
}

func TestArithmetic(t *testing.T) {
	a := Interval{Lo: 1, Hi: 2}
	b := Interval{Lo: -3, Hi: 4}

	if got := Add(a, b); got.Lo != -2 || got.Hi != 6 {
		t.Errorf("Add = %+v", got)
	}
	if got := Sub(a, b); got.Lo != -3 || got.Hi != 5 {
		t.Errorf("Sub = %+v", got)
	}
	if got := Mul(a, b); got.Lo != -6 || got.Hi != 8 {
		t.Errorf("Mul = %+v", got)
	}
	if got := a.Neg(); got.Lo != -2 || got.Hi != -1 {
		t.Errorf("Neg = %+v", got)
	}
}

func TestDivStraddlingZero(t *testing.T) {
	got := Div(Point(1), Interval{Lo: -1, Hi: 1})
	if !math.IsInf(got.Lo, -1) || !math.IsInf(got.Hi, 1) {
		t.Errorf("Div by zero-straddling interval = %+v, want full line", got)
	}
	got = Div(Interval{Lo: 2, Hi: 4}, Interval{Lo: 1, Hi: 2})
	if got.Lo != 1 || got.Hi != 4 {
		t.Errorf("Div = %+v, want [1,4]", got)
	}
}

func TestComparisonsArePessimisticOnEmpty(t *testing.T) {
	e := Empty()
	p := Point(1)
	if MaybeEQ(e, p) || MaybeNE(e, p) || MaybeLT(e, p) || MaybeGT(e, p) || MaybeLE(e, p) || MaybeGE(e, p) {
		t.Error("comparisons on the empty interval must be false")
	}
}

func TestMaybeComparisons(t *testing.T) {
	a := Interval{Lo: 3, Hi: 3}
	five := Point(5)
	if MaybeGT(a, five) {
		t.Error("3 > 5 should be impossible")
	}
	if !MaybeGT(Point(7), five) {
		t.Error("7 > 5 should be possible")
	}
	wide := Interval{Lo: 3, Hi: 7}
	if !MaybeGT(wide, five) || !MaybeLT(wide, five) {
		t.Error("[3,7] vs 5 should allow both < and >")
	}
	if MaybeNE(a, Point(3)) {
		t.Error("two equal points cannot differ")
	}
	if !MaybeEQ(wide, five) {
		t.Error("[3,7] can equal 5")
	}
}
