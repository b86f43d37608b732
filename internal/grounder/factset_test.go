package grounder

import (
	"math"
	"testing"

	"groundlog/internal/formalism"
)

func TestPredicateFactSetInsertContains(t *testing.T) {
	var s PredicateFactSet
	if s.Contains(3) {
		t.Error("empty set should contain nothing")
	}
	if !s.Insert(3, 0) {
		t.Error("first insert should report new")
	}
	if s.Insert(3, 0) {
		t.Error("re-insert should report known")
	}
	if !s.Contains(3) || s.Contains(2) {
		t.Error("membership wrong")
	}
	if s.Len() != 1 || s.CountFor(0) != 1 || s.CountFor(9) != 0 {
		t.Error("counts wrong")
	}
	if len(s.Facts()) != 1 || s.Facts()[0] != 3 {
		t.Errorf("Facts() = %v", s.Facts())
	}
}

func TestFunctionFactSetValues(t *testing.T) {
	var s FunctionFactSet
	if !math.IsNaN(s.Value(0)) {
		t.Error("unknown term must read as NaN")
	}
	if err := s.Insert(2, 4.5); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := s.Value(2); got != 4.5 {
		t.Errorf("Value = %v, want 4.5", got)
	}
	if err := s.Insert(2, 9); err == nil {
		t.Error("double binding must fail")
	}
	if !s.Known(2) || s.Known(1) {
		t.Error("Known wrong")
	}
}

func TestFactSetsTagged(t *testing.T) {
	f := NewFactSets()
	f.Tagged(formalism.Static).Predicate.Insert(0, 0)
	if f.Tagged(formalism.Fluent).Predicate.Len() != 0 {
		t.Error("kinds must be independent")
	}
}
