package grounder

import (
	"fmt"

	"groundlog/internal/formalism"
)

// PredicateFactSet is the dense membership structure for the ground atoms of
// one fact kind: a growable membership table over ground-atom indices plus
// the insertion-ordered index list. Membership is monotone within a run.
type PredicateFactSet struct {
	indices []formalism.GroundAtomIndex
	member  []bool
	counts  []int // facts per predicate, for scheduling
}

// Insert records a ground atom; it reports whether the atom was new.
func (s *PredicateFactSet) Insert(i formalism.GroundAtomIndex, pred formalism.PredicateIndex) bool {
	if int(i) >= len(s.member) {
		grown := make([]bool, int(i)+1)
		copy(grown, s.member)
		s.member = grown
	}
	if s.member[i] {
		return false
	}
	s.member[i] = true
	s.indices = append(s.indices, i)
	if int(pred) >= len(s.counts) {
		grown := make([]int, int(pred)+1)
		copy(grown, s.counts)
		s.counts = grown
	}
	s.counts[pred]++
	return true
}

// Contains reports membership of a ground atom index.
func (s *PredicateFactSet) Contains(i formalism.GroundAtomIndex) bool {
	return int(i) < len(s.member) && s.member[i]
}

// Facts returns the atoms in insertion order.
func (s *PredicateFactSet) Facts() []formalism.GroundAtomIndex { return s.indices }

// CountFor returns the number of facts of one predicate.
func (s *PredicateFactSet) CountFor(pred formalism.PredicateIndex) int {
	if int(pred) >= len(s.counts) {
		return 0
	}
	return s.counts[pred]
}

// Len returns the total number of facts.
func (s *PredicateFactSet) Len() int { return len(s.indices) }

// FunctionFactSet maps ground function term indices to their values. A term
// may be bound at most once; unknown terms read as NaN and make numeric
// constraints unsatisfied.
type FunctionFactSet struct {
	indices []formalism.GroundFunctionTermIndex
	values  []float64
	known   []bool
}

// Insert binds a ground function term to a value.
func (s *FunctionFactSet) Insert(i formalism.GroundFunctionTermIndex, value float64) error {
	if int(i) >= len(s.known) {
		grownKnown := make([]bool, int(i)+1)
		copy(grownKnown, s.known)
		s.known = grownKnown
		grownValues := make([]float64, int(i)+1)
		copy(grownValues, s.values)
		s.values = grownValues
	}
	if s.known[i] {
		return fmt.Errorf("multiple value assignments to ground function term %d", i)
	}
	s.known[i] = true
	s.values[i] = value
	s.indices = append(s.indices, i)
	return nil
}

// Known reports whether the term has a value.
func (s *FunctionFactSet) Known(i formalism.GroundFunctionTermIndex) bool {
	return int(i) < len(s.known) && s.known[i]
}

// Value returns the term's value, or NaN when unknown.
func (s *FunctionFactSet) Value(i formalism.GroundFunctionTermIndex) float64 {
	if !s.Known(i) {
		return nan()
	}
	return s.values[i]
}

// Terms returns the bound terms in insertion order.
func (s *FunctionFactSet) Terms() []formalism.GroundFunctionTermIndex { return s.indices }

// TaggedFactSets bundles the predicate and function fact sets of one kind.
type TaggedFactSets struct {
	Predicate PredicateFactSet
	Function  FunctionFactSet
}

// FactSets holds all facts per stratum kind. They are created from the
// initial program view, mutated only by the scheduler during the merge
// phase, and consumed read-only by the workers.
type FactSets struct {
	sets [formalism.NumKinds]TaggedFactSets
}

// NewFactSets returns empty fact sets.
func NewFactSets() *FactSets { return &FactSets{} }

// Tagged returns the sets of one kind.
func (f *FactSets) Tagged(kind formalism.Kind) *TaggedFactSets { return &f.sets[kind] }
