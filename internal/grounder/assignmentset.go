package grounder

import (
	"fmt"

	"groundlog/internal/analysis"
	"groundlog/internal/bitset"
	"groundlog/internal/formalism"
	"groundlog/internal/interval"
)

// PredicateAssignmentSet summarises the ground atoms of one predicate: a bit
// is set at a vertex or edge rank iff at least one ground fact supports that
// assignment of objects to argument positions.
type PredicateAssignmentSet struct {
	hash *PerfectHash
	set  bitset.Set
}

func newPredicateAssignmentSet(domains [][]formalism.ObjectIndex, numObjects int) (PredicateAssignmentSet, error) {
	h, err := NewPerfectHash(domains, numObjects)
	if err != nil {
		return PredicateAssignmentSet{}, err
	}
	return PredicateAssignmentSet{hash: h, set: bitset.New(h.Size())}, nil
}

// Reset clears all support bits.
func (s *PredicateAssignmentSet) Reset() { s.set.Reset() }

// Insert records support for every vertex and every ordered position pair of
// a ground atom. The atom's objects must lie in the position domains the set
// was built from; domain analysis guarantees this for reachable facts.
func (s *PredicateAssignmentSet) Insert(objects []formalism.ObjectIndex) {
	for i, o1 := range objects {
		r1, ok := s.hash.RankVertex(i, o1)
		if !ok {
			panic(fmt.Sprintf("grounder: ground atom object %d outside domain of position %d", o1, i))
		}
		s.set.Set(r1)
		for j := i + 1; j < len(objects); j++ {
			r, ok := s.hash.RankEdge(i, o1, j, objects[j])
			if !ok {
				panic(fmt.Sprintf("grounder: ground atom object %d outside domain of position %d", objects[j], j))
			}
			s.set.Set(r)
		}
	}
}

// ContainsVertex reports support for (position, object).
func (s *PredicateAssignmentSet) ContainsVertex(position int, object formalism.ObjectIndex) bool {
	r, ok := s.hash.RankVertex(position, object)
	return ok && s.set.Test(r)
}

// ContainsEdge reports support for the ordered pair; positions need not be
// ordered on input.
func (s *PredicateAssignmentSet) ContainsEdge(position1 int, object1 formalism.ObjectIndex, position2 int, object2 formalism.ObjectIndex) bool {
	if position1 == position2 {
		return object1 == object2 && s.ContainsVertex(position1, object1)
	}
	if position1 > position2 {
		position1, position2 = position2, position1
		object1, object2 = object2, object1
	}
	r, ok := s.hash.RankEdge(position1, object1, position2, object2)
	return ok && s.set.Test(r)
}

// Size returns the rank-space size.
func (s *PredicateAssignmentSet) Size() int { return s.set.Len() }

// FunctionAssignmentSet is the numeric analogue: each vertex/edge cell holds
// the closed interval hull of the values seen for that assignment, used for
// numeric-constraint pruning via interval evaluation.
type FunctionAssignmentSet struct {
	hash  *PerfectHash
	cells []interval.Interval
}

func newFunctionAssignmentSet(domains [][]formalism.ObjectIndex, numObjects int) (FunctionAssignmentSet, error) {
	h, err := NewPerfectHash(domains, numObjects)
	if err != nil {
		return FunctionAssignmentSet{}, err
	}
	cells := make([]interval.Interval, h.Size())
	for i := range cells {
		cells[i] = interval.Empty()
	}
	return FunctionAssignmentSet{hash: h, cells: cells}, nil
}

// Reset empties every cell.
func (s *FunctionAssignmentSet) Reset() {
	for i := range s.cells {
		s.cells[i] = interval.Empty()
	}
}

// Insert widens the hulls of the empty assignment and of every vertex and
// ordered position pair of a ground function term.
func (s *FunctionAssignmentSet) Insert(objects []formalism.ObjectIndex, value float64) {
	point := interval.Point(value)
	s.cells[EmptyAssignmentRank] = interval.Hull(s.cells[EmptyAssignmentRank], point)

	for i, o1 := range objects {
		r1, ok := s.hash.RankVertex(i, o1)
		if !ok {
			panic(fmt.Sprintf("grounder: function term object %d outside domain of position %d", o1, i))
		}
		s.cells[r1] = interval.Hull(s.cells[r1], point)
		for j := i + 1; j < len(objects); j++ {
			r, ok := s.hash.RankEdge(i, o1, j, objects[j])
			if !ok {
				panic(fmt.Sprintf("grounder: function term object %d outside domain of position %d", objects[j], j))
			}
			s.cells[r] = interval.Hull(s.cells[r], point)
		}
	}
}

// AtEmpty returns the hull over all values of the function.
func (s *FunctionAssignmentSet) AtEmpty() interval.Interval {
	return s.cells[EmptyAssignmentRank]
}

// AtVertex returns the hull of values seen with object at position. Objects
// outside the domain yield the empty interval.
func (s *FunctionAssignmentSet) AtVertex(position int, object formalism.ObjectIndex) interval.Interval {
	r, ok := s.hash.RankVertex(position, object)
	if !ok {
		return interval.Empty()
	}
	return s.cells[r]
}

// AtEdge returns the hull for the ordered position pair; positions need not
// be ordered on input.
func (s *FunctionAssignmentSet) AtEdge(position1 int, object1 formalism.ObjectIndex, position2 int, object2 formalism.ObjectIndex) interval.Interval {
	if position1 == position2 {
		if object1 != object2 {
			return interval.Empty()
		}
		return s.AtVertex(position1, object1)
	}
	if position1 > position2 {
		position1, position2 = position2, position1
		object1, object2 = object2, object1
	}
	r, ok := s.hash.RankEdge(position1, object1, position2, object2)
	if !ok {
		return interval.Empty()
	}
	return s.cells[r]
}

// TaggedAssignmentSets bundles the predicate and function assignment sets of
// one fact kind.
type TaggedAssignmentSets struct {
	Predicates []PredicateAssignmentSet
	Functions  []FunctionAssignmentSet
}

func newTaggedAssignmentSets(p *formalism.Program, kind formalism.Kind, domains *analysis.Domains) (TaggedAssignmentSets, error) {
	numObjects := len(p.Objects)
	t := TaggedAssignmentSets{
		Predicates: make([]PredicateAssignmentSet, len(p.Predicates[kind])),
		Functions:  make([]FunctionAssignmentSet, len(p.Functions[kind])),
	}
	var err error
	for i := range t.Predicates {
		t.Predicates[i], err = newPredicateAssignmentSet(domains.PredicatePositions[kind][i], numObjects)
		if err != nil {
			return TaggedAssignmentSets{}, err
		}
	}
	for i := range t.Functions {
		t.Functions[i], err = newFunctionAssignmentSet(domains.FunctionPositions[kind][i], numObjects)
		if err != nil {
			return TaggedAssignmentSets{}, err
		}
	}
	return t, nil
}

// Reset clears all sets of the kind.
func (t *TaggedAssignmentSets) Reset() {
	for i := range t.Predicates {
		t.Predicates[i].Reset()
	}
	for i := range t.Functions {
		t.Functions[i].Reset()
	}
}

// InsertFacts replays a tagged fact set into the assignment sets.
func (t *TaggedAssignmentSets) InsertFacts(repo *formalism.Repository, kind formalism.Kind, facts *TaggedFactSets) {
	for _, ai := range facts.Predicate.Facts() {
		atom := repo.GroundAtom(kind, ai)
		t.Predicates[atom.Predicate].Insert(atom.Objects)
	}
	for _, fi := range facts.Function.Terms() {
		ft := repo.GroundFTerm(kind, fi)
		t.Functions[ft.Function].Insert(ft.Objects, facts.Function.Value(fi))
	}
}

// AssignmentSets bundles both strata. The static sets are built once; the
// fluent sets are rebuilt after each batch of new facts is merged.
type AssignmentSets struct {
	sets [formalism.NumKinds]TaggedAssignmentSets
}

// NewAssignmentSets allocates empty assignment sets for a program.
func NewAssignmentSets(p *formalism.Program, domains *analysis.Domains) (*AssignmentSets, error) {
	a := &AssignmentSets{}
	for _, k := range formalism.Kinds {
		t, err := newTaggedAssignmentSets(p, k, domains)
		if err != nil {
			return nil, err
		}
		a.sets[k] = t
	}
	return a, nil
}

// Tagged returns the sets of one kind.
func (a *AssignmentSets) Tagged(kind formalism.Kind) *TaggedAssignmentSets {
	return &a.sets[kind]
}
