package grounder

import (
	"testing"

	"groundlog/internal/formalism"
)

func TestPerfectHashVertexInjectivity(t *testing.T) {
	domains := [][]formalism.ObjectIndex{{0, 1}, {1, 2}, {0, 2}}
	h, err := NewPerfectHash(domains, 3)
	if err != nil {
		t.Fatalf("NewPerfectHash: %v", err)
	}

	seen := map[int]string{}
	for p, domain := range domains {
		for _, o := range domain {
			r, ok := h.RankVertex(p, o)
			if !ok {
				t.Fatalf("legal assignment (%d, %d) has no rank", p, o)
			}
			if r == EmptyAssignmentRank {
				t.Fatalf("vertex rank collides with the empty sentinel")
			}
			if prev, dup := seen[r]; dup {
				t.Fatalf("rank %d assigned to both %s and (%d,%d)", r, prev, p, o)
			}
			seen[r] = ""
			if r >= h.NumVertexRanks() {
				t.Fatalf("rank %d out of range %d", r, h.NumVertexRanks())
			}
		}
	}
}

func TestPerfectHashEdgeInjectivity(t *testing.T) {
	domains := [][]formalism.ObjectIndex{{0, 1}, {1, 2}}
	h, err := NewPerfectHash(domains, 3)
	if err != nil {
		t.Fatalf("NewPerfectHash: %v", err)
	}

	seen := map[int]bool{}
	for _, o1 := range domains[0] {
		for _, o2 := range domains[1] {
			r, ok := h.RankEdge(0, o1, 1, o2)
			if !ok {
				t.Fatalf("legal edge (%d,%d) has no rank", o1, o2)
			}
			if seen[r] {
				t.Fatalf("duplicate edge rank %d", r)
			}
			seen[r] = true
			if r >= h.Size() {
				t.Fatalf("edge rank %d exceeds Size %d", r, h.Size())
			}
		}
	}
}

func TestPerfectHashSentinelForOutsideDomain(t *testing.T) {
	h, err := NewPerfectHash([][]formalism.ObjectIndex{{1}}, 3)
	if err != nil {
		t.Fatalf("NewPerfectHash: %v", err)
	}
	if _, ok := h.RankVertex(0, 0); ok {
		t.Error("object outside the domain must have no rank")
	}
	if _, ok := h.RankVertex(0, 1); !ok {
		t.Error("object inside the domain must have a rank")
	}
}

func TestPredicateAssignmentSetSupport(t *testing.T) {
	domains := [][]formalism.ObjectIndex{{0, 1}, {0, 1, 2}}
	set, err := newPredicateAssignmentSet(domains, 3)
	if err != nil {
		t.Fatalf("newPredicateAssignmentSet: %v", err)
	}
	set.Insert([]formalism.ObjectIndex{0, 2})

	if !set.ContainsVertex(0, 0) || !set.ContainsVertex(1, 2) {
		t.Error("vertices of the inserted atom must be supported")
	}
	if set.ContainsVertex(0, 1) || set.ContainsVertex(1, 0) {
		t.Error("unseen vertices must not be supported")
	}
	if !set.ContainsEdge(0, 0, 1, 2) {
		t.Error("the inserted pair must be supported")
	}
	if set.ContainsEdge(0, 0, 1, 0) {
		t.Error("a mixed pair from different atoms must not be supported")
	}
	// Reversed position order works too.
	if !set.ContainsEdge(1, 2, 0, 0) {
		t.Error("edge lookup must normalize position order")
	}

	set.Reset()
	if set.ContainsVertex(0, 0) {
		t.Error("Reset must clear support")
	}
}

func TestFunctionAssignmentSetHulls(t *testing.T) {
	domains := [][]formalism.ObjectIndex{{0, 1}}
	set, err := newFunctionAssignmentSet(domains, 2)
	if err != nil {
		t.Fatalf("newFunctionAssignmentSet: %v", err)
	}
	set.Insert([]formalism.ObjectIndex{0}, 3)
	set.Insert([]formalism.ObjectIndex{1}, 7)

	all := set.AtEmpty()
	if all.Lo != 3 || all.Hi != 7 {
		t.Errorf("AtEmpty = %+v, want [3,7]", all)
	}
	v0 := set.AtVertex(0, 0)
	if v0.Lo != 3 || v0.Hi != 3 {
		t.Errorf("AtVertex(0,0) = %+v, want [3,3]", v0)
	}
	v1 := set.AtVertex(0, 1)
	if v1.Lo != 7 || v1.Hi != 7 {
		t.Errorf("AtVertex(0,1) = %+v, want [7,7]", v1)
	}
}
