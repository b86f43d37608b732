package grounder

import (
	"fmt"
	"math"

	"groundlog/internal/formalism"
)

// VertexAssignment maps one argument position to an object.
type VertexAssignment struct {
	Position int
	Object   formalism.ObjectIndex
}

// EdgeAssignment maps an ordered pair of argument positions to objects.
// Valid only when First.Position < Second.Position.
type EdgeAssignment struct {
	First  VertexAssignment
	Second VertexAssignment
}

// EmptyAssignmentRank is the reserved rank of the assignment binding no
// position at all.
const EmptyAssignmentRank = 0

// PerfectHash maps legal (position, object) assignments over typed position
// domains to a dense rank, with rank 0 reserved for the empty assignment and
// a per-position sentinel for objects outside the domain. Edge ranks combine
// two vertex ranks as rank1*N + rank2.
type PerfectHash struct {
	numAssignments int
	remap          [][]uint32 // remap[p+1][o+1] == 0 iff o outside domain(p)
	offsets        []uint32
}

// NewPerfectHash builds the hash for the given per-position domains over a
// universe of numObjects objects. It fails with ErrCapacity when the edge
// rank space overflows the addressable range.
func NewPerfectHash(domains [][]formalism.ObjectIndex, numObjects int) (*PerfectHash, error) {
	numPositions := len(domains)

	h := &PerfectHash{
		remap:   make([][]uint32, numPositions+1),
		offsets: make([]uint32, numPositions+1),
	}

	h.remap[0] = make([]uint32, 1)
	h.offsets[0] = uint32(h.numAssignments)
	h.numAssignments++

	for p := 0; p < numPositions; p++ {
		h.remap[p+1] = make([]uint32, numObjects+1)
		h.offsets[p+1] = uint32(h.numAssignments)
		h.numAssignments++

		next := uint32(0)
		for _, o := range domains[p] {
			next++
			h.remap[p+1][uint32(o)+1] = next
			h.numAssignments++
		}
	}

	if n := uint64(h.numAssignments); n*n > uint64(math.MaxInt32) {
		return nil, fmt.Errorf("%w: %d assignments exceed the rank space", ErrCapacity, h.numAssignments)
	}
	return h, nil
}

// RankVertex returns the dense rank of a vertex assignment. ok is false when
// the object is outside the position's domain.
func (h *PerfectHash) RankVertex(position int, object formalism.ObjectIndex) (int, bool) {
	o := h.remap[position+1][uint32(object)+1]
	if o == 0 {
		return 0, false
	}
	return int(h.offsets[position+1] + o), true
}

// RankEdge returns the dense rank of an ordered edge assignment with
// position1 < position2.
func (h *PerfectHash) RankEdge(position1 int, object1 formalism.ObjectIndex, position2 int, object2 formalism.ObjectIndex) (int, bool) {
	j1, ok1 := h.RankVertex(position1, object1)
	j2, ok2 := h.RankVertex(position2, object2)
	if !ok1 || !ok2 {
		return 0, false
	}
	return j1*h.numAssignments + j2, true
}

// NumVertexRanks returns the number of legal vertex ranks including
// sentinels.
func (h *PerfectHash) NumVertexRanks() int { return h.numAssignments }

// Size returns the size of the full rank space (vertex and edge ranks).
func (h *PerfectHash) Size() int { return h.numAssignments * h.numAssignments }
