package grounder

import (
	"math"

	"groundlog/internal/bitset"
	"groundlog/internal/formalism"
)

// ConstGraph is the immutable layout of a rule's enumeration graph: the
// vertex partitioning with contiguous vertex indices and the reverse map.
type ConstGraph struct {
	NumVertices       int
	K                 int
	PartitionMasks    []bitset.Set // K masks over V bits
	VertexToPartition []int
}

func newConstGraph(sg *StaticGraph) ConstGraph {
	nv := sg.NumVertices()
	cg := ConstGraph{
		NumVertices:       nv,
		K:                 sg.K(),
		PartitionMasks:    make([]bitset.Set, sg.K()),
		VertexToPartition: make([]int, nv),
	}
	for p, partition := range sg.Partitions() {
		mask := bitset.New(nv)
		for _, v := range partition {
			mask.Set(v)
			cg.VertexToPartition[v] = p
		}
		cg.PartitionMasks[p] = mask
	}
	return cg
}

// DynGraph is a mutable vertex set plus adjacency matrix over the constant
// layout. Rows share one flat block buffer.
type DynGraph struct {
	Vertices  bitset.Set
	Adjacency []bitset.Set
}

// NewDynGraph allocates an empty graph over nv vertices.
func NewDynGraph(nv int) DynGraph {
	words := bitset.NumWords(nv)
	backing := make([]uint64, nv*words)
	g := DynGraph{Vertices: bitset.New(nv), Adjacency: make([]bitset.Set, nv)}
	for v := 0; v < nv; v++ {
		g.Adjacency[v] = bitset.FromWords(backing[v*words:(v+1)*words], nv)
	}
	return g
}

// Reset clears vertices and edges.
func (g *DynGraph) Reset() {
	g.Vertices.Reset()
	for i := range g.Adjacency {
		g.Adjacency[i].Reset()
	}
}

// ContainsEdge reports the undirected edge {u, v}.
func (g *DynGraph) ContainsEdge(u, v int) bool { return g.Adjacency[u].Test(v) }

// SetEdge inserts the undirected edge {u, v}.
func (g *DynGraph) SetEdge(u, v int) {
	g.Adjacency[u].Set(v)
	g.Adjacency[v].Set(u)
}

// workspace is the preallocated per-rule scratch for clique search: the
// depth-by-partition candidate bitsets in one flat buffer, the per-anchor
// forbidden masks, and the partial solution.
type workspace struct {
	compat        [][]bitset.Set // K depths x K partitions over V bits
	forbidden     []bitset.Set   // V rows over V bits
	partitionBits bitset.Set     // K
	partial       []int
	anchorRank    int
}

func newWorkspace(k, nv int) workspace {
	words := bitset.NumWords(nv)
	compatBacking := make([]uint64, k*k*words)
	ws := workspace{
		compat:        make([][]bitset.Set, k),
		forbidden:     make([]bitset.Set, nv),
		partitionBits: bitset.New(k),
		partial:       make([]int, 0, k),
		anchorRank:    math.MaxInt,
	}
	for d := 0; d < k; d++ {
		row := make([]bitset.Set, k)
		for p := 0; p < k; p++ {
			off := (d*k + p) * words
			row[p] = bitset.FromWords(compatBacking[off:off+words], nv)
		}
		ws.compat[d] = row
	}
	forbiddenBacking := make([]uint64, nv*words)
	for v := 0; v < nv; v++ {
		ws.forbidden[v] = bitset.FromWords(forbiddenBacking[v*words:(v+1)*words], nv)
	}
	return ws
}

// DeltaKPKC enumerates the k-partite k-cliques of a rule's consistency
// graph, either all of them or only those containing at least one delta
// vertex or delta edge since the previous iteration. Activity masks track
// which vertices and edges remain candidates for future deltas;
// deactivation is monotone.
type DeltaKPKC struct {
	prog *formalism.Program
	sg   *StaticGraph

	cg    ConstGraph
	delta DynGraph
	full  DynGraph

	activeVertices bitset.Set
	activeEdges    bitset.Set
	readVertices   bitset.Set
	readEdges      bitset.Set

	iteration int
	ws        workspace
}

// NewDeltaKPKC builds the enumerator over a static consistency graph.
func NewDeltaKPKC(p *formalism.Program, sg *StaticGraph) *DeltaKPKC {
	cg := newConstGraph(sg)
	e := &DeltaKPKC{
		prog:           p,
		sg:             sg,
		cg:             cg,
		delta:          NewDynGraph(cg.NumVertices),
		full:           NewDynGraph(cg.NumVertices),
		activeVertices: bitset.New(cg.NumVertices),
		activeEdges:    bitset.New(sg.NumEdges()),
		readVertices:   bitset.New(cg.NumVertices),
		readEdges:      bitset.New(sg.NumEdges()),
		ws:             newWorkspace(cg.K, cg.NumVertices),
	}
	e.activeVertices.Fill()
	e.activeEdges.Fill()
	return e
}

// NewDeltaKPKCFromGraphs builds an enumerator from explicit graphs, for
// tests that drive the search directly.
func NewDeltaKPKCFromGraphs(cg ConstGraph, delta, full DynGraph, iteration int) *DeltaKPKC {
	return &DeltaKPKC{
		cg:        cg,
		delta:     delta,
		full:      full,
		iteration: iteration,
		ws:        newWorkspace(cg.K, cg.NumVertices),
	}
}

// Reset clears both graphs and reactivates everything; call before solving
// a new program.
func (e *DeltaKPKC) Reset() {
	e.delta.Reset()
	e.full.Reset()
	e.activeVertices.Fill()
	e.activeEdges.Fill()
	e.iteration = 0
}

// Iteration returns the number of SetNextAssignmentSets calls so far.
func (e *DeltaKPKC) Iteration() int { return e.iteration }

// FullGraph exposes the current full graph.
func (e *DeltaKPKC) FullGraph() *DynGraph { return &e.full }

// DeltaGraph exposes the current delta graph.
func (e *DeltaKPKC) DeltaGraph() *DynGraph { return &e.delta }

// DeactivateVertex permanently removes a vertex from future delta sweeps.
func (e *DeltaKPKC) DeactivateVertex(v int) { e.activeVertices.Clear(v) }

// DeactivateEdge permanently removes a static edge (by its static-graph
// edge index) from future delta sweeps.
func (e *DeltaKPKC) DeactivateEdge(ei int) { e.activeEdges.Clear(ei) }

// SetNextAssignmentSets advances one iteration: the delta graph is reset to
// the difference between the recomputed full graph and the previous one, and
// newly consistent vertices/edges are deactivated so they never re-enter a
// delta.
func (e *DeltaKPKC) SetNextAssignmentSets(sets *AssignmentSets) {
	e.iteration++

	// The old full graph becomes the delta scratch; the full graph is
	// rebuilt from the still-active static graph elements.
	e.delta, e.full = e.full, e.delta
	e.full.Reset()

	e.readVertices.CopyFrom(e.activeVertices)
	e.readEdges.CopyFrom(e.activeEdges)

	// Newly consistent vertices land in full.Vertices first.
	e.sg.DeltaConsistentVertices(e.prog, sets, e.readVertices, func(v Vertex) {
		e.full.Vertices.Set(v.Index)
		e.activeVertices.Clear(v.Index)
	})

	// delta.Vertices <- new, full.Vertices <- old ∪ new.
	e.delta.Vertices, e.full.Vertices = e.full.Vertices, e.delta.Vertices
	e.full.Vertices.Or(e.delta.Vertices)

	// Newly consistent edges land in the (empty) full adjacency. Vertices
	// adjacent to a delta edge count as delta vertices.
	e.sg.DeltaConsistentEdges(e.prog, sets, e.readEdges, e.full.Vertices, func(ei int, src, dst Vertex) {
		e.activeEdges.Clear(ei)
		e.full.SetEdge(src.Index, dst.Index)
		e.delta.Vertices.Set(src.Index)
		e.delta.Vertices.Set(dst.Index)
	})

	// delta adjacency <- new edges, full adjacency <- old ∪ new.
	e.delta.Adjacency, e.full.Adjacency = e.full.Adjacency, e.delta.Adjacency
	for v := range e.full.Adjacency {
		e.full.Adjacency[v].Or(e.delta.Adjacency[v])
	}
}

// edgeRank orders edges for the delta symmetry breaking.
func (e *DeltaKPKC) edgeRank(src, dst int) int {
	if src > dst {
		src, dst = dst, src
	}
	return src*e.cg.NumVertices + dst
}

// forEachEdge visits the undirected edges (src < dst) of a dynamic graph.
func forEachEdge(g *DynGraph, fn func(src, dst int)) {
	for src := 0; src < len(g.Adjacency); src++ {
		row := g.Adjacency[src]
		for dst := row.NextSet(src + 1); dst >= 0; dst = row.NextSet(dst + 1) {
			fn(src, dst)
		}
	}
}

// ForEachClique yields every k-clique of the full graph. The callback's
// slice is reused between calls. The k-th vertex of each clique belongs to
// a distinct partition; emission order is unspecified.
func (e *DeltaKPKC) ForEachClique(cb func(clique []int)) {
	switch e.cg.K {
	case 0:
		e.ws.partial = e.ws.partial[:0]
		cb(e.ws.partial)
	case 1:
		e.full.Vertices.ForEach(func(v int) {
			e.ws.partial = append(e.ws.partial[:0], v)
			cb(e.ws.partial)
		})
	case 2:
		forEachEdge(&e.full, func(src, dst int) {
			e.ws.partial = append(e.ws.partial[:0], src, dst)
			cb(e.ws.partial)
		})
	default:
		e.seedWithoutAnchor()
		e.completeFromSeed(false, 0, cb)
	}
}

// ForEachNewClique yields every k-clique of the full graph containing at
// least one delta vertex or delta edge, each exactly once across iterations.
// The first iteration enumerates the whole graph.
func (e *DeltaKPKC) ForEachNewClique(cb func(clique []int)) {
	if e.iteration <= 1 {
		e.ForEachClique(cb)
		return
	}
	switch e.cg.K {
	case 0:
		// The single empty clique was reported on the first iteration.
	case 1:
		e.delta.Vertices.ForEach(func(v int) {
			e.ws.partial = append(e.ws.partial[:0], v)
			cb(e.ws.partial)
		})
	case 2:
		forEachEdge(&e.delta, func(src, dst int) {
			e.ws.partial = append(e.ws.partial[:0], src, dst)
			cb(e.ws.partial)
		})
	default:
		forEachEdge(&e.delta, func(src, dst int) {
			e.seedFromAnchor(src, dst)
			e.completeFromSeed(true, 0, cb)
		})
	}
}

func (e *DeltaKPKC) seedWithoutAnchor() {
	e.ws.partial = e.ws.partial[:0]
	e.ws.partitionBits.Reset()
	e.ws.anchorRank = math.MaxInt

	cv0 := e.ws.compat[0]
	for p := 0; p < e.cg.K; p++ {
		cv0[p].CopyFrom(e.cg.PartitionMasks[p])
		cv0[p].And(e.full.Vertices)
	}
}

// initForbidden marks, for the given anchor rank, every delta edge of lower
// rank as forbidden in both directions.
func (e *DeltaKPKC) initForbidden(rank int) {
	for v := range e.ws.forbidden {
		e.ws.forbidden[v].Reset()
	}
	forEachEdge(&e.delta, func(src, dst int) {
		if r := e.edgeRank(src, dst); r < rank {
			e.ws.forbidden[src].Set(dst)
			e.ws.forbidden[dst].Set(src)
		}
	})
}

func (e *DeltaKPKC) seedFromAnchor(src, dst int) {
	pi := e.cg.VertexToPartition[src]
	pj := e.cg.VertexToPartition[dst]

	e.ws.partial = append(e.ws.partial[:0], src, dst)
	e.ws.anchorRank = e.edgeRank(src, dst)
	e.initForbidden(e.ws.anchorRank)

	e.ws.partitionBits.Reset()
	e.ws.partitionBits.Set(pi)
	e.ws.partitionBits.Set(pj)

	cv0 := e.ws.compat[0]
	for p := 0; p < e.cg.K; p++ {
		cvp := cv0[p]
		cvp.Reset()
		if p == pi || p == pj {
			continue
		}
		// Candidates must sit in the partition, be adjacent to both anchor
		// endpoints in the full graph, and must not reach either endpoint
		// over a lower-rank delta edge.
		cvp.CopyFrom(e.cg.PartitionMasks[p])
		cvp.And(e.full.Adjacency[src])
		cvp.And(e.full.Adjacency[dst])
		cvp.AndNot(e.ws.forbidden[src])
		cvp.AndNot(e.ws.forbidden[dst])
	}
}

// chooseBestPartition picks the unassigned partition with the fewest
// compatible candidates, or -1 when none has any.
func (e *DeltaKPKC) chooseBestPartition(depth int) int {
	best := -1
	bestCount := math.MaxInt
	for p := 0; p < e.cg.K; p++ {
		if e.ws.partitionBits.Test(p) {
			continue
		}
		if c := e.ws.compat[depth][p].Count(); c < bestCount {
			bestCount = c
			best = p
		}
	}
	return best
}

// updateCompat restricts the next depth's candidates to those adjacent to
// the newly chosen vertex; in delta mode, lower-rank delta neighbours are
// additionally pruned.
func (e *DeltaKPKC) updateCompat(deltaMode bool, src, depth int) {
	cur := e.ws.compat[depth]
	next := e.ws.compat[depth+1]
	adj := e.full.Adjacency[src]
	forbidden := e.ws.forbidden[src]
	for p := 0; p < e.cg.K; p++ {
		if e.ws.partitionBits.Test(p) {
			continue
		}
		next[p].CopyFrom(cur[p])
		next[p].And(adj)
		if deltaMode {
			next[p].AndNot(forbidden)
		}
	}
}

func (e *DeltaKPKC) possibleAdditions(depth int) int {
	n := 0
	next := e.ws.compat[depth+1]
	for p := 0; p < e.cg.K; p++ {
		if !e.ws.partitionBits.Test(p) && next[p].Any() {
			n++
		}
	}
	return n
}

func (e *DeltaKPKC) completeFromSeed(deltaMode bool, depth int, cb func(clique []int)) {
	p := e.chooseBestPartition(depth)
	if p < 0 {
		return
	}

	candidates := e.ws.compat[depth][p]
	for v := candidates.NextSet(0); v >= 0; v = candidates.NextSet(v + 1) {
		e.ws.partial = append(e.ws.partial, v)

		if len(e.ws.partial) == e.cg.K {
			cb(e.ws.partial)
		} else {
			e.updateCompat(deltaMode, v, depth)
			e.ws.partitionBits.Set(p)
			if len(e.ws.partial)+e.possibleAdditions(depth) == e.cg.K {
				e.completeFromSeed(deltaMode, depth+1, cb)
			}
			e.ws.partitionBits.Clear(p)
		}

		e.ws.partial = e.ws.partial[:len(e.ws.partial)-1]
	}
}
