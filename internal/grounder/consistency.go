package grounder

import (
	"groundlog/internal/analysis"
	"groundlog/internal/bitset"
	"groundlog/internal/formalism"
)

// Vertex is a (parameter, object) assignment node of a rule's static
// consistency graph.
type Vertex struct {
	Index     int
	Parameter formalism.ParameterIndex
	Object    formalism.ObjectIndex
}

// StaticGraph is the per-rule k-partite consistency graph compiled from the
// rule body using static evidence only. It is built once at setup and is
// immutable afterwards. Edges are stored as an adjacency list: the sorted
// sources with nonzero out-degree, an offset table, and a concatenated
// target vector; the edge index is the target's position.
type StaticGraph struct {
	rule formalism.RuleIndex
	k    int

	vertices   []Vertex
	partitions [][]int // vertex indices per parameter, ascending

	sources       []int32
	targetOffsets []int32
	targets       []int32

	condIdx *conditionIndex

	// A statically false constant literal or nullary constraint means the
	// rule can never fire; the graph is built empty.
	neverApplicable bool
}

// NewStaticGraph compiles the consistency graph of one rule against the
// static assignment sets.
func NewStaticGraph(p *formalism.Program, ri formalism.RuleIndex, domains *analysis.Domains, sets *AssignmentSets) *StaticGraph {
	rule := &p.Rules[ri]
	g := &StaticGraph{
		rule:    ri,
		k:       rule.Body.Arity,
		condIdx: buildConditionIndex(p, rule),
	}
	staticSets := sets.Tagged(formalism.Static)

	for _, il := range g.condIdx.staticConstLits {
		if !literalConstConsistent(&il, staticSets) {
			g.neverApplicable = true
		}
	}
	for _, ic := range g.condIdx.staticNullCons {
		if !constraintNullConsistent(p, &ic, sets) {
			g.neverApplicable = true
		}
	}

	g.partitions = make([][]int, g.k)
	if g.neverApplicable {
		g.targetOffsets = []int32{0}
		return g
	}

	// Vertices: one per (parameter, domain object) passing the static
	// vertex checks, packed in strictly increasing parameter order.
	for pi := 0; pi < g.k; pi++ {
		for _, o := range domains.RuleParams[ri][pi] {
			if !g.staticVertexConsistent(p, formalism.ParameterIndex(pi), o, sets) {
				continue
			}
			v := Vertex{Index: len(g.vertices), Parameter: formalism.ParameterIndex(pi), Object: o}
			g.partitions[pi] = append(g.partitions[pi], v.Index)
			g.vertices = append(g.vertices, v)
		}
	}

	// Edges: each undirected edge stored once with src < dst.
	var offsets []int32
	for _, u := range g.vertices {
		degreeStart := len(g.targets)
		for pj := int(u.Parameter) + 1; pj < g.k; pj++ {
			for _, vi := range g.partitions[pj] {
				v := g.vertices[vi]
				if g.staticEdgeConsistent(p, u, v, sets) {
					g.targets = append(g.targets, int32(vi))
				}
			}
		}
		if len(g.targets) > degreeStart {
			g.sources = append(g.sources, int32(u.Index))
			offsets = append(offsets, int32(degreeStart))
		}
	}
	g.targetOffsets = append(offsets, int32(len(g.targets)))
	return g
}

func (g *StaticGraph) staticVertexConsistent(p *formalism.Program, pi formalism.ParameterIndex, o formalism.ObjectIndex, sets *AssignmentSets) bool {
	staticSets := sets.Tagged(formalism.Static)
	for i := range g.condIdx.staticVertexLits[pi] {
		if !literalVertexConsistent(&g.condIdx.staticVertexLits[pi][i], pi, o, staticSets) {
			return false
		}
	}
	for i := range g.condIdx.staticVertexCons[pi] {
		if !constraintVertexConsistent(p, &g.condIdx.staticVertexCons[pi][i], pi, o, sets) {
			return false
		}
	}
	return true
}

func (g *StaticGraph) staticEdgeConsistent(p *formalism.Program, u, v Vertex, sets *AssignmentSets) bool {
	staticSets := sets.Tagged(formalism.Static)
	key := pairKey{u.Parameter, v.Parameter}
	for i := range g.condIdx.staticEdgeLits[key] {
		if !literalEdgeConsistent(&g.condIdx.staticEdgeLits[key][i], u.Parameter, u.Object, v.Parameter, v.Object, staticSets) {
			return false
		}
	}
	for i := range g.condIdx.staticEdgeCons[key] {
		if !constraintEdgeConsistent(p, &g.condIdx.staticEdgeCons[key][i], u.Parameter, u.Object, v.Parameter, v.Object, sets) {
			return false
		}
	}
	return true
}

// K returns the body arity.
func (g *StaticGraph) K() int { return g.k }

// NumVertices returns the vertex count.
func (g *StaticGraph) NumVertices() int { return len(g.vertices) }

// NumEdges returns the edge count.
func (g *StaticGraph) NumEdges() int { return len(g.targets) }

// VertexAt returns the vertex with the given index.
func (g *StaticGraph) VertexAt(i int) Vertex { return g.vertices[i] }

// Partitions returns the per-parameter vertex index lists.
func (g *StaticGraph) Partitions() [][]int { return g.partitions }

// fluentVertexConsistent is the runtime vertex check: every fluent literal
// binding the parameter must be supported, every constraint touching fluent
// evidence must be interval-satisfiable.
func (g *StaticGraph) fluentVertexConsistent(p *formalism.Program, v Vertex, sets *AssignmentSets) bool {
	fluentSets := sets.Tagged(formalism.Fluent)
	for i := range g.condIdx.fluentVertexLits[v.Parameter] {
		if !literalVertexConsistent(&g.condIdx.fluentVertexLits[v.Parameter][i], v.Parameter, v.Object, fluentSets) {
			return false
		}
	}
	for i := range g.condIdx.fluentVertexCons[v.Parameter] {
		if !constraintVertexConsistent(p, &g.condIdx.fluentVertexCons[v.Parameter][i], v.Parameter, v.Object, sets) {
			return false
		}
	}
	return true
}

func (g *StaticGraph) fluentEdgeConsistent(p *formalism.Program, u, v Vertex, sets *AssignmentSets) bool {
	fluentSets := sets.Tagged(formalism.Fluent)
	key := pairKey{u.Parameter, v.Parameter}
	for i := range g.condIdx.fluentEdgeLits[key] {
		if !literalEdgeConsistent(&g.condIdx.fluentEdgeLits[key][i], u.Parameter, u.Object, v.Parameter, v.Object, fluentSets) {
			return false
		}
	}
	for i := range g.condIdx.fluentEdgeCons[key] {
		if !constraintEdgeConsistent(p, &g.condIdx.fluentEdgeCons[key][i], u.Parameter, u.Object, v.Parameter, v.Object, sets) {
			return false
		}
	}
	return true
}

// sweepGate evaluates the parameter-free fluent elements once per sweep. If
// it fails nothing is consistent this iteration.
func (g *StaticGraph) sweepGate(p *formalism.Program, sets *AssignmentSets) bool {
	if g.neverApplicable {
		return false
	}
	fluentSets := sets.Tagged(formalism.Fluent)
	for i := range g.condIdx.fluentConstLits {
		if !literalConstConsistent(&g.condIdx.fluentConstLits[i], fluentSets) {
			return false
		}
	}
	for i := range g.condIdx.fluentNullCons {
		if !constraintNullConsistent(p, &g.condIdx.fluentNullCons[i], sets) {
			return false
		}
	}
	return true
}

// DeltaConsistentVertices visits every still-active vertex that is
// consistent under the current assignment sets.
func (g *StaticGraph) DeltaConsistentVertices(p *formalism.Program, sets *AssignmentSets, active bitset.Set, cb func(Vertex)) {
	if !g.sweepGate(p, sets) {
		return
	}
	active.ForEach(func(i int) {
		v := g.vertices[i]
		if g.fluentVertexConsistent(p, v, sets) {
			cb(v)
		}
	})
}

// DeltaConsistentEdges visits every still-active edge between consistent
// vertices that is consistent under the current assignment sets. The edge
// index passed to cb is the edge's position in the target vector.
func (g *StaticGraph) DeltaConsistentEdges(p *formalism.Program, sets *AssignmentSets, activeEdges bitset.Set, consistentVertices bitset.Set, cb func(edgeIndex int, src, dst Vertex)) {
	if !g.sweepGate(p, sets) {
		return
	}
	for si, src := range g.sources {
		if !consistentVertices.Test(int(src)) {
			continue
		}
		for ei := g.targetOffsets[si]; ei < g.targetOffsets[si+1]; ei++ {
			if !activeEdges.Test(int(ei)) {
				continue
			}
			dst := g.targets[ei]
			if !consistentVertices.Test(int(dst)) {
				continue
			}
			u, v := g.vertices[src], g.vertices[dst]
			if g.fluentEdgeConsistent(p, u, v, sets) {
				cb(int(ei), u, v)
			}
		}
	}
}
