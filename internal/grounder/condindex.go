package grounder

import (
	"groundlog/internal/formalism"
)

// The condition index classifies every body element by how its free
// parameters appear, so vertex- and edge-consistency checks touch only the
// elements that can constrain them: every positive literal feeds the vertex
// check of each parameter it binds and the edge check of each pair of those
// parameters, constant-only literals gate a whole sweep, and negative
// literals, like joint support across three or more parameters, are left to
// the full-body applicability test in the worker.

// constantPos records a constant object at a fixed argument position.
type constantPos struct {
	pos    int
	object formalism.ObjectIndex
}

// paramPositions records the argument positions at which one parameter
// occurs inside a literal or function term.
type paramPositions struct {
	param     formalism.ParameterIndex
	positions []int
}

// indexedLiteral is a positive literal prepared for assignment-set checks.
type indexedLiteral struct {
	kind      formalism.Kind
	predicate formalism.PredicateIndex
	occ       []paramPositions // distinct parameters, ascending
	consts    []constantPos
}

// indexedConstraint is a numeric constraint prepared for interval checks.
type indexedConstraint struct {
	c         formalism.Constraint
	params    []formalism.ParameterIndex
	hasFluent bool
}

type pairKey [2]formalism.ParameterIndex

// conditionIndex holds the per-parameter and per-pair routing of one rule
// body, split into the build-time static side and the runtime fluent side.
type conditionIndex struct {
	k int

	// Static evidence, consumed while building the static consistency graph.
	staticVertexLits [][]indexedLiteral // by parameter: literals mentioning it
	staticEdgeLits   map[pairKey][]indexedLiteral
	staticConstLits  []indexedLiteral // no parameters at all
	staticVertexCons [][]indexedConstraint
	staticEdgeCons   map[pairKey][]indexedConstraint
	staticNullCons   []indexedConstraint

	// Fluent evidence, consumed by the per-iteration delta sweeps.
	fluentVertexLits [][]indexedLiteral
	fluentEdgeLits   map[pairKey][]indexedLiteral
	fluentConstLits  []indexedLiteral
	fluentVertexCons [][]indexedConstraint
	fluentEdgeCons   map[pairKey][]indexedConstraint
	fluentNullCons   []indexedConstraint
}

func buildConditionIndex(p *formalism.Program, rule *formalism.Rule) *conditionIndex {
	k := rule.Body.Arity
	ci := &conditionIndex{
		k:                k,
		staticVertexLits: make([][]indexedLiteral, k),
		staticEdgeLits:   map[pairKey][]indexedLiteral{},
		staticVertexCons: make([][]indexedConstraint, k),
		staticEdgeCons:   map[pairKey][]indexedConstraint{},
		fluentVertexLits: make([][]indexedLiteral, k),
		fluentEdgeLits:   map[pairKey][]indexedLiteral{},
		fluentVertexCons: make([][]indexedConstraint, k),
		fluentEdgeCons:   map[pairKey][]indexedConstraint{},
	}

	for _, kind := range formalism.Kinds {
		for _, lit := range rule.Body.Literals(kind) {
			if lit.Negated {
				// Absence of support says nothing; negatives are settled by
				// the full-body check.
				continue
			}
			il := indexLiteral(kind, lit.Atom)
			switch {
			case len(il.occ) == 0:
				if kind == formalism.Static {
					ci.staticConstLits = append(ci.staticConstLits, il)
				} else {
					ci.fluentConstLits = append(ci.fluentConstLits, il)
				}
			default:
				for _, occ := range il.occ {
					if kind == formalism.Static {
						ci.staticVertexLits[occ.param] = append(ci.staticVertexLits[occ.param], il)
					} else {
						ci.fluentVertexLits[occ.param] = append(ci.fluentVertexLits[occ.param], il)
					}
				}
				for i := 0; i < len(il.occ); i++ {
					for j := i + 1; j < len(il.occ); j++ {
						key := pairKey{il.occ[i].param, il.occ[j].param}
						if kind == formalism.Static {
							ci.staticEdgeLits[key] = append(ci.staticEdgeLits[key], il)
						} else {
							ci.fluentEdgeLits[key] = append(ci.fluentEdgeLits[key], il)
						}
					}
				}
			}
		}
	}

	for _, c := range rule.Body.Constraints {
		ic := indexedConstraint{c: c, params: formalism.ConstraintParams(p, c)}
		for _, ft := range formalism.ConstraintFTerms(p, c) {
			if ft.Kind == formalism.Fluent {
				ic.hasFluent = true
				break
			}
		}
		vertexCons, edgeCons, nullCons := &ci.staticVertexCons, &ci.staticEdgeCons, &ci.staticNullCons
		if ic.hasFluent {
			vertexCons, edgeCons, nullCons = &ci.fluentVertexCons, &ci.fluentEdgeCons, &ci.fluentNullCons
		}
		switch len(ic.params) {
		case 0:
			*nullCons = append(*nullCons, ic)
		default:
			for _, pi := range ic.params {
				(*vertexCons)[pi] = append((*vertexCons)[pi], ic)
			}
			for i := 0; i < len(ic.params); i++ {
				for j := i + 1; j < len(ic.params); j++ {
					key := pairKey{ic.params[i], ic.params[j]}
					(*edgeCons)[key] = append((*edgeCons)[key], ic)
				}
			}
		}
	}
	return ci
}

func indexLiteral(kind formalism.Kind, a formalism.Atom) indexedLiteral {
	il := indexedLiteral{kind: kind, predicate: a.Predicate}
	byParam := map[formalism.ParameterIndex][]int{}
	for pos, t := range a.Terms {
		if t.IsObject() {
			il.consts = append(il.consts, constantPos{pos: pos, object: t.Object()})
			continue
		}
		byParam[t.Parameter()] = append(byParam[t.Parameter()], pos)
	}
	for _, pi := range formalism.LiteralParams(a) {
		il.occ = append(il.occ, paramPositions{param: pi, positions: byParam[pi]})
	}
	return il
}

func (il *indexedLiteral) positionsOf(p formalism.ParameterIndex) []int {
	for _, occ := range il.occ {
		if occ.param == p {
			return occ.positions
		}
	}
	return nil
}

// literalVertexConsistent checks one literal against the assignment of
// object o to parameter p: every position binding p must be supported, pairs
// of p positions must agree, and constants must co-occur.
func literalVertexConsistent(il *indexedLiteral, p formalism.ParameterIndex, o formalism.ObjectIndex, sets *TaggedAssignmentSets) bool {
	set := &sets.Predicates[il.predicate]
	positions := il.positionsOf(p)
	for i, pos := range positions {
		if !set.ContainsVertex(pos, o) {
			return false
		}
		for _, pos2 := range positions[i+1:] {
			if !set.ContainsEdge(pos, o, pos2, o) {
				return false
			}
		}
		for _, c := range il.consts {
			if !set.ContainsEdge(pos, o, c.pos, c.object) {
				return false
			}
		}
	}
	return true
}

// literalEdgeConsistent checks one literal against a joint assignment to
// parameters p and q: every cross pair of their positions must be supported.
func literalEdgeConsistent(il *indexedLiteral, p formalism.ParameterIndex, o formalism.ObjectIndex, q formalism.ParameterIndex, c formalism.ObjectIndex, sets *TaggedAssignmentSets) bool {
	set := &sets.Predicates[il.predicate]
	for _, pos1 := range il.positionsOf(p) {
		for _, pos2 := range il.positionsOf(q) {
			if !set.ContainsEdge(pos1, o, pos2, c) {
				return false
			}
		}
	}
	return true
}

// literalConstConsistent checks a parameter-free literal: its constant
// vertices and pairs must all be supported.
func literalConstConsistent(il *indexedLiteral, sets *TaggedAssignmentSets) bool {
	set := &sets.Predicates[il.predicate]
	for i, c1 := range il.consts {
		if !set.ContainsVertex(c1.pos, c1.object) {
			return false
		}
		for _, c2 := range il.consts[i+1:] {
			if !set.ContainsEdge(c1.pos, c1.object, c2.pos, c2.object) {
				return false
			}
		}
	}
	return true
}

func constraintVertexConsistent(p *formalism.Program, ic *indexedConstraint, pi formalism.ParameterIndex, o formalism.ObjectIndex, sets *AssignmentSets) bool {
	pa := vertexPartial(pi, o)
	lhs := evalInterval(p, ic.c.Lhs, &pa, sets)
	rhs := evalInterval(p, ic.c.Rhs, &pa, sets)
	return constraintMaybe(ic.c.Op, lhs, rhs)
}

func constraintEdgeConsistent(p *formalism.Program, ic *indexedConstraint, p1 formalism.ParameterIndex, o1 formalism.ObjectIndex, p2 formalism.ParameterIndex, o2 formalism.ObjectIndex, sets *AssignmentSets) bool {
	pa := edgePartial(p1, o1, p2, o2)
	lhs := evalInterval(p, ic.c.Lhs, &pa, sets)
	rhs := evalInterval(p, ic.c.Rhs, &pa, sets)
	return constraintMaybe(ic.c.Op, lhs, rhs)
}

func constraintNullConsistent(p *formalism.Program, ic *indexedConstraint, sets *AssignmentSets) bool {
	pa := partialAssignment{}
	lhs := evalInterval(p, ic.c.Lhs, &pa, sets)
	rhs := evalInterval(p, ic.c.Rhs, &pa, sets)
	return constraintMaybe(ic.c.Op, lhs, rhs)
}
