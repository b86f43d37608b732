package grounder

import (
	"math"

	"groundlog/internal/formalism"
	"groundlog/internal/interval"
)

func nan() float64 { return math.NaN() }

// evalFloat evaluates a function expression under a full binding against the
// fact sets. A fluent function term with no recorded value evaluates to NaN,
// which makes every comparison false, consistent with closed-world
// semantics.
func evalFloat(p *formalism.Program, repo *formalism.Repository, b *formalism.Builder, e formalism.ExprIndex, binding []formalism.ObjectIndex, facts *FactSets, scratch *[]formalism.ObjectIndex) float64 {
	node := p.Expr(e)
	switch node.Kind {
	case formalism.ExprConst:
		return node.Value
	case formalism.ExprFTerm:
		objs := (*scratch)[:0]
		for _, t := range node.FTerm.Terms {
			if t.IsObject() {
				objs = append(objs, t.Object())
			} else {
				objs = append(objs, binding[t.Parameter()])
			}
		}
		*scratch = objs
		fi, ok := repo.FindGroundFTerm(b, node.FTerm.Kind, node.FTerm.Function, objs)
		if !ok {
			return nan()
		}
		return facts.Tagged(node.FTerm.Kind).Function.Value(fi)
	case formalism.ExprNeg:
		return -evalFloat(p, repo, b, node.Args[0], binding, facts, scratch)
	case formalism.ExprBinary:
		lhs := evalFloat(p, repo, b, node.Args[0], binding, facts, scratch)
		rhs := evalFloat(p, repo, b, node.Args[1], binding, facts, scratch)
		return applyArith(node.Op, lhs, rhs)
	case formalism.ExprMulti:
		acc := identity(node.Op)
		for _, a := range node.Args {
			acc = applyArith(node.Op, acc, evalFloat(p, repo, b, a, binding, facts, scratch))
		}
		return acc
	}
	return nan()
}

func applyArith(op formalism.ArithOp, lhs, rhs float64) float64 {
	switch op {
	case formalism.OpAdd:
		return lhs + rhs
	case formalism.OpSub:
		return lhs - rhs
	case formalism.OpMul:
		return lhs * rhs
	default:
		return lhs / rhs
	}
}

func identity(op formalism.ArithOp) float64 {
	if op == formalism.OpMul {
		return 1
	}
	return 0
}

// evalConstraint evaluates a numeric constraint under a full binding.
// NaN operands make the constraint unsatisfied.
func evalConstraint(p *formalism.Program, repo *formalism.Repository, b *formalism.Builder, c formalism.Constraint, binding []formalism.ObjectIndex, facts *FactSets, scratch *[]formalism.ObjectIndex) bool {
	lhs := evalFloat(p, repo, b, c.Lhs, binding, facts, scratch)
	rhs := evalFloat(p, repo, b, c.Rhs, binding, facts, scratch)
	if math.IsNaN(lhs) || math.IsNaN(rhs) {
		return false
	}
	switch c.Op {
	case formalism.CmpEQ:
		return lhs == rhs
	case formalism.CmpNE:
		return lhs != rhs
	case formalism.CmpLT:
		return lhs < rhs
	case formalism.CmpLE:
		return lhs <= rhs
	case formalism.CmpGT:
		return lhs > rhs
	default:
		return lhs >= rhs
	}
}

// partialAssignment binds at most two rule parameters, matching the vertex
// and edge granularity of the assignment sets.
type partialAssignment struct {
	params  [2]formalism.ParameterIndex
	objects [2]formalism.ObjectIndex
	n       int
}

func vertexPartial(p formalism.ParameterIndex, o formalism.ObjectIndex) partialAssignment {
	return partialAssignment{params: [2]formalism.ParameterIndex{p}, objects: [2]formalism.ObjectIndex{o}, n: 1}
}

func edgePartial(p1 formalism.ParameterIndex, o1 formalism.ObjectIndex, p2 formalism.ParameterIndex, o2 formalism.ObjectIndex) partialAssignment {
	return partialAssignment{
		params:  [2]formalism.ParameterIndex{p1, p2},
		objects: [2]formalism.ObjectIndex{o1, o2},
		n:       2,
	}
}

func (pa *partialAssignment) lookup(p formalism.ParameterIndex) (formalism.ObjectIndex, bool) {
	for i := 0; i < pa.n; i++ {
		if pa.params[i] == p {
			return pa.objects[i], true
		}
	}
	return 0, false
}

// evalInterval computes a conservative interval for an expression under a
// partial assignment, reading function hulls from the assignment sets. The
// empty interval propagates as "no value possible".
func evalInterval(p *formalism.Program, e formalism.ExprIndex, pa *partialAssignment, sets *AssignmentSets) interval.Interval {
	node := p.Expr(e)
	switch node.Kind {
	case formalism.ExprConst:
		return interval.Point(node.Value)
	case formalism.ExprFTerm:
		return ftermInterval(&node.FTerm, pa, sets)
	case formalism.ExprNeg:
		return evalInterval(p, node.Args[0], pa, sets).Neg()
	case formalism.ExprBinary:
		lhs := evalInterval(p, node.Args[0], pa, sets)
		rhs := evalInterval(p, node.Args[1], pa, sets)
		return applyArithInterval(node.Op, lhs, rhs)
	case formalism.ExprMulti:
		acc := interval.Point(identity(node.Op))
		for _, a := range node.Args {
			acc = applyArithInterval(node.Op, acc, evalInterval(p, a, pa, sets))
		}
		return acc
	}
	return interval.Empty()
}

// ftermInterval picks the tightest available hull cell for a function term:
// the edge cell when two argument positions are fixed by the partial
// assignment or by constants, the vertex cell for one, the global hull for
// none.
func ftermInterval(ft *formalism.FunctionTerm, pa *partialAssignment, sets *AssignmentSets) interval.Interval {
	set := &sets.Tagged(ft.Kind).Functions[ft.Function]

	var positions [2]int
	var objects [2]formalism.ObjectIndex
	bound := 0
	for pos, t := range ft.Terms {
		var o formalism.ObjectIndex
		if t.IsObject() {
			o = t.Object()
		} else if v, ok := pa.lookup(t.Parameter()); ok {
			o = v
		} else {
			continue
		}
		if bound < 2 {
			positions[bound] = pos
			objects[bound] = o
		}
		bound++
	}

	switch {
	case bound == 0:
		return set.AtEmpty()
	case bound == 1:
		return set.AtVertex(positions[0], objects[0])
	default:
		return set.AtEdge(positions[0], objects[0], positions[1], objects[1])
	}
}

func applyArithInterval(op formalism.ArithOp, lhs, rhs interval.Interval) interval.Interval {
	switch op {
	case formalism.OpAdd:
		return interval.Add(lhs, rhs)
	case formalism.OpSub:
		return interval.Sub(lhs, rhs)
	case formalism.OpMul:
		return interval.Mul(lhs, rhs)
	default:
		return interval.Div(lhs, rhs)
	}
}

// constraintMaybe reports whether a constraint can possibly hold given the
// interval evidence.
func constraintMaybe(op formalism.CmpOp, lhs, rhs interval.Interval) bool {
	switch op {
	case formalism.CmpEQ:
		return interval.MaybeEQ(lhs, rhs)
	case formalism.CmpNE:
		return interval.MaybeNE(lhs, rhs)
	case formalism.CmpLT:
		return interval.MaybeLT(lhs, rhs)
	case formalism.CmpLE:
		return interval.MaybeLE(lhs, rhs)
	case formalism.CmpGT:
		return interval.MaybeGT(lhs, rhs)
	default:
		return interval.MaybeGE(lhs, rhs)
	}
}
