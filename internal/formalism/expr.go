package formalism

// ExprNodeKind discriminates function expression nodes.
type ExprNodeKind uint8

const (
	ExprConst ExprNodeKind = iota
	ExprFTerm
	ExprNeg
	ExprBinary
	ExprMulti
)

// ArithOp is an arithmetic operator of a binary or multi-argument node.
type ArithOp uint8

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
)

var arithNames = [...]string{"+", "-", "*", "/"}

func (op ArithOp) String() string { return arithNames[op] }

// Expr is a node of a function expression tree: a float constant, a static
// or fluent function term, unary negation, a binary operator, or a
// multi-argument + or *.
type Expr struct {
	Kind  ExprNodeKind
	Value float64      // ExprConst
	FTerm FunctionTerm // ExprFTerm
	Op    ArithOp      // ExprBinary, ExprMulti
	Args  []ExprIndex  // ExprNeg: 1, ExprBinary: 2, ExprMulti: n
}

// walkExprParams calls fn with every parameter index referenced below e.
func walkExprParams(p *Program, e ExprIndex, fn func(ParameterIndex)) {
	node := p.Expr(e)
	switch node.Kind {
	case ExprConst:
	case ExprFTerm:
		for _, t := range node.FTerm.Terms {
			if !t.IsObject() {
				fn(t.Parameter())
			}
		}
	default:
		for _, a := range node.Args {
			walkExprParams(p, a, fn)
		}
	}
}

// walkExprFTerms calls fn with every function term referenced below e.
func walkExprFTerms(p *Program, e ExprIndex, fn func(FunctionTerm)) {
	node := p.Expr(e)
	switch node.Kind {
	case ExprConst:
	case ExprFTerm:
		fn(node.FTerm)
	default:
		for _, a := range node.Args {
			walkExprFTerms(p, a, fn)
		}
	}
}

// ConstraintParams collects the distinct parameters of a constraint in
// ascending order.
func ConstraintParams(p *Program, c Constraint) []ParameterIndex {
	seen := map[ParameterIndex]struct{}{}
	collect := func(pi ParameterIndex) { seen[pi] = struct{}{} }
	walkExprParams(p, c.Lhs, collect)
	walkExprParams(p, c.Rhs, collect)
	return sortedParams(seen)
}

// LiteralParams collects the distinct parameters of an atom in ascending
// order.
func LiteralParams(a Atom) []ParameterIndex {
	seen := map[ParameterIndex]struct{}{}
	for _, t := range a.Terms {
		if !t.IsObject() {
			seen[t.Parameter()] = struct{}{}
		}
	}
	return sortedParams(seen)
}

func sortedParams(seen map[ParameterIndex]struct{}) []ParameterIndex {
	out := make([]ParameterIndex, 0, len(seen))
	for pi := range seen {
		out = append(out, pi)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// ConstraintFTerms collects every function term referenced by a constraint.
func ConstraintFTerms(p *Program, c Constraint) []FunctionTerm {
	var out []FunctionTerm
	walkExprFTerms(p, c.Lhs, func(ft FunctionTerm) { out = append(out, ft) })
	walkExprFTerms(p, c.Rhs, func(ft FunctionTerm) { out = append(out, ft) })
	return out
}
