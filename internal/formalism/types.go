// Package formalism defines the lifted and ground entities of a rule program
// and the content-addressed repository arenas they live in. Lifted entities
// (atoms, conditions, rules) are owned by the Program; ground entities are
// interned into a Repository so that structurally identical values share a
// dense, stable index.
package formalism

// Kind tags a predicate, function, or fact as static or fluent. Static
// symbols never change between the initial state and the fixpoint; fluent
// symbols may gain extensions while grounding runs.
type Kind uint8

const (
	Static Kind = iota
	Fluent

	// NumKinds is the number of fact kinds, for kind-indexed arrays.
	NumKinds = 2
)

// String returns the lowercase tag name.
func (k Kind) String() string {
	if k == Static {
		return "static"
	}
	return "fluent"
}

// Kinds lists both fact kinds in canonical order.
var Kinds = [NumKinds]Kind{Static, Fluent}

// Dense, kind-scoped indices. Predicate, function, atom, and ground entity
// indices are only meaningful together with their Kind.
type (
	ObjectIndex             uint32
	PredicateIndex          uint32
	FunctionIndex           uint32
	ParameterIndex          uint32
	RuleIndex               uint32
	ExprIndex               uint32
	GroundAtomIndex         uint32
	GroundFunctionTermIndex uint32
	BindingIndex            uint32
	GroundConditionIndex    uint32
	GroundRuleIndex         uint32
)

// Object is an interned constant, comparable by index.
type Object struct {
	Name string
}

// Predicate is a named, arity-tagged relation symbol.
type Predicate struct {
	Name  string
	Arity int
	Kind  Kind
}

// Function is a named, arity-tagged numeric symbol.
type Function struct {
	Name  string
	Arity int
	Kind  Kind
}

// Term is either a reference to a rule parameter by index or an object.
type Term struct {
	object    ObjectIndex
	parameter ParameterIndex
	isObject  bool
}

// Param returns a term referencing rule parameter i.
func Param(i ParameterIndex) Term {
	return Term{parameter: i}
}

// Const returns a term naming object o.
func Const(o ObjectIndex) Term {
	return Term{object: o, isObject: true}
}

// IsObject reports whether the term is a constant.
func (t Term) IsObject() bool { return t.isObject }

// Object returns the object index; valid only when IsObject.
func (t Term) Object() ObjectIndex { return t.object }

// Parameter returns the parameter index; valid only when !IsObject.
func (t Term) Parameter() ParameterIndex { return t.parameter }

// Atom is a predicate applied to an ordered list of terms. Its kind is the
// kind of its predicate.
type Atom struct {
	Predicate PredicateIndex
	Kind      Kind
	Terms     []Term
}

// Literal is a possibly negated atom. Negation is classical closed-world.
type Literal struct {
	Negated bool
	Atom    Atom
}

// FunctionTerm is a function applied to an ordered list of terms.
type FunctionTerm struct {
	Function FunctionIndex
	Kind     Kind
	Terms    []Term
}

// CmpOp is an arity-tagged comparison over two function expressions.
type CmpOp uint8

const (
	CmpEQ CmpOp = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

var cmpNames = [...]string{"=", "!=", "<", "<=", ">", ">="}

func (op CmpOp) String() string { return cmpNames[op] }

// Constraint is a numeric guard over two expressions of the owning program.
type Constraint struct {
	Op  CmpOp
	Lhs ExprIndex
	Rhs ExprIndex
}

// Condition is a conjunctive condition: free parameters, literals split by
// kind, and numeric constraints. Arity is the number of free parameters.
type Condition struct {
	Arity          int
	StaticLiterals []Literal
	FluentLiterals []Literal
	Constraints    []Constraint
}

// Literals returns the literal slice for the given kind.
func (c *Condition) Literals(k Kind) []Literal {
	if k == Static {
		return c.StaticLiterals
	}
	return c.FluentLiterals
}

// Rule derives a fluent head atom from a conjunctive body.
type Rule struct {
	Head Atom
	Body Condition
	Cost float64
}

// InitialAtom is a ground fact of the initial state.
type InitialAtom struct {
	Kind      Kind
	Predicate PredicateIndex
	Objects   []ObjectIndex
}

// InitialValue binds a ground function term of the initial state to a value.
type InitialValue struct {
	Kind     Kind
	Function FunctionIndex
	Objects  []ObjectIndex
	Value    float64
}

// Program is a lifted rule program together with its initial facts. It owns
// the expression arena shared by all rule bodies.
type Program struct {
	Objects    []Object
	Predicates [NumKinds][]Predicate
	Functions  [NumKinds][]Function
	Rules      []Rule

	InitAtoms  []InitialAtom
	InitValues []InitialValue

	exprs []Expr
}

// Expr returns the expression node at index e.
func (p *Program) Expr(e ExprIndex) *Expr { return &p.exprs[e] }

// NumExprs returns the size of the expression arena.
func (p *Program) NumExprs() int { return len(p.exprs) }

// PredicateByIndex returns the predicate of the given kind.
func (p *Program) PredicateByIndex(k Kind, i PredicateIndex) Predicate {
	return p.Predicates[k][i]
}

// FunctionByIndex returns the function of the given kind.
func (p *Program) FunctionByIndex(k Kind, i FunctionIndex) Function {
	return p.Functions[k][i]
}
