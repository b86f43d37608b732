package formalism

import "fmt"

// ProgramBuilder accumulates a Program. Objects, predicates, and functions
// are registered by name; repeated registration of the same name returns the
// existing index. The builder performs no validation beyond name bookkeeping;
// structural validation happens at setup time.
type ProgramBuilder struct {
	program Program

	objectByName    map[string]ObjectIndex
	predicateByName [NumKinds]map[string]PredicateIndex
	functionByName  [NumKinds]map[string]FunctionIndex
}

// NewProgramBuilder returns an empty builder.
func NewProgramBuilder() *ProgramBuilder {
	b := &ProgramBuilder{objectByName: make(map[string]ObjectIndex)}
	for k := range b.predicateByName {
		b.predicateByName[k] = make(map[string]PredicateIndex)
		b.functionByName[k] = make(map[string]FunctionIndex)
	}
	return b
}

// Object registers (or finds) an object by name.
func (b *ProgramBuilder) Object(name string) ObjectIndex {
	if i, ok := b.objectByName[name]; ok {
		return i
	}
	i := ObjectIndex(len(b.program.Objects))
	b.program.Objects = append(b.program.Objects, Object{Name: name})
	b.objectByName[name] = i
	return i
}

// Predicate registers (or finds) a predicate of the given kind.
func (b *ProgramBuilder) Predicate(kind Kind, name string, arity int) PredicateIndex {
	if i, ok := b.predicateByName[kind][name]; ok {
		return i
	}
	i := PredicateIndex(len(b.program.Predicates[kind]))
	b.program.Predicates[kind] = append(b.program.Predicates[kind], Predicate{Name: name, Arity: arity, Kind: kind})
	b.predicateByName[kind][name] = i
	return i
}

// Function registers (or finds) a function of the given kind.
func (b *ProgramBuilder) Function(kind Kind, name string, arity int) FunctionIndex {
	if i, ok := b.functionByName[kind][name]; ok {
		return i
	}
	i := FunctionIndex(len(b.program.Functions[kind]))
	b.program.Functions[kind] = append(b.program.Functions[kind], Function{Name: name, Arity: arity, Kind: kind})
	b.functionByName[kind][name] = i
	return i
}

// LookupPredicate finds a predicate by name in either kind.
func (b *ProgramBuilder) LookupPredicate(name string) (Kind, PredicateIndex, bool) {
	for _, k := range Kinds {
		if i, ok := b.predicateByName[k][name]; ok {
			return k, i, true
		}
	}
	return 0, 0, false
}

// LookupFunction finds a function by name in either kind.
func (b *ProgramBuilder) LookupFunction(name string) (Kind, FunctionIndex, bool) {
	for _, k := range Kinds {
		if i, ok := b.functionByName[k][name]; ok {
			return k, i, true
		}
	}
	return 0, 0, false
}

// LookupObject finds an object by name.
func (b *ProgramBuilder) LookupObject(name string) (ObjectIndex, bool) {
	i, ok := b.objectByName[name]
	return i, ok
}

// Constant adds a constant expression node.
func (b *ProgramBuilder) Constant(v float64) ExprIndex {
	return b.addExpr(Expr{Kind: ExprConst, Value: v})
}

// FunctionExpr adds a function-term expression node.
func (b *ProgramBuilder) FunctionExpr(kind Kind, fn FunctionIndex, terms ...Term) ExprIndex {
	return b.addExpr(Expr{Kind: ExprFTerm, FTerm: FunctionTerm{Function: fn, Kind: kind, Terms: terms}})
}

// Neg adds a unary negation node.
func (b *ProgramBuilder) Neg(arg ExprIndex) ExprIndex {
	return b.addExpr(Expr{Kind: ExprNeg, Op: OpSub, Args: []ExprIndex{arg}})
}

// Binary adds a binary arithmetic node.
func (b *ProgramBuilder) Binary(op ArithOp, lhs, rhs ExprIndex) ExprIndex {
	return b.addExpr(Expr{Kind: ExprBinary, Op: op, Args: []ExprIndex{lhs, rhs}})
}

// Multi adds a multi-argument + or * node.
func (b *ProgramBuilder) Multi(op ArithOp, args ...ExprIndex) ExprIndex {
	if op != OpAdd && op != OpMul {
		panic(fmt.Sprintf("formalism: multi-argument node requires + or *, got %s", op))
	}
	return b.addExpr(Expr{Kind: ExprMulti, Op: op, Args: args})
}

func (b *ProgramBuilder) addExpr(e Expr) ExprIndex {
	i := ExprIndex(len(b.program.exprs))
	b.program.exprs = append(b.program.exprs, e)
	return i
}

// Rule appends a rule and returns its index.
func (b *ProgramBuilder) Rule(head Atom, body Condition, cost float64) RuleIndex {
	i := RuleIndex(len(b.program.Rules))
	b.program.Rules = append(b.program.Rules, Rule{Head: head, Body: body, Cost: cost})
	return i
}

// Fact appends an initial ground atom.
func (b *ProgramBuilder) Fact(kind Kind, pred PredicateIndex, objects ...ObjectIndex) {
	b.program.InitAtoms = append(b.program.InitAtoms, InitialAtom{Kind: kind, Predicate: pred, Objects: objects})
}

// Value appends an initial ground function term value.
func (b *ProgramBuilder) Value(kind Kind, fn FunctionIndex, objects []ObjectIndex, value float64) {
	b.program.InitValues = append(b.program.InitValues, InitialValue{Kind: kind, Function: fn, Objects: objects, Value: value})
}

// Build returns the accumulated program. The builder must not be reused.
func (b *ProgramBuilder) Build() *Program {
	return &b.program
}
