package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"groundlog/internal/formalism"
)

// ParseProgram parses the small rule-program text format:
//
//	# transitive closure
//	objects n1 n2 n3.
//	static pred e/2.
//	fluent pred tc/2.
//	static fn w/1.
//	e(n1, n2).
//	w(n1) = 3.
//	tc(X, Y) :- e(X, Y).
//	tc(X, Y) :- e(X, Z), tc(Z, Y).
//	heavy(X) :- w(X) > 5.
//
// Identifiers starting with an uppercase letter are rule variables;
// everything else names objects, predicates, and functions. `not` negates a
// literal, `true` is the empty body.
func ParseProgram(src string) (*formalism.Program, error) {
	p := &parser{builder: formalism.NewProgramBuilder()}
	if err := p.tokenize(src); err != nil {
		return nil, err
	}
	for !p.atEnd() {
		if err := p.statement(); err != nil {
			return nil, err
		}
	}
	return p.builder.Build(), nil
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokVar
	tokNumber
	tokPunct // ( ) , . :- and comparison operators
)

type token struct {
	kind tokenKind
	text string
	line int
}

type parser struct {
	builder *formalism.ProgramBuilder
	tokens  []token
	pos     int
}

func (p *parser) tokenize(src string) error {
	line := 1
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '(' || c == ')' || c == ',' || c == '.':
			p.tokens = append(p.tokens, token{tokPunct, string(c), line})
			i++
		case c == ':':
			if i+1 < len(src) && src[i+1] == '-' {
				p.tokens = append(p.tokens, token{tokPunct, ":-", line})
				i += 2
			} else {
				return fmt.Errorf("line %d: unexpected ':'", line)
			}
		case strings.ContainsRune("=!<>", rune(c)):
			op := string(c)
			if i+1 < len(src) && src[i+1] == '=' {
				op += "="
				i++
			}
			p.tokens = append(p.tokens, token{tokPunct, op, line})
			i++
		case c == '-' || c >= '0' && c <= '9':
			j := i + 1
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.' && j+1 < len(src) && src[j+1] >= '0' && src[j+1] <= '9') {
				j++
			}
			p.tokens = append(p.tokens, token{tokNumber, src[i:j], line})
			i = j
		case isIdentStart(rune(c)):
			j := i + 1
			for j < len(src) && isIdentPart(rune(src[j])) {
				j++
			}
			text := src[i:j]
			// /N arity suffixes attach to declarations.
			if j < len(src) && src[j] == '/' {
				k := j + 1
				for k < len(src) && src[k] >= '0' && src[k] <= '9' {
					k++
				}
				if k > j+1 {
					text = src[i:k]
					j = k
				}
			}
			kind := tokIdent
			if unicode.IsUpper(rune(c)) {
				kind = tokVar
			}
			p.tokens = append(p.tokens, token{kind, text, line})
			i = j
		default:
			return fmt.Errorf("line %d: unexpected character %q", line, c)
		}
	}
	return nil
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdentPart(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '-'
}

func (p *parser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() token {
	if p.atEnd() {
		return token{tokPunct, "<eof>", -1}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) expect(text string) error {
	t := p.next()
	if t.kind != tokPunct || t.text != text {
		return fmt.Errorf("line %d: expected %q, got %q", t.line, text, t.text)
	}
	return nil
}

// statement parses one declaration, fact, value binding, or rule.
func (p *parser) statement() error {
	t := p.peek()
	switch {
	case t.kind == tokIdent && t.text == "objects":
		return p.objectDecl()
	case t.kind == tokIdent && (t.text == "static" || t.text == "fluent"):
		return p.symbolDecl()
	default:
		return p.factOrRule()
	}
}

func (p *parser) objectDecl() error {
	p.next() // objects
	for {
		t := p.next()
		if t.kind == tokPunct && t.text == "." {
			return nil
		}
		if t.kind != tokIdent {
			return fmt.Errorf("line %d: expected object name, got %q", t.line, t.text)
		}
		p.builder.Object(t.text)
	}
}

func (p *parser) symbolDecl() error {
	kindTok := p.next()
	kind := formalism.Static
	if kindTok.text == "fluent" {
		kind = formalism.Fluent
	}
	classTok := p.next()
	if classTok.kind != tokIdent || (classTok.text != "pred" && classTok.text != "fn") {
		return fmt.Errorf("line %d: expected 'pred' or 'fn' after %q", classTok.line, kindTok.text)
	}
	for {
		t := p.next()
		if t.kind == tokPunct && t.text == "." {
			return nil
		}
		name, arity, ok := splitArity(t.text)
		if t.kind != tokIdent || !ok {
			return fmt.Errorf("line %d: expected name/arity, got %q", t.line, t.text)
		}
		if classTok.text == "pred" {
			p.builder.Predicate(kind, name, arity)
		} else {
			p.builder.Function(kind, name, arity)
		}
	}
}

func splitArity(text string) (string, int, bool) {
	slash := strings.LastIndexByte(text, '/')
	if slash < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(text[slash+1:])
	if err != nil {
		return "", 0, false
	}
	return text[:slash], n, true
}

// callable is a parsed name(args) shape, not yet resolved to a predicate or
// function.
type callable struct {
	name string
	args []token
	line int
}

func (p *parser) callable() (callable, error) {
	nameTok := p.next()
	if nameTok.kind != tokIdent {
		return callable{}, fmt.Errorf("line %d: expected name, got %q", nameTok.line, nameTok.text)
	}
	c := callable{name: nameTok.text, line: nameTok.line}
	if p.peek().text != "(" {
		return c, nil
	}
	p.next() // (
	for {
		t := p.next()
		if t.kind != tokIdent && t.kind != tokVar {
			return callable{}, fmt.Errorf("line %d: expected argument, got %q", t.line, t.text)
		}
		c.args = append(c.args, t)
		sep := p.next()
		if sep.text == ")" {
			return c, nil
		}
		if sep.text != "," {
			return callable{}, fmt.Errorf("line %d: expected ',' or ')', got %q", sep.line, sep.text)
		}
	}
}

// factOrRule parses a ground fact, a function value binding, or a rule.
func (p *parser) factOrRule() error {
	head, err := p.callable()
	if err != nil {
		return err
	}
	t := p.next()
	switch t.text {
	case ".":
		return p.fact(head)
	case "=":
		return p.valueBinding(head)
	case ":-":
		return p.rule(head)
	default:
		return fmt.Errorf("line %d: expected '.', '=' or ':-', got %q", t.line, t.text)
	}
}

func (p *parser) fact(c callable) error {
	kind, pred, ok := p.builder.LookupPredicate(c.name)
	if !ok {
		return fmt.Errorf("line %d: undeclared predicate %s", c.line, c.name)
	}
	objs := make([]formalism.ObjectIndex, 0, len(c.args))
	for _, a := range c.args {
		if a.kind != tokIdent {
			return fmt.Errorf("line %d: fact arguments must be objects", a.line)
		}
		o, ok := p.builder.LookupObject(a.text)
		if !ok {
			return fmt.Errorf("line %d: undeclared object %s", a.line, a.text)
		}
		objs = append(objs, o)
	}
	p.builder.Fact(kind, pred, objs...)
	return nil
}

func (p *parser) valueBinding(c callable) error {
	kind, fn, ok := p.builder.LookupFunction(c.name)
	if !ok {
		return fmt.Errorf("line %d: undeclared function %s", c.line, c.name)
	}
	objs := make([]formalism.ObjectIndex, 0, len(c.args))
	for _, a := range c.args {
		o, ok := p.builder.LookupObject(a.text)
		if !ok {
			return fmt.Errorf("line %d: undeclared object %s", a.line, a.text)
		}
		objs = append(objs, o)
	}
	valTok := p.next()
	if valTok.kind != tokNumber {
		return fmt.Errorf("line %d: expected number, got %q", valTok.line, valTok.text)
	}
	val, err := strconv.ParseFloat(valTok.text, 64)
	if err != nil {
		return fmt.Errorf("line %d: bad number %q", valTok.line, valTok.text)
	}
	if err := p.expect("."); err != nil {
		return err
	}
	p.builder.Value(kind, fn, objs, val)
	return nil
}

// ruleScope assigns parameter indices to variables in order of first use.
type ruleScope struct {
	params map[string]formalism.ParameterIndex
	order  []string
}

func (s *ruleScope) param(name string) formalism.ParameterIndex {
	if i, ok := s.params[name]; ok {
		return i
	}
	i := formalism.ParameterIndex(len(s.order))
	s.params[name] = i
	s.order = append(s.order, name)
	return i
}

func (p *parser) rule(head callable) error {
	scope := &ruleScope{params: map[string]formalism.ParameterIndex{}}
	var body formalism.Condition

	for {
		t := p.peek()
		switch {
		case t.kind == tokIdent && t.text == "true":
			p.next()
		case t.kind == tokIdent && t.text == "not":
			p.next()
			c, err := p.callable()
			if err != nil {
				return err
			}
			lit, err := p.literal(c, true, scope)
			if err != nil {
				return err
			}
			appendLiteral(&body, lit)
		case t.kind == tokNumber:
			if err := p.constraint(&body, scope); err != nil {
				return err
			}
		default:
			c, err := p.callable()
			if err != nil {
				return err
			}
			if isCmp(p.peek().text) {
				if err := p.constraintFrom(c, &body, scope); err != nil {
					return err
				}
			} else {
				lit, err := p.literal(c, false, scope)
				if err != nil {
					return err
				}
				appendLiteral(&body, lit)
			}
		}

		sep := p.next()
		if sep.text == "." {
			break
		}
		if sep.text != "," {
			return fmt.Errorf("line %d: expected ',' or '.', got %q", sep.line, sep.text)
		}
	}

	body.Arity = len(scope.order)

	// The head predicate is implicitly declared fluent on first use.
	headAtom, err := p.headAtom(head, scope)
	if err != nil {
		return err
	}
	p.builder.Rule(headAtom, body, 1)
	return nil
}

func appendLiteral(body *formalism.Condition, lit formalism.Literal) {
	if lit.Atom.Kind == formalism.Static {
		body.StaticLiterals = append(body.StaticLiterals, lit)
	} else {
		body.FluentLiterals = append(body.FluentLiterals, lit)
	}
}

func (p *parser) headAtom(c callable, scope *ruleScope) (formalism.Atom, error) {
	if kind, _, ok := p.builder.LookupPredicate(c.name); ok && kind == formalism.Static {
		return formalism.Atom{}, fmt.Errorf("line %d: head predicate %s is static", c.line, c.name)
	}
	pred := p.builder.Predicate(formalism.Fluent, c.name, len(c.args))
	terms, err := p.terms(c, scope)
	if err != nil {
		return formalism.Atom{}, err
	}
	return formalism.Atom{Predicate: pred, Kind: formalism.Fluent, Terms: terms}, nil
}

func (p *parser) literal(c callable, negated bool, scope *ruleScope) (formalism.Literal, error) {
	kind, pred, ok := p.builder.LookupPredicate(c.name)
	if !ok {
		return formalism.Literal{}, fmt.Errorf("line %d: undeclared predicate %s", c.line, c.name)
	}
	terms, err := p.terms(c, scope)
	if err != nil {
		return formalism.Literal{}, err
	}
	return formalism.Literal{
		Negated: negated,
		Atom:    formalism.Atom{Predicate: pred, Kind: kind, Terms: terms},
	}, nil
}

func (p *parser) terms(c callable, scope *ruleScope) ([]formalism.Term, error) {
	terms := make([]formalism.Term, 0, len(c.args))
	for _, a := range c.args {
		if a.kind == tokVar {
			terms = append(terms, formalism.Param(scope.param(a.text)))
			continue
		}
		o, ok := p.builder.LookupObject(a.text)
		if !ok {
			return nil, fmt.Errorf("line %d: undeclared object %s", a.line, a.text)
		}
		terms = append(terms, formalism.Const(o))
	}
	return terms, nil
}

func isCmp(text string) bool {
	switch text {
	case "=", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func cmpOp(text string) formalism.CmpOp {
	switch text {
	case "=":
		return formalism.CmpEQ
	case "!=":
		return formalism.CmpNE
	case "<":
		return formalism.CmpLT
	case "<=":
		return formalism.CmpLE
	case ">":
		return formalism.CmpGT
	default:
		return formalism.CmpGE
	}
}

// constraint parses number OP side.
func (p *parser) constraint(body *formalism.Condition, scope *ruleScope) error {
	lhs, err := p.exprSide(nil, scope)
	if err != nil {
		return err
	}
	opTok := p.next()
	if !isCmp(opTok.text) {
		return fmt.Errorf("line %d: expected comparison, got %q", opTok.line, opTok.text)
	}
	rhs, err := p.exprSideAuto(scope)
	if err != nil {
		return err
	}
	body.Constraints = append(body.Constraints, formalism.Constraint{Op: cmpOp(opTok.text), Lhs: lhs, Rhs: rhs})
	return nil
}

// constraintFrom parses fterm OP side with the fterm already consumed.
func (p *parser) constraintFrom(c callable, body *formalism.Condition, scope *ruleScope) error {
	lhs, err := p.exprSide(&c, scope)
	if err != nil {
		return err
	}
	opTok := p.next()
	if !isCmp(opTok.text) {
		return fmt.Errorf("line %d: expected comparison, got %q", opTok.line, opTok.text)
	}
	rhs, err := p.exprSideAuto(scope)
	if err != nil {
		return err
	}
	body.Constraints = append(body.Constraints, formalism.Constraint{Op: cmpOp(opTok.text), Lhs: lhs, Rhs: rhs})
	return nil
}

// exprSideAuto parses either a number or a function term.
func (p *parser) exprSideAuto(scope *ruleScope) (formalism.ExprIndex, error) {
	if p.peek().kind == tokNumber {
		return p.exprSide(nil, scope)
	}
	c, err := p.callable()
	if err != nil {
		return 0, err
	}
	return p.exprSide(&c, scope)
}

// exprSide builds the expression node of one comparison side: a number
// literal when c is nil, else the function term c.
func (p *parser) exprSide(c *callable, scope *ruleScope) (formalism.ExprIndex, error) {
	if c == nil {
		t := p.next()
		if t.kind != tokNumber {
			return 0, fmt.Errorf("line %d: expected number, got %q", t.line, t.text)
		}
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return 0, fmt.Errorf("line %d: bad number %q", t.line, t.text)
		}
		return p.builder.Constant(v), nil
	}
	kind, fn, ok := p.builder.LookupFunction(c.name)
	if !ok {
		return 0, fmt.Errorf("line %d: undeclared function %s", c.line, c.name)
	}
	terms, err := p.terms(*c, scope)
	if err != nil {
		return 0, err
	}
	return p.builder.FunctionExpr(kind, fn, terms...), nil
}
