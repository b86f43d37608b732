package analysis

import (
	"groundlog/internal/formalism"
)

// parameterOccurrence tracks where a rule parameter appears in its body:
// under a positive element (literal or constraint), under a negative
// literal, or not at all. Grounding derives parameter domains from positive
// occurrences, so a parameter seen only under negation is unsafe.
type parameterOccurrence struct {
	positive bool
	negative bool
}

// ValidateProgram checks the structural well-formedness of a program. Every
// reported failure wraps ErrConfiguration.
func ValidateProgram(p *formalism.Program) error {
	for ri := range p.Rules {
		if err := validateRule(p, formalism.RuleIndex(ri)); err != nil {
			return err
		}
	}
	for _, a := range p.InitAtoms {
		if int(a.Predicate) >= len(p.Predicates[a.Kind]) {
			return configErrorf("initial fact references undefined %s predicate %d", a.Kind, a.Predicate)
		}
		pred := p.Predicates[a.Kind][a.Predicate]
		if len(a.Objects) != pred.Arity {
			return configErrorf("initial fact for %s expects %d arguments, got %d", pred.Name, pred.Arity, len(a.Objects))
		}
		for _, o := range a.Objects {
			if int(o) >= len(p.Objects) {
				return configErrorf("initial fact for %s references undefined object %d", pred.Name, o)
			}
		}
	}
	for _, v := range p.InitValues {
		if int(v.Function) >= len(p.Functions[v.Kind]) {
			return configErrorf("initial value references undefined %s function %d", v.Kind, v.Function)
		}
		fn := p.Functions[v.Kind][v.Function]
		if len(v.Objects) != fn.Arity {
			return configErrorf("initial value for %s expects %d arguments, got %d", fn.Name, fn.Arity, len(v.Objects))
		}
	}
	return nil
}

func validateRule(p *formalism.Program, ri formalism.RuleIndex) error {
	rule := &p.Rules[ri]
	arity := rule.Body.Arity
	occ := make([]parameterOccurrence, arity)

	if rule.Head.Kind != formalism.Fluent {
		return configErrorf("rule %d: head predicate must be fluent", ri)
	}
	if err := validateAtom(p, ri, rule.Head, arity); err != nil {
		return err
	}
	// Head parameters must be bound by the body, not the other way round, so
	// the head does not contribute occurrences.
	for _, t := range rule.Head.Terms {
		if !t.IsObject() && int(t.Parameter()) >= arity {
			return configErrorf("rule %d: head parameter %d out of range (arity %d)", ri, t.Parameter(), arity)
		}
	}

	for _, kind := range formalism.Kinds {
		for _, lit := range rule.Body.Literals(kind) {
			if err := validateAtom(p, ri, lit.Atom, arity); err != nil {
				return err
			}
			for _, t := range lit.Atom.Terms {
				if t.IsObject() {
					continue
				}
				if lit.Negated {
					occ[t.Parameter()].negative = true
				} else {
					occ[t.Parameter()].positive = true
				}
			}
		}
	}
	for _, c := range rule.Body.Constraints {
		for _, pi := range formalism.ConstraintParams(p, c) {
			if int(pi) >= arity {
				return configErrorf("rule %d: constraint parameter %d out of range (arity %d)", ri, pi, arity)
			}
			occ[pi].positive = true
		}
		for _, ft := range formalism.ConstraintFTerms(p, c) {
			if int(ft.Function) >= len(p.Functions[ft.Kind]) {
				return configErrorf("rule %d: undefined %s function %d", ri, ft.Kind, ft.Function)
			}
			fn := p.Functions[ft.Kind][ft.Function]
			if len(ft.Terms) != fn.Arity {
				return configErrorf("rule %d: function %s expects %d arguments, got %d", ri, fn.Name, fn.Arity, len(ft.Terms))
			}
		}
	}

	for pi, o := range occ {
		if !o.positive && !o.negative {
			return configErrorf("rule %d: parameter %d is not mentioned in the body", ri, pi)
		}
		if !o.positive {
			return configErrorf("rule %d: parameter %d appears only under negation", ri, pi)
		}
	}
	return nil
}

func validateAtom(p *formalism.Program, ri formalism.RuleIndex, a formalism.Atom, arity int) error {
	if int(a.Predicate) >= len(p.Predicates[a.Kind]) {
		return configErrorf("rule %d: undefined %s predicate %d", ri, a.Kind, a.Predicate)
	}
	pred := p.Predicates[a.Kind][a.Predicate]
	if len(a.Terms) != pred.Arity {
		return configErrorf("rule %d: predicate %s expects %d arguments, got %d", ri, pred.Name, pred.Arity, len(a.Terms))
	}
	for _, t := range a.Terms {
		if t.IsObject() {
			if int(t.Object()) >= len(p.Objects) {
				return configErrorf("rule %d: undefined object %d", ri, t.Object())
			}
			continue
		}
		if int(t.Parameter()) >= arity {
			return configErrorf("rule %d: parameter %d out of range (arity %d)", ri, t.Parameter(), arity)
		}
	}
	return nil
}
