package analysis

import (
	"groundlog/internal/formalism"
)

// Strata partitions the program's rules by the topological layering of the
// fluent predicate dependency graph. A rule lives in the stratum of its head
// predicate and may only consume fluent predicates from its own or lower
// strata; consumption through negation requires a strictly lower stratum.
type Strata struct {
	// PredicateStratum[p] is the stratum of fluent predicate p.
	PredicateStratum []int
	// RuleStratum[r] is the stratum of rule r.
	RuleStratum []int
	// Order[s] lists the rules of stratum s in rule-index order.
	Order [][]formalism.RuleIndex
	// Listeners[p] lists every rule whose body consumes fluent predicate p.
	Listeners [][]formalism.RuleIndex
	// NumStrata is len(Order).
	NumStrata int
}

// Stratify layers the fluent predicates and assigns rules to strata. It
// reports recursion through negation as a configuration error; stratified
// negation is a setup-time requirement, not a runtime concern.
func Stratify(p *formalism.Program) (*Strata, error) {
	numPreds := len(p.Predicates[formalism.Fluent])
	stratum := make([]int, numPreds)

	// Relax stratum lower bounds to a fixpoint. Any stratum exceeding the
	// predicate count certifies a negative cycle.
	limit := numPreds + 1
	for changed := true; changed; {
		changed = false
		for ri := range p.Rules {
			rule := &p.Rules[ri]
			head := rule.Head.Predicate
			for _, lit := range rule.Body.FluentLiterals {
				req := stratum[lit.Atom.Predicate]
				if lit.Negated {
					req++
				}
				if stratum[head] < req {
					stratum[head] = req
					changed = true
					if stratum[head] > limit {
						return nil, configErrorf("recursion through negation involving predicate %s",
							p.Predicates[formalism.Fluent][head].Name)
					}
				}
			}
		}
	}

	numStrata := 1
	for _, s := range stratum {
		if s+1 > numStrata {
			numStrata = s + 1
		}
	}

	st := &Strata{
		PredicateStratum: stratum,
		RuleStratum:      make([]int, len(p.Rules)),
		Order:            make([][]formalism.RuleIndex, numStrata),
		Listeners:        make([][]formalism.RuleIndex, numPreds),
		NumStrata:        numStrata,
	}
	for ri := range p.Rules {
		s := stratum[p.Rules[ri].Head.Predicate]
		st.RuleStratum[ri] = s
		st.Order[s] = append(st.Order[s], formalism.RuleIndex(ri))
	}
	for ri := range p.Rules {
		seen := map[formalism.PredicateIndex]struct{}{}
		for _, lit := range p.Rules[ri].Body.FluentLiterals {
			q := lit.Atom.Predicate
			if _, ok := seen[q]; ok {
				continue
			}
			seen[q] = struct{}{}
			st.Listeners[q] = append(st.Listeners[q], formalism.RuleIndex(ri))
		}
	}
	return st, nil
}
