package analysis

import (
	"groundlog/internal/bitset"
	"groundlog/internal/formalism"
)

// Domains holds, for every predicate/function argument position and every
// rule parameter, the sorted list of objects that could ever legitimately
// appear there.
type Domains struct {
	// PredicatePositions[kind][predicate][position] is a sorted object list.
	PredicatePositions [formalism.NumKinds][][][]formalism.ObjectIndex
	// FunctionPositions[kind][function][position] is a sorted object list.
	FunctionPositions [formalism.NumKinds][][][]formalism.ObjectIndex
	// RuleParams[rule][parameter] is a sorted object list.
	RuleParams [][][]formalism.ObjectIndex
}

// domainSet is a working set of objects during the restrict/lift passes.
type domainSet = bitset.Set

// ComputeDomains derives tight, type-consistent domains without running the
// grounder:
//
//  1. seed each predicate/function position from the initial ground facts,
//  2. restrict each rule parameter through the positions of its positive
//     static literals and static function terms,
//  3. lift the restricted rule domains back into the still-growing fluent
//     positions (body and head),
//  4. sort each domain into a canonical list.
func ComputeDomains(p *formalism.Program) (*Domains, error) {
	numObjects := len(p.Objects)

	universe := bitset.New(numObjects)
	universe.Fill()

	var predSets, fnSets [formalism.NumKinds][][]domainSet
	for _, k := range formalism.Kinds {
		predSets[k] = make([][]domainSet, len(p.Predicates[k]))
		for i, pred := range p.Predicates[k] {
			predSets[k][i] = newPositionSets(pred.Arity, numObjects)
		}
		fnSets[k] = make([][]domainSet, len(p.Functions[k]))
		for i, fn := range p.Functions[k] {
			fnSets[k][i] = newPositionSets(fn.Arity, numObjects)
		}
	}

	// Step 1: seed position domains from the initial facts.
	for _, a := range p.InitAtoms {
		for pos, o := range a.Objects {
			predSets[a.Kind][a.Predicate][pos].Set(int(o))
		}
	}
	for _, v := range p.InitValues {
		for pos, o := range v.Objects {
			fnSets[v.Kind][v.Function][pos].Set(int(o))
		}
	}

	// Step 2: restrict rule parameter domains through static positions.
	ruleSets := make([][]domainSet, len(p.Rules))
	for ri := range p.Rules {
		rule := &p.Rules[ri]
		params := make([]domainSet, rule.Body.Arity)
		for pi := range params {
			params[pi] = universe.Clone()
		}

		for _, lit := range rule.Body.StaticLiterals {
			if lit.Negated {
				continue
			}
			restrictThroughAtom(lit.Atom, params, predSets[formalism.Static])
		}
		for _, c := range rule.Body.Constraints {
			for _, ft := range formalism.ConstraintFTerms(p, c) {
				if ft.Kind == formalism.Static {
					restrictThroughFTerm(ft, params, fnSets[formalism.Static])
				}
			}
		}
		ruleSets[ri] = params
	}

	// Step 3: lift restricted rule domains into fluent positions.
	for ri := range p.Rules {
		rule := &p.Rules[ri]
		params := ruleSets[ri]

		for _, lit := range rule.Body.FluentLiterals {
			liftThroughAtom(lit.Atom, params, predSets[formalism.Fluent])
		}
		for _, c := range rule.Body.Constraints {
			for _, ft := range formalism.ConstraintFTerms(p, c) {
				if ft.Kind == formalism.Fluent {
					liftThroughFTermTerms(ft.Terms, ft.Function, params, fnSets[formalism.Fluent])
				}
			}
		}
		liftThroughAtom(rule.Head, params, predSets[formalism.Fluent])
	}

	// Step 4: compress sets to sorted lists.
	d := &Domains{RuleParams: make([][][]formalism.ObjectIndex, len(p.Rules))}
	for _, k := range formalism.Kinds {
		d.PredicatePositions[k] = compress(predSets[k])
		d.FunctionPositions[k] = compress(fnSets[k])
	}
	for ri, params := range ruleSets {
		d.RuleParams[ri] = compressOne(params)
	}
	return d, nil
}

func newPositionSets(arity, numObjects int) []domainSet {
	sets := make([]domainSet, arity)
	for i := range sets {
		sets[i] = bitset.New(numObjects)
	}
	return sets
}

func restrictThroughAtom(a formalism.Atom, params []domainSet, positionSets [][]domainSet) {
	for pos, t := range a.Terms {
		if t.IsObject() {
			continue
		}
		params[t.Parameter()].And(positionSets[a.Predicate][pos])
	}
}

func restrictThroughFTerm(ft formalism.FunctionTerm, params []domainSet, positionSets [][]domainSet) {
	for pos, t := range ft.Terms {
		if t.IsObject() {
			continue
		}
		params[t.Parameter()].And(positionSets[ft.Function][pos])
	}
}

func liftThroughAtom(a formalism.Atom, params []domainSet, positionSets [][]domainSet) {
	for pos, t := range a.Terms {
		if t.IsObject() {
			positionSets[a.Predicate][pos].Set(int(t.Object()))
			continue
		}
		positionSets[a.Predicate][pos].Or(params[t.Parameter()])
	}
}

func liftThroughFTermTerms(terms []formalism.Term, fn formalism.FunctionIndex, params []domainSet, positionSets [][]domainSet) {
	for pos, t := range terms {
		if t.IsObject() {
			positionSets[fn][pos].Set(int(t.Object()))
			continue
		}
		positionSets[fn][pos].Or(params[t.Parameter()])
	}
}

func compress(sets [][]domainSet) [][][]formalism.ObjectIndex {
	out := make([][][]formalism.ObjectIndex, len(sets))
	for i, positions := range sets {
		out[i] = compressOne(positions)
	}
	return out
}

func compressOne(positions []domainSet) [][]formalism.ObjectIndex {
	out := make([][]formalism.ObjectIndex, len(positions))
	for i, s := range positions {
		list := make([]formalism.ObjectIndex, 0, s.Count())
		s.ForEach(func(o int) { list = append(list, formalism.ObjectIndex(o)) })
		out[i] = list
	}
	return out
}
