package grounder

import (
	"groundlog/internal/formalism"
)

// The worker instantiates a rule under candidate bindings delivered by the
// delta enumerator, deduplicates ground heads, checks full-body
// applicability against the frozen fact sets, and stages accepted ground
// rules in the rule's overlay repository for the merge phase.

// run executes one iteration of a rule. The enumerator must already be
// advanced to the current assignment sets.
func (rc *ruleContext) run(en *Engine) {
	rc.emitted = rc.emitted[:0]

	if !rc.nullaryHolds(en) {
		return
	}

	rc.enum.ForEachNewClique(func(clique []int) {
		binding := rc.binding[:rc.graph.K()]
		for _, vi := range clique {
			v := rc.graph.VertexAt(vi)
			binding[v.Parameter] = v.Object
		}
		rc.tryBinding(en, binding)
	})
}

// nullaryHolds evaluates the nullary sub-condition once per iteration.
func (rc *ruleContext) nullaryHolds(en *Engine) bool {
	for _, lit := range rc.nullaryLits {
		if !rc.literalHolds(en, lit, nil) {
			return false
		}
	}
	for _, c := range rc.nullaryCons {
		if !evalConstraint(en.prog, en.repo, rc.builder, c, nil, en.facts, &rc.scratch) {
			return false
		}
	}
	return true
}

// tryBinding grounds the rule under one binding: head dedup first, then the
// full-body applicability test, then staging into the overlay.
func (rc *ruleContext) tryBinding(en *Engine, binding []formalism.ObjectIndex) {
	rc.headObjs = rc.headObjs[:0]
	for _, t := range rc.rule.Head.Terms {
		if t.IsObject() {
			rc.headObjs = append(rc.headObjs, t.Object())
		} else {
			rc.headObjs = append(rc.headObjs, binding[t.Parameter()])
		}
	}

	key := headKey(rc.builder, rc.rule.Head.Predicate, rc.headObjs)
	if _, dup := rc.groundHeads[key]; dup {
		return
	}

	if !rc.bodyHolds(en, binding) {
		return
	}
	rc.groundHeads[key] = struct{}{}

	headIdx, _ := rc.overlay.GetOrCreateGroundAtom(rc.builder, formalism.Fluent, rc.rule.Head.Predicate, rc.headObjs)
	bindingIdx, _ := rc.overlay.GetOrCreateBinding(rc.builder, binding)
	condIdx, _ := rc.overlay.GetOrCreateGroundCondition(rc.builder, rc.groundBody(binding, bindingIdx))
	gri, inserted := rc.overlay.GetOrCreateGroundRule(rc.builder, formalism.GroundRule{
		Rule:    rc.index,
		Binding: bindingIdx,
		Body:    condIdx,
		Head:    headIdx,
		Cost:    rc.rule.Cost,
	})
	if inserted {
		rc.emitted = append(rc.emitted, gri)
	}
}

// bodyHolds tests full-body applicability against the current fact sets:
// positive literals need a recorded fact, negative literals need its
// absence, numeric constraints evaluate on the fluent value store.
func (rc *ruleContext) bodyHolds(en *Engine, binding []formalism.ObjectIndex) bool {
	for _, kind := range formalism.Kinds {
		for _, lit := range rc.rule.Body.Literals(kind) {
			if !rc.literalHolds(en, lit, binding) {
				return false
			}
		}
	}
	for _, c := range rc.rule.Body.Constraints {
		if !evalConstraint(en.prog, en.repo, rc.builder, c, binding, en.facts, &rc.scratch) {
			return false
		}
	}
	return true
}

func (rc *ruleContext) literalHolds(en *Engine, lit formalism.Literal, binding []formalism.ObjectIndex) bool {
	rc.scratch = rc.scratch[:0]
	for _, t := range lit.Atom.Terms {
		if t.IsObject() {
			rc.scratch = append(rc.scratch, t.Object())
		} else {
			rc.scratch = append(rc.scratch, binding[t.Parameter()])
		}
	}
	ai, found := en.repo.FindGroundAtom(rc.builder, lit.Atom.Kind, lit.Atom.Predicate, rc.scratch)
	present := found && en.facts.Tagged(lit.Atom.Kind).Predicate.Contains(ai)
	return present != lit.Negated
}

// groundBody instantiates every body element under the binding, interning
// atoms into the overlay (negative atoms may be new there).
func (rc *ruleContext) groundBody(binding []formalism.ObjectIndex, bindingIdx formalism.BindingIndex) formalism.GroundCondition {
	var cond formalism.GroundCondition
	for _, kind := range formalism.Kinds {
		for _, lit := range rc.rule.Body.Literals(kind) {
			rc.scratch = rc.scratch[:0]
			for _, t := range lit.Atom.Terms {
				if t.IsObject() {
					rc.scratch = append(rc.scratch, t.Object())
				} else {
					rc.scratch = append(rc.scratch, binding[t.Parameter()])
				}
			}
			ai, _ := rc.overlay.GetOrCreateGroundAtom(rc.builder, kind, lit.Atom.Predicate, rc.scratch)
			gl := formalism.GroundLiteral{Negated: lit.Negated, Kind: kind, Atom: ai}
			if kind == formalism.Static {
				cond.StaticLiterals = append(cond.StaticLiterals, gl)
			} else {
				cond.FluentLiterals = append(cond.FluentLiterals, gl)
			}
		}
	}
	for _, c := range rc.rule.Body.Constraints {
		cond.Constraints = append(cond.Constraints, formalism.GroundConstraint{
			Op: c.Op, Lhs: c.Lhs, Rhs: c.Rhs, Binding: bindingIdx,
		})
	}
	return cond
}

// headKey builds the canonical dedup key of a ground head.
func headKey(b *formalism.Builder, pred formalism.PredicateIndex, objects []formalism.ObjectIndex) string {
	return string(formalism.GroundAtomKey(b, pred, objects))
}
