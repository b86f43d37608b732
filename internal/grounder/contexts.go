package grounder

import (
	"sort"
	"time"

	"groundlog/internal/formalism"
)

// RuleStats accumulates per-rule execution statistics.
type RuleStats struct {
	Executions uint64
	InitTime   time.Duration // graph sweeps (SetNextAssignmentSets)
	GroundTime time.Duration // clique enumeration and worker checks
}

// AggregatedRuleStats summarises rule statistics across all executed rules.
type AggregatedRuleStats struct {
	InitMin, InitMax, InitMedian       time.Duration
	GroundMin, GroundMax, GroundMedian time.Duration
}

// ProgramStats accumulates whole-run statistics.
type ProgramStats struct {
	MergesInserted  int
	MergesDiscarded int
	GroundTime      time.Duration
	MergeTime       time.Duration
	Rules           AggregatedRuleStats
}

func aggregateRuleStats(rcs []*ruleContext) AggregatedRuleStats {
	var init, ground []time.Duration
	for _, rc := range rcs {
		if rc.stats.Executions == 0 {
			continue
		}
		init = append(init, rc.stats.InitTime)
		ground = append(ground, rc.stats.GroundTime)
	}
	var out AggregatedRuleStats
	if len(init) == 0 {
		return out
	}
	out.InitMin, out.InitMax, out.InitMedian = minMaxMedian(init)
	out.GroundMin, out.GroundMax, out.GroundMedian = minMaxMedian(ground)
	return out
}

func minMaxMedian(v []time.Duration) (time.Duration, time.Duration, time.Duration) {
	sort.Slice(v, func(i, j int) bool { return v[i] < v[j] })
	n := len(v)
	median := v[n/2]
	if n%2 == 0 {
		median = (v[n/2-1] + v[n/2]) / 2
	}
	return v[0], v[n-1], median
}

// ruleContext is the per-rule execution context: the compiled graph, the
// delta enumerator with its workspace, the overlay repository for staged
// ground entities, the ground-head cache spanning iterations, and scratch
// buffers. Exactly one worker touches a rule context at a time.
type ruleContext struct {
	index formalism.RuleIndex
	rule  *formalism.Rule

	graph   *StaticGraph
	enum    *DeltaKPKC
	overlay *formalism.OverlayRepository

	// Thread-local scratch; the rule runs single-threaded.
	builder  *formalism.Builder
	scratch  []formalism.ObjectIndex
	binding  []formalism.ObjectIndex
	headObjs []formalism.ObjectIndex

	// Ground heads encountered across iterations, by canonical key.
	groundHeads map[string]struct{}

	// Overlay ground-rule indices staged in the current iteration.
	emitted []formalism.GroundRuleIndex

	// Nullary sub-condition, evaluated once per iteration outside the
	// clique loop.
	nullaryLits []formalism.Literal
	nullaryCons []formalism.Constraint

	hasPositiveFluent bool
	positiveFluent    []formalism.PredicateIndex

	stats RuleStats
}

func newRuleContext(p *formalism.Program, ri formalism.RuleIndex, graph *StaticGraph, repo *formalism.Repository) *ruleContext {
	rule := &p.Rules[ri]
	rc := &ruleContext{
		index:       ri,
		rule:        rule,
		graph:       graph,
		enum:        NewDeltaKPKC(p, graph),
		overlay:     formalism.NewOverlayRepository(repo),
		builder:     formalism.NewBuilder(),
		binding:     make([]formalism.ObjectIndex, rule.Body.Arity),
		groundHeads: make(map[string]struct{}),
	}
	for _, kind := range formalism.Kinds {
		for _, lit := range rule.Body.Literals(kind) {
			if len(formalism.LiteralParams(lit.Atom)) == 0 {
				rc.nullaryLits = append(rc.nullaryLits, lit)
			}
		}
	}
	for _, c := range rule.Body.Constraints {
		if len(formalism.ConstraintParams(p, c)) == 0 {
			rc.nullaryCons = append(rc.nullaryCons, c)
		}
	}
	seen := map[formalism.PredicateIndex]struct{}{}
	for _, lit := range rule.Body.FluentLiterals {
		if lit.Negated {
			continue
		}
		rc.hasPositiveFluent = true
		if _, ok := seen[lit.Atom.Predicate]; !ok {
			seen[lit.Atom.Predicate] = struct{}{}
			rc.positiveFluent = append(rc.positiveFluent, lit.Atom.Predicate)
		}
	}
	return rc
}
