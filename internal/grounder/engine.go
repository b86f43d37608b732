package grounder

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"groundlog/internal/analysis"
	"groundlog/internal/formalism"
)

// Event describes one emitted ground rule for streaming listeners. The
// binding slice is owned by the repository and must not be mutated.
type Event struct {
	Rule       formalism.RuleIndex
	Binding    []formalism.ObjectIndex
	Head       formalism.GroundAtomIndex
	GroundRule formalism.GroundRuleIndex
}

// Result is the outcome of a grounding run. When cancelled, Complete is
// false and the fact sets hold the partial state reached so far.
type Result struct {
	RunID       string
	Complete    bool
	Facts       *FactSets
	Repo        *formalism.Repository
	GroundRules []formalism.GroundRuleIndex
	Stats       ProgramStats
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger injects a structured logger; the default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithWorkers bounds the per-stratum worker pool; the default is NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithFactLimit warns once when the fluent fact set grows past n. 0 means
// unlimited.
func WithFactLimit(n int) Option {
	return func(e *Engine) { e.factLimit = n }
}

// Engine is the grounding engine for one program: analysis artifacts,
// per-rule consistency graphs and enumerators, fact and assignment sets,
// and the stratified scheduler state.
type Engine struct {
	prog    *formalism.Program
	repo    *formalism.Repository
	domains *analysis.Domains
	strata  *analysis.Strata

	facts *FactSets
	sets  *AssignmentSets

	rules   []*ruleContext
	builder *formalism.Builder

	log       *zap.Logger
	workers   int
	factLimit int
	limitWarn bool
}

// NewEngine validates the program and sets up analysis, consistency graphs,
// assignment sets, and the scheduler. Malformed programs fail here with a
// configuration error.
func NewEngine(prog *formalism.Program, opts ...Option) (*Engine, error) {
	if err := analysis.ValidateProgram(prog); err != nil {
		return nil, err
	}
	domains, err := analysis.ComputeDomains(prog)
	if err != nil {
		return nil, err
	}
	strata, err := analysis.Stratify(prog)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		prog:    prog,
		repo:    formalism.NewRepository(),
		domains: domains,
		strata:  strata,
		facts:   NewFactSets(),
		builder: formalism.NewBuilder(),
		log:     zap.NewNop(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.loadInitialFacts(); err != nil {
		return nil, err
	}

	e.sets, err = NewAssignmentSets(prog, domains)
	if err != nil {
		return nil, err
	}
	// Static evidence never changes; build its assignment sets once.
	e.sets.Tagged(formalism.Static).InsertFacts(e.repo, formalism.Static, e.facts.Tagged(formalism.Static))

	e.rules = make([]*ruleContext, len(prog.Rules))
	for ri := range prog.Rules {
		graph := NewStaticGraph(prog, formalism.RuleIndex(ri), domains, e.sets)
		e.rules[ri] = newRuleContext(prog, formalism.RuleIndex(ri), graph, e.repo)
	}

	e.log.Debug("engine ready",
		zap.Int("objects", len(prog.Objects)),
		zap.Int("rules", len(prog.Rules)),
		zap.Int("strata", strata.NumStrata),
	)
	return e, nil
}

// loadInitialFacts interns the program's initial state into the repository
// and fact sets.
func (e *Engine) loadInitialFacts() error {
	for _, a := range e.prog.InitAtoms {
		ai, _ := e.repo.GetOrCreateGroundAtom(e.builder, a.Kind, a.Predicate, a.Objects)
		e.facts.Tagged(a.Kind).Predicate.Insert(ai, a.Predicate)
	}
	for _, v := range e.prog.InitValues {
		fi, _ := e.repo.GetOrCreateGroundFTerm(e.builder, v.Kind, v.Function, v.Objects)
		if err := e.facts.Tagged(v.Kind).Function.Insert(fi, v.Value); err != nil {
			return fmt.Errorf("%w: %v", analysis.ErrConfiguration, err)
		}
	}
	return nil
}

// Ground runs to fixpoint.
func (e *Engine) Ground(ctx context.Context) (*Result, error) {
	return e.GroundWithListener(ctx, nil)
}

// GroundWithListener runs to fixpoint, streaming each emitted ground rule.
// On cancellation it returns the partial result together with ErrCancelled.
func (e *Engine) GroundWithListener(ctx context.Context, onRule func(Event)) (*Result, error) {
	result := &Result{
		RunID: uuid.NewString(),
		Facts: e.facts,
		Repo:  e.repo,
	}
	start := time.Now()

	for s := 0; s < e.strata.NumStrata; s++ {
		if err := e.runStratum(ctx, s, result, onRule); err != nil {
			result.Stats.Rules = aggregateRuleStats(e.rules)
			result.Stats.GroundTime = time.Since(start)
			return result, err
		}
	}

	result.Complete = true
	result.Stats.Rules = aggregateRuleStats(e.rules)
	result.Stats.GroundTime = time.Since(start)
	e.log.Debug("fixpoint reached",
		zap.String("run", result.RunID),
		zap.Int("fluent_facts", e.facts.Tagged(formalism.Fluent).Predicate.Len()),
		zap.Int("ground_rules", len(result.GroundRules)),
	)
	return result, nil
}

// runStratum drains one stratum's work set, iterating batches of scheduled
// rules until no rule produces a new fact.
func (e *Engine) runStratum(ctx context.Context, s int, result *Result, onRule func(Event)) error {
	workset := make(map[formalism.RuleIndex]struct{})
	for _, ri := range e.strata.Order[s] {
		if e.seedable(e.rules[ri]) {
			workset[ri] = struct{}{}
		}
	}

	for iteration := 0; len(workset) > 0; iteration++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		batch := make([]formalism.RuleIndex, 0, len(workset))
		for ri := range workset {
			batch = append(batch, ri)
		}
		sort.Slice(batch, func(i, j int) bool { return batch[i] < batch[j] })
		workset = make(map[formalism.RuleIndex]struct{})

		// Fact sets are frozen for the iteration; refresh the fluent
		// assignment sets from them.
		fluent := e.sets.Tagged(formalism.Fluent)
		fluent.Reset()
		fluent.InsertFacts(e.repo, formalism.Fluent, e.facts.Tagged(formalism.Fluent))

		e.log.Debug("stratum iteration",
			zap.Int("stratum", s),
			zap.Int("iteration", iteration),
			zap.Int("rules", len(batch)),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)
		for _, ri := range batch {
			rc := e.rules[ri]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				initStart := time.Now()
				rc.enum.SetNextAssignmentSets(e.sets)
				rc.stats.InitTime += time.Since(initStart)

				groundStart := time.Now()
				rc.run(e)
				rc.stats.GroundTime += time.Since(groundStart)
				rc.stats.Executions++
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		// Barrier: merge worker outputs single-threaded, in rule order.
		mergeStart := time.Now()
		changed := make(map[formalism.PredicateIndex]struct{})
		for _, ri := range batch {
			e.mergeEmitted(e.rules[ri], result, changed, onRule)
		}
		result.Stats.MergeTime += time.Since(mergeStart)

		// Reschedule the listeners of every predicate that gained facts.
		for pred := range changed {
			for _, ri := range e.strata.Listeners[pred] {
				if e.strata.RuleStratum[ri] == s {
					workset[ri] = struct{}{}
				}
			}
		}
	}
	return nil
}

// seedable reports whether a rule can be scheduled when its stratum starts:
// rules without positive fluent dependencies always run once; others wait
// until some consumed predicate is non-empty.
func (e *Engine) seedable(rc *ruleContext) bool {
	if !rc.hasPositiveFluent {
		return true
	}
	for _, pred := range rc.positiveFluent {
		if e.facts.Tagged(formalism.Fluent).Predicate.CountFor(pred) > 0 {
			return true
		}
	}
	return false
}

// mergeEmitted promotes a rule's staged ground rules from its overlay into
// the shared repository, updates the fact sets, and fires the listener. The
// overlay is cleared afterwards.
func (e *Engine) mergeEmitted(rc *ruleContext, result *Result, changed map[formalism.PredicateIndex]struct{}, onRule func(Event)) {
	for _, gri := range rc.emitted {
		gr := rc.overlay.GroundRule(gri)

		bindingObjs := rc.overlay.Binding(gr.Binding)
		newBinding, _ := e.repo.GetOrCreateBinding(e.builder, bindingObjs)

		oldCond := rc.overlay.GroundCondition(gr.Body)
		newCond := formalism.GroundCondition{}
		for _, lit := range oldCond.StaticLiterals {
			newCond.StaticLiterals = append(newCond.StaticLiterals, e.mergeLiteral(rc, lit))
		}
		for _, lit := range oldCond.FluentLiterals {
			newCond.FluentLiterals = append(newCond.FluentLiterals, e.mergeLiteral(rc, lit))
		}
		for _, c := range oldCond.Constraints {
			c.Binding = newBinding
			newCond.Constraints = append(newCond.Constraints, c)
		}
		condIdx, _ := e.repo.GetOrCreateGroundCondition(e.builder, newCond)

		headAtom := rc.overlay.GroundAtom(formalism.Fluent, gr.Head)
		newHead, _ := e.repo.GetOrCreateGroundAtom(e.builder, formalism.Fluent, headAtom.Predicate, headAtom.Objects)

		mainGri, inserted := e.repo.GetOrCreateGroundRule(e.builder, formalism.GroundRule{
			Rule:    gr.Rule,
			Binding: newBinding,
			Body:    condIdx,
			Head:    newHead,
			Cost:    gr.Cost,
		})
		if inserted {
			result.GroundRules = append(result.GroundRules, mainGri)
			result.Stats.MergesInserted++
		} else {
			result.Stats.MergesDiscarded++
		}

		if e.facts.Tagged(formalism.Fluent).Predicate.Insert(newHead, headAtom.Predicate) {
			changed[headAtom.Predicate] = struct{}{}
			if e.factLimit > 0 && !e.limitWarn && e.facts.Tagged(formalism.Fluent).Predicate.Len() > e.factLimit {
				e.limitWarn = true
				e.log.Warn("fluent fact set exceeded configured limit",
					zap.Int("limit", e.factLimit),
					zap.Int("facts", e.facts.Tagged(formalism.Fluent).Predicate.Len()),
				)
			}
		}

		if inserted && onRule != nil {
			onRule(Event{
				Rule:       gr.Rule,
				Binding:    e.repo.Binding(newBinding),
				Head:       newHead,
				GroundRule: mainGri,
			})
		}
	}
	rc.emitted = rc.emitted[:0]
	rc.overlay.Clear()
}

func (e *Engine) mergeLiteral(rc *ruleContext, lit formalism.GroundLiteral) formalism.GroundLiteral {
	atom := rc.overlay.GroundAtom(lit.Kind, lit.Atom)
	idx, _ := e.repo.GetOrCreateGroundAtom(e.builder, lit.Kind, atom.Predicate, atom.Objects)
	return formalism.GroundLiteral{Negated: lit.Negated, Kind: lit.Kind, Atom: idx}
}

// Program returns the engine's program.
func (e *Engine) Program() *formalism.Program { return e.prog }

// Repository returns the shared ground-entity arena.
func (e *Engine) Repository() *formalism.Repository { return e.repo }

// Domains returns the computed variable domains.
func (e *Engine) Domains() *analysis.Domains { return e.domains }

// Strata returns the rule stratification.
func (e *Engine) Strata() *analysis.Strata { return e.strata }
