package grounder

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"groundlog/internal/formalism"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fluentFacts(t *testing.T, eng *Engine, result *Result) []string {
	t.Helper()
	return FormatFactSet(eng.prog, eng.repo, formalism.Fluent, result.Facts)
}

func patom(pred formalism.PredicateIndex, kind formalism.Kind, params ...formalism.ParameterIndex) formalism.Atom {
	terms := make([]formalism.Term, len(params))
	for i, p := range params {
		terms[i] = formalism.Param(p)
	}
	return formalism.Atom{Predicate: pred, Kind: kind, Terms: terms}
}

// Scenario: two objects, unary rule. q(x) :- t(x), p(x) with t(a), p(a).
func TestGroundUnaryRule(t *testing.T) {
	pb := formalism.NewProgramBuilder()
	a := pb.Object("a")
	pb.Object("b")
	tp := pb.Predicate(formalism.Static, "t", 1)
	pp := pb.Predicate(formalism.Fluent, "p", 1)
	qp := pb.Predicate(formalism.Fluent, "q", 1)
	pb.Fact(formalism.Static, tp, a)
	pb.Fact(formalism.Fluent, pp, a)
	pb.Rule(patom(qp, formalism.Fluent, 0), formalism.Condition{
		Arity:          1,
		StaticLiterals: []formalism.Literal{{Atom: patom(tp, formalism.Static, 0)}},
		FluentLiterals: []formalism.Literal{{Atom: patom(pp, formalism.Fluent, 0)}},
	}, 1)

	eng, err := NewEngine(pb.Build(), WithWorkers(2))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	var events []Event
	result, err := eng.GroundWithListener(context.Background(), func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}
	if !result.Complete {
		t.Fatal("run should be complete")
	}

	want := []string{"p(a)", "q(a)"}
	if diff := cmp.Diff(want, fluentFacts(t, eng, result)); diff != "" {
		t.Errorf("fluent facts mismatch (-want +got):\n%s", diff)
	}
	staticWant := []string{"t(a)"}
	if diff := cmp.Diff(staticWant, FormatFactSet(eng.prog, eng.repo, formalism.Static, result.Facts)); diff != "" {
		t.Errorf("static facts mismatch (-want +got):\n%s", diff)
	}

	// Ground rule q(a) :- t(a), p(a) emitted exactly once.
	if len(events) != 1 {
		t.Fatalf("emitted %d ground rules, want 1", len(events))
	}
	if got := []formalism.ObjectIndex{a}; !cmp.Equal(got, events[0].Binding) {
		t.Errorf("binding = %v, want %v", events[0].Binding, got)
	}
}

func transitiveClosureProgram(edges [][2]string) (*formalism.Program, *formalism.ProgramBuilder) {
	pb := formalism.NewProgramBuilder()
	ep := pb.Predicate(formalism.Static, "e", 2)
	tcp := pb.Predicate(formalism.Fluent, "tc", 2)
	for _, e := range edges {
		pb.Fact(formalism.Static, ep, pb.Object(e[0]), pb.Object(e[1]))
	}
	// tc(x, y) :- e(x, y).
	pb.Rule(patom(tcp, formalism.Fluent, 0, 1), formalism.Condition{
		Arity:          2,
		StaticLiterals: []formalism.Literal{{Atom: patom(ep, formalism.Static, 0, 1)}},
	}, 1)
	// tc(x, y) :- e(x, z), tc(z, y).
	pb.Rule(patom(tcp, formalism.Fluent, 0, 1), formalism.Condition{
		Arity:          3,
		StaticLiterals: []formalism.Literal{{Atom: patom(ep, formalism.Static, 0, 2)}},
		FluentLiterals: []formalism.Literal{{Atom: patom(tcp, formalism.Fluent, 2, 1)}},
	}, 1)
	return pb.Build(), pb
}

// Scenario: transitive closure over a chain.
func TestGroundTransitiveClosure(t *testing.T) {
	prog, _ := transitiveClosureProgram([][2]string{{"n1", "n2"}, {"n2", "n3"}, {"n3", "n4"}})
	eng, err := NewEngine(prog)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	result, err := eng.Ground(context.Background())
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}

	want := []string{
		"tc(n1, n2)", "tc(n1, n3)", "tc(n1, n4)",
		"tc(n2, n3)", "tc(n2, n4)", "tc(n3, n4)",
	}
	if diff := cmp.Diff(want, fluentFacts(t, eng, result)); diff != "" {
		t.Errorf("tc mismatch (-want +got):\n%s", diff)
	}
}

// Scenario: negation as failure. q(x) :- obj(x), not p(x).
func TestGroundNegationAsFailure(t *testing.T) {
	pb := formalism.NewProgramBuilder()
	a := pb.Object("a")
	b := pb.Object("b")
	objp := pb.Predicate(formalism.Static, "obj", 1)
	pp := pb.Predicate(formalism.Fluent, "p", 1)
	qp := pb.Predicate(formalism.Fluent, "q", 1)
	pb.Fact(formalism.Static, objp, a)
	pb.Fact(formalism.Static, objp, b)
	pb.Fact(formalism.Fluent, pp, a)
	pb.Rule(patom(qp, formalism.Fluent, 0), formalism.Condition{
		Arity:          1,
		StaticLiterals: []formalism.Literal{{Atom: patom(objp, formalism.Static, 0)}},
		FluentLiterals: []formalism.Literal{{Negated: true, Atom: patom(pp, formalism.Fluent, 0)}},
	}, 1)

	eng, err := NewEngine(pb.Build())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	result, err := eng.Ground(context.Background())
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}

	want := []string{"p(a)", "q(b)"}
	if diff := cmp.Diff(want, fluentFacts(t, eng, result)); diff != "" {
		t.Errorf("facts mismatch (-want +got):\n%s", diff)
	}
}

func numericGuardProgram(weights map[string]float64) *formalism.Program {
	pb := formalism.NewProgramBuilder()
	wf := pb.Function(formalism.Static, "w", 1)
	hp := pb.Predicate(formalism.Fluent, "heavy", 1)
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pb.Value(formalism.Static, wf, []formalism.ObjectIndex{pb.Object(name)}, weights[name])
	}
	// heavy(x) :- w(x) > 5.
	lhs := pb.FunctionExpr(formalism.Static, wf, formalism.Param(0))
	rhs := pb.Constant(5)
	pb.Rule(patom(hp, formalism.Fluent, 0), formalism.Condition{
		Arity:       1,
		Constraints: []formalism.Constraint{{Op: formalism.CmpGT, Lhs: lhs, Rhs: rhs}},
	}, 1)
	return pb.Build()
}

// Scenario: numeric guard on a static function.
func TestGroundNumericGuard(t *testing.T) {
	eng, err := NewEngine(numericGuardProgram(map[string]float64{"a": 3, "b": 7}))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	result, err := eng.Ground(context.Background())
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}
	if diff := cmp.Diff([]string{"heavy(b)"}, fluentFacts(t, eng, result)); diff != "" {
		t.Errorf("facts mismatch (-want +got):\n%s", diff)
	}

	// Re-running from scratch with both weights raised yields both.
	eng2, err := NewEngine(numericGuardProgram(map[string]float64{"a": 10, "b": 10}))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	result2, err := eng2.Ground(context.Background())
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}
	if diff := cmp.Diff([]string{"heavy(a)", "heavy(b)"}, fluentFacts(t, eng2, result2)); diff != "" {
		t.Errorf("facts mismatch (-want +got):\n%s", diff)
	}
}

// Scenario: k = 0 rule fires exactly once.
func TestGroundNullaryRule(t *testing.T) {
	pb := formalism.NewProgramBuilder()
	rp := pb.Predicate(formalism.Fluent, "ready", 0)
	pb.Rule(formalism.Atom{Predicate: rp, Kind: formalism.Fluent}, formalism.Condition{}, 1)

	eng, err := NewEngine(pb.Build())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	fired := 0
	result, err := eng.GroundWithListener(context.Background(), func(Event) { fired++ })
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}
	if fired != 1 {
		t.Errorf("nullary rule fired %d times, want 1", fired)
	}
	if diff := cmp.Diff([]string{"ready"}, fluentFacts(t, eng, result)); diff != "" {
		t.Errorf("facts mismatch (-want +got):\n%s", diff)
	}
}

// Scenario: delta isolation — every ground rule is emitted exactly once even
// as tc keeps growing across iterations.
func TestGroundRulesEmittedExactlyOnce(t *testing.T) {
	prog, _ := transitiveClosureProgram([][2]string{{"n1", "n2"}, {"n2", "n3"}, {"n3", "n4"}})
	eng, err := NewEngine(prog)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	seen := map[formalism.GroundRuleIndex]int{}
	result, err := eng.GroundWithListener(context.Background(), func(ev Event) {
		seen[ev.GroundRule]++
	})
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}
	for gri, n := range seen {
		if n != 1 {
			t.Errorf("ground rule %d emitted %d times, want once", gri, n)
		}
	}
	if len(result.GroundRules) != len(seen) {
		t.Errorf("result lists %d ground rules, stream delivered %d", len(result.GroundRules), len(seen))
	}
	// The recursive derivation tc(1,3) :- e(1,2), tc(2,3) appears once the
	// first hop is known, and head dedup keeps later duplicates out.
	if len(seen) != 6 {
		t.Errorf("stream delivered %d ground rules, want 6", len(seen))
	}
}

// Commutativity: reordered initial facts produce the same final fact set.
func TestGroundCommutativityUnderReordering(t *testing.T) {
	forward, _ := transitiveClosureProgram([][2]string{{"n1", "n2"}, {"n2", "n3"}, {"n3", "n4"}})
	backward, _ := transitiveClosureProgram([][2]string{{"n3", "n4"}, {"n2", "n3"}, {"n1", "n2"}})

	run := func(prog *formalism.Program) []string {
		eng, err := NewEngine(prog)
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		result, err := eng.Ground(context.Background())
		if err != nil {
			t.Fatalf("Ground: %v", err)
		}
		return fluentFacts(t, eng, result)
	}

	if diff := cmp.Diff(run(forward), run(backward)); diff != "" {
		t.Errorf("fact sets differ under reordering (-forward +backward):\n%s", diff)
	}
}

// Monotonicity: the fluent fact count never shrinks across listener events.
func TestGroundFactSetMonotonicity(t *testing.T) {
	prog, _ := transitiveClosureProgram([][2]string{{"n1", "n2"}, {"n2", "n3"}, {"n3", "n4"}})
	eng, err := NewEngine(prog)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	last := 0
	_, err = eng.GroundWithListener(context.Background(), func(Event) {
		n := eng.facts.Tagged(formalism.Fluent).Predicate.Len()
		if n < last {
			t.Errorf("fluent fact count shrank from %d to %d", last, n)
		}
		last = n
	})
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}
}

func TestGroundCancellation(t *testing.T) {
	prog, _ := transitiveClosureProgram([][2]string{{"n1", "n2"}, {"n2", "n3"}})
	eng, err := NewEngine(prog)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := eng.Ground(ctx)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("want ErrCancelled, got %v", err)
	}
	if result == nil || result.Complete {
		t.Fatal("cancelled run must return an incomplete partial result")
	}
}

func TestGroundCapacityPrecheck(t *testing.T) {
	// A single predicate position over a large synthetic domain trips the
	// rank-space pre-check without allocating the square bitset.
	domain := make([]formalism.ObjectIndex, 70000)
	for i := range domain {
		domain[i] = formalism.ObjectIndex(i)
	}
	_, err := NewPerfectHash([][]formalism.ObjectIndex{domain}, len(domain))
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("want ErrCapacity, got %v", err)
	}
}

// Emitted ground rules reference bodies satisfied by the final fact set.
func TestEmittedGroundRulesAreApplicable(t *testing.T) {
	prog, _ := transitiveClosureProgram([][2]string{{"n1", "n2"}, {"n2", "n3"}, {"n3", "n4"}})
	eng, err := NewEngine(prog)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	result, err := eng.Ground(context.Background())
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}
	for _, gri := range result.GroundRules {
		gr := eng.repo.GroundRule(gri)
		cond := eng.repo.GroundCondition(gr.Body)
		for _, lit := range append(append([]formalism.GroundLiteral{}, cond.StaticLiterals...), cond.FluentLiterals...) {
			present := result.Facts.Tagged(lit.Kind).Predicate.Contains(lit.Atom)
			if present == lit.Negated {
				t.Errorf("ground rule %d has unsatisfied literal (negated=%v)", gri, lit.Negated)
			}
		}
	}
}
