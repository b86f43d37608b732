package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"groundlog/internal/formalism"
)

// buildUnaryProgram builds: objects {a, b}; static t/1 with t(a); fluent
// p/1, q/1 with p(a); rule q(x) :- t(x), p(x).
func buildUnaryProgram() (*formalism.Program, map[string]formalism.ObjectIndex) {
	pb := formalism.NewProgramBuilder()
	a := pb.Object("a")
	b := pb.Object("b")
	tPred := pb.Predicate(formalism.Static, "t", 1)
	pPred := pb.Predicate(formalism.Fluent, "p", 1)
	qPred := pb.Predicate(formalism.Fluent, "q", 1)

	pb.Fact(formalism.Static, tPred, a)
	pb.Fact(formalism.Fluent, pPred, a)

	x := formalism.Param(0)
	pb.Rule(
		formalism.Atom{Predicate: qPred, Kind: formalism.Fluent, Terms: []formalism.Term{x}},
		formalism.Condition{
			Arity: 1,
			StaticLiterals: []formalism.Literal{
				{Atom: formalism.Atom{Predicate: tPred, Kind: formalism.Static, Terms: []formalism.Term{x}}},
			},
			FluentLiterals: []formalism.Literal{
				{Atom: formalism.Atom{Predicate: pPred, Kind: formalism.Fluent, Terms: []formalism.Term{x}}},
			},
		},
		1,
	)
	return pb.Build(), map[string]formalism.ObjectIndex{"a": a, "b": b}
}

func TestComputeDomainsRestrictsThroughStatic(t *testing.T) {
	prog, objs := buildUnaryProgram()
	d, err := ComputeDomains(prog)
	if err != nil {
		t.Fatalf("ComputeDomains: %v", err)
	}

	// Rule parameter 0 is restricted to t's position domain {a}.
	want := [][]formalism.ObjectIndex{{objs["a"]}}
	if diff := cmp.Diff(want, d.RuleParams[0]); diff != "" {
		t.Errorf("rule parameter domains mismatch (-want +got):\n%s", diff)
	}

	// Static t position 0 is seeded from the fact t(a).
	if diff := cmp.Diff([]formalism.ObjectIndex{objs["a"]}, d.PredicatePositions[formalism.Static][0][0]); diff != "" {
		t.Errorf("static position domain mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDomainsLiftsIntoFluentPositions(t *testing.T) {
	prog, objs := buildUnaryProgram()
	d, err := ComputeDomains(prog)
	if err != nil {
		t.Fatalf("ComputeDomains: %v", err)
	}

	// p's position 0 starts from p(a) and gains the lifted rule domain {a}.
	pPos := d.PredicatePositions[formalism.Fluent][0][0]
	if diff := cmp.Diff([]formalism.ObjectIndex{objs["a"]}, pPos); diff != "" {
		t.Errorf("fluent p position domain mismatch (-want +got):\n%s", diff)
	}

	// q's position 0 receives the lifted head domain even with no q facts.
	qPos := d.PredicatePositions[formalism.Fluent][1][0]
	if diff := cmp.Diff([]formalism.ObjectIndex{objs["a"]}, qPos); diff != "" {
		t.Errorf("fluent q position domain mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDomainsUnrestrictedParameterIsUniverse(t *testing.T) {
	pb := formalism.NewProgramBuilder()
	a := pb.Object("a")
	b := pb.Object("b")
	pPred := pb.Predicate(formalism.Fluent, "p", 1)
	qPred := pb.Predicate(formalism.Fluent, "q", 1)
	pb.Fact(formalism.Fluent, pPred, a)

	x := formalism.Param(0)
	pb.Rule(
		formalism.Atom{Predicate: qPred, Kind: formalism.Fluent, Terms: []formalism.Term{x}},
		formalism.Condition{
			Arity: 1,
			FluentLiterals: []formalism.Literal{
				{Atom: formalism.Atom{Predicate: pPred, Kind: formalism.Fluent, Terms: []formalism.Term{x}}},
			},
		},
		1,
	)
	prog := pb.Build()

	d, err := ComputeDomains(prog)
	if err != nil {
		t.Fatalf("ComputeDomains: %v", err)
	}
	// No static restriction: the parameter keeps the whole universe.
	if diff := cmp.Diff([]formalism.ObjectIndex{a, b}, d.RuleParams[0][0]); diff != "" {
		t.Errorf("unrestricted domain mismatch (-want +got):\n%s", diff)
	}
}
