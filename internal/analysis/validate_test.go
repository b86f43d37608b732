package analysis

import (
	"errors"
	"testing"

	"groundlog/internal/formalism"
)

func TestValidateRejectsUnmentionedParameter(t *testing.T) {
	pb := formalism.NewProgramBuilder()
	pb.Object("a")
	tPred := pb.Predicate(formalism.Static, "t", 1)
	qPred := pb.Predicate(formalism.Fluent, "q", 2)

	// q(x, y) :- t(x): parameter y never appears in the body.
	pb.Rule(
		formalism.Atom{Predicate: qPred, Kind: formalism.Fluent, Terms: []formalism.Term{formalism.Param(0), formalism.Param(1)}},
		formalism.Condition{
			Arity: 2,
			StaticLiterals: []formalism.Literal{
				{Atom: formalism.Atom{Predicate: tPred, Kind: formalism.Static, Terms: []formalism.Term{formalism.Param(0)}}},
			},
		},
		1,
	)
	err := ValidateProgram(pb.Build())
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}

func TestValidateRejectsNegativeOnlyParameter(t *testing.T) {
	pb := formalism.NewProgramBuilder()
	pb.Object("a")
	tPred := pb.Predicate(formalism.Static, "t", 1)
	pPred := pb.Predicate(formalism.Fluent, "p", 1)
	qPred := pb.Predicate(formalism.Fluent, "q", 1)
	_ = tPred

	pb.Rule(
		formalism.Atom{Predicate: qPred, Kind: formalism.Fluent, Terms: []formalism.Term{formalism.Param(0)}},
		formalism.Condition{
			Arity: 1,
			FluentLiterals: []formalism.Literal{
				{Negated: true, Atom: formalism.Atom{Predicate: pPred, Kind: formalism.Fluent, Terms: []formalism.Term{formalism.Param(0)}}},
			},
		},
		1,
	)
	err := ValidateProgram(pb.Build())
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}

func TestValidateRejectsArityMismatch(t *testing.T) {
	pb := formalism.NewProgramBuilder()
	a := pb.Object("a")
	tPred := pb.Predicate(formalism.Static, "t", 2)
	qPred := pb.Predicate(formalism.Fluent, "q", 1)

	pb.Rule(
		formalism.Atom{Predicate: qPred, Kind: formalism.Fluent, Terms: []formalism.Term{formalism.Param(0)}},
		formalism.Condition{
			Arity: 1,
			StaticLiterals: []formalism.Literal{
				// t expects 2 arguments.
				{Atom: formalism.Atom{Predicate: tPred, Kind: formalism.Static, Terms: []formalism.Term{formalism.Param(0)}}},
			},
		},
		1,
	)
	_ = a
	err := ValidateProgram(pb.Build())
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}

func TestValidateRejectsBadInitialFact(t *testing.T) {
	pb := formalism.NewProgramBuilder()
	a := pb.Object("a")
	tPred := pb.Predicate(formalism.Static, "t", 2)
	pb.Fact(formalism.Static, tPred, a) // arity mismatch

	err := ValidateProgram(pb.Build())
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}

func TestValidateAcceptsWellFormedProgram(t *testing.T) {
	prog, _ := buildUnaryProgram()
	if err := ValidateProgram(prog); err != nil {
		t.Fatalf("valid program rejected: %v", err)
	}
}
