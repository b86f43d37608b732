// Package groundlog grounds lifted rule programs — Datalog-like
// intermediate representations of classical planning problems — into the
// finite set of ground rule instances closed under forward chaining.
//
// The pipeline: domain analysis derives tight per-rule variable domains; a
// per-rule static consistency graph compiles the body into a k-partite
// structure; a delta-aware k-partite k-clique enumerator emits only
// newly-enabled matches between iterations; and a stratified,
// listener-driven scheduler feeds newly derived ground heads back through
// the rules until fixpoint.
//
// Build a program with NewProgramBuilder, compile it with Build, and run
// Ground or GroundWithListener.
package groundlog

import (
	"context"

	"go.uber.org/zap"

	"groundlog/internal/analysis"
	"groundlog/internal/formalism"
	"groundlog/internal/grounder"
)

// Re-exported program construction surface.
type (
	Program        = formalism.Program
	ProgramBuilder = formalism.ProgramBuilder
	Kind           = formalism.Kind
	Term           = formalism.Term
	Atom           = formalism.Atom
	Literal        = formalism.Literal
	Condition      = formalism.Condition
	Constraint     = formalism.Constraint

	ObjectIndex     = formalism.ObjectIndex
	PredicateIndex  = formalism.PredicateIndex
	FunctionIndex   = formalism.FunctionIndex
	ParameterIndex  = formalism.ParameterIndex
	RuleIndex       = formalism.RuleIndex
	GroundAtomIndex = formalism.GroundAtomIndex
)

// Kinds and term constructors.
const (
	Static = formalism.Static
	Fluent = formalism.Fluent
)

// Param returns a term referencing rule parameter i.
func Param(i ParameterIndex) Term { return formalism.Param(i) }

// Const returns a term naming object o.
func Const(o ObjectIndex) Term { return formalism.Const(o) }

// NewProgramBuilder returns an empty program builder.
func NewProgramBuilder() *ProgramBuilder { return formalism.NewProgramBuilder() }

// Re-exported engine surface.
type (
	Grounder = grounder.Engine
	Result   = grounder.Result
	Event    = grounder.Event
	Option   = grounder.Option
)

// Error sentinels; test with errors.Is.
var (
	ErrConfiguration = analysis.ErrConfiguration
	ErrCapacity      = grounder.ErrCapacity
	ErrCancelled     = grounder.ErrCancelled
)

// WithLogger injects a structured logger into the engine.
func WithLogger(log *zap.Logger) Option { return grounder.WithLogger(log) }

// WithWorkers bounds the per-stratum worker pool.
func WithWorkers(n int) Option { return grounder.WithWorkers(n) }

// WithFactLimit warns once when the fluent fact set grows past n.
func WithFactLimit(n int) Option { return grounder.WithFactLimit(n) }

// Build sets up analysis, consistency graphs, assignment sets, and the
// scheduler for a program. Malformed programs fail with ErrConfiguration.
func Build(p *Program, opts ...Option) (*Grounder, error) {
	return grounder.NewEngine(p, opts...)
}

// Ground runs a program to fixpoint.
func Ground(ctx context.Context, p *Program, opts ...Option) (*Result, error) {
	g, err := Build(p, opts...)
	if err != nil {
		return nil, err
	}
	return g.Ground(ctx)
}

// GroundWithListener runs a program to fixpoint, streaming each emitted
// ground rule as (rule index, binding, ground head index).
func GroundWithListener(ctx context.Context, p *Program, onRule func(Event), opts ...Option) (*Result, error) {
	g, err := Build(p, opts...)
	if err != nil {
		return nil, err
	}
	return g.GroundWithListener(ctx, onRule)
}
