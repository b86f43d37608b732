// Package analysis computes the setup-time artifacts of a rule program:
// per-argument object domains for predicates and functions, per-parameter
// domains for rules, structural validation, and the stratification of rules
// over the fluent predicate dependency graph.
package analysis

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks fatal setup-time errors: malformed rules, undefined
// symbols, arity mismatches, unreachable parameters, recursion through
// negation. Wrap with %w and test with errors.Is.
var ErrConfiguration = errors.New("configuration error")

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...)
}
