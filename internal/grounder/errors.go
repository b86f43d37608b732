// Package grounder implements the semi-naïve grounding engine: assignment
// hashing and summary sets, per-rule static consistency graphs, the
// delta-aware k-partite k-clique enumerator, the grounding worker, and the
// stratified fixpoint driver.
package grounder

import "errors"

// ErrCapacity marks a fatal runtime capacity failure: the perfect hash's
// rank space exceeds its addressable range. The hash exposes Size so callers
// can pre-check.
var ErrCapacity = errors.New("capacity error")

// ErrCancelled is returned when grounding stops at a cancellation point. The
// accompanying Result carries the partial fact set with Complete == false.
var ErrCancelled = errors.New("grounding cancelled")
