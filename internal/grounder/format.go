package grounder

import (
	"fmt"
	"sort"
	"strings"

	"groundlog/internal/formalism"
)

// Human-readable rendering of ground entities, used by the CLI and by test
// failure output.

// FormatGroundAtom renders a ground atom as name(obj, ...).
func FormatGroundAtom(p *formalism.Program, repo *formalism.Repository, kind formalism.Kind, i formalism.GroundAtomIndex) string {
	atom := repo.GroundAtom(kind, i)
	pred := p.Predicates[kind][atom.Predicate]
	if len(atom.Objects) == 0 {
		return pred.Name
	}
	names := make([]string, len(atom.Objects))
	for j, o := range atom.Objects {
		names[j] = p.Objects[o].Name
	}
	return fmt.Sprintf("%s(%s)", pred.Name, strings.Join(names, ", "))
}

// FormatGroundRule renders a ground rule as head :- body.
func FormatGroundRule(p *formalism.Program, repo *formalism.Repository, i formalism.GroundRuleIndex) string {
	gr := repo.GroundRule(i)
	var parts []string
	cond := repo.GroundCondition(gr.Body)
	for _, lit := range cond.StaticLiterals {
		parts = append(parts, formatLiteral(p, repo, lit))
	}
	for _, lit := range cond.FluentLiterals {
		parts = append(parts, formatLiteral(p, repo, lit))
	}
	for _, c := range cond.Constraints {
		parts = append(parts, fmt.Sprintf("<numeric %s>", c.Op))
	}
	head := FormatGroundAtom(p, repo, formalism.Fluent, gr.Head)
	if len(parts) == 0 {
		return head + "."
	}
	return fmt.Sprintf("%s :- %s.", head, strings.Join(parts, ", "))
}

func formatLiteral(p *formalism.Program, repo *formalism.Repository, lit formalism.GroundLiteral) string {
	s := FormatGroundAtom(p, repo, lit.Kind, lit.Atom)
	if lit.Negated {
		return "not " + s
	}
	return s
}

// FormatFactSet renders the facts of one kind, sorted for stable output.
func FormatFactSet(p *formalism.Program, repo *formalism.Repository, kind formalism.Kind, facts *FactSets) []string {
	set := facts.Tagged(kind)
	out := make([]string, 0, set.Predicate.Len())
	for _, ai := range set.Predicate.Facts() {
		out = append(out, FormatGroundAtom(p, repo, kind, ai))
	}
	sort.Strings(out)
	return out
}
