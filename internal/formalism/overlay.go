package formalism

// overlayTable layers scratch interning over a parent table. Lookups fall
// through to the parent; inserted entries get indices continuing past the
// parent's size at overlay creation. Parent entries interned after creation
// are deliberately ignored (their indices would collide with local ones), so
// a duplicate may be re-interned locally; the merge phase deduplicates.
type overlayTable[T any] struct {
	parent *internTable[T]
	base   uint32
	local  internTable[T]
}

func newOverlayTable[T any](parent *internTable[T]) overlayTable[T] {
	return overlayTable[T]{parent: parent, base: uint32(parent.len()), local: newInternTable[T]()}
}

func (t *overlayTable[T]) getOrCreate(key []byte, build func() T) (uint32, bool) {
	if i, ok := t.local.find(key); ok {
		return t.base + i, false
	}
	if i, ok := t.parent.find(key); ok && i < t.base {
		return i, false
	}
	i, _ := t.local.getOrCreate(key, build)
	return t.base + i, true
}

func (t *overlayTable[T]) find(key []byte) (uint32, bool) {
	if i, ok := t.local.find(key); ok {
		return t.base + i, true
	}
	if i, ok := t.parent.find(key); ok && i < t.base {
		return i, true
	}
	return 0, false
}

func (t *overlayTable[T]) at(i uint32) T {
	if i < t.base {
		return t.parent.at(i)
	}
	return t.local.at(i - t.base)
}

// isLocal reports whether index i addresses an overlay-inserted entry.
func (t *overlayTable[T]) isLocal(i uint32) bool { return i >= t.base }

// OverlayRepository layers per-rule scratch storage over a shared parent
// repository. A worker owns its overlay exclusively; after the iteration
// barrier its contents are either promoted into the parent by the merge
// phase or discarded with Clear.
type OverlayRepository struct {
	parent *Repository

	groundAtoms  [NumKinds]overlayTable[GroundAtom]
	groundFTerms [NumKinds]overlayTable[GroundFunctionTerm]
	bindings     overlayTable[[]ObjectIndex]
	conditions   overlayTable[GroundCondition]
	rules        overlayTable[GroundRule]
}

// NewOverlayRepository returns an overlay over parent, snapshotting the
// parent's current sizes as the index base.
func NewOverlayRepository(parent *Repository) *OverlayRepository {
	o := &OverlayRepository{parent: parent}
	o.Clear()
	return o
}

// Parent returns the underlying shared repository.
func (o *OverlayRepository) Parent() *Repository { return o.parent }

// Clear discards the overlay's local entries and re-snapshots the parent's
// sizes. Call between iterations, after the merge phase.
func (o *OverlayRepository) Clear() {
	for k := range o.groundAtoms {
		o.groundAtoms[k] = newOverlayTable(&o.parent.groundAtoms[k])
		o.groundFTerms[k] = newOverlayTable(&o.parent.groundFTerms[k])
	}
	o.bindings = newOverlayTable(&o.parent.bindings)
	o.conditions = newOverlayTable(&o.parent.conditions)
	o.rules = newOverlayTable(&o.parent.rules)
}

// GetOrCreateGroundAtom interns a ground atom into the overlay.
func (o *OverlayRepository) GetOrCreateGroundAtom(b *Builder, kind Kind, pred PredicateIndex, objects []ObjectIndex) (GroundAtomIndex, bool) {
	key := groundAtomKey(b, pred, objects)
	i, inserted := o.groundAtoms[kind].getOrCreate(key, func() GroundAtom {
		return GroundAtom{Predicate: pred, Kind: kind, Objects: append([]ObjectIndex(nil), objects...)}
	})
	return GroundAtomIndex(i), inserted
}

// FindGroundAtom looks up a ground atom in overlay then parent.
func (o *OverlayRepository) FindGroundAtom(b *Builder, kind Kind, pred PredicateIndex, objects []ObjectIndex) (GroundAtomIndex, bool) {
	i, ok := o.groundAtoms[kind].find(groundAtomKey(b, pred, objects))
	return GroundAtomIndex(i), ok
}

// GroundAtom resolves an index through overlay or parent.
func (o *OverlayRepository) GroundAtom(kind Kind, i GroundAtomIndex) GroundAtom {
	return o.groundAtoms[kind].at(uint32(i))
}

// IsLocalGroundAtom reports whether i was inserted by this overlay.
func (o *OverlayRepository) IsLocalGroundAtom(kind Kind, i GroundAtomIndex) bool {
	return o.groundAtoms[kind].isLocal(uint32(i))
}

// GetOrCreateGroundFTerm interns a ground function term into the overlay.
func (o *OverlayRepository) GetOrCreateGroundFTerm(b *Builder, kind Kind, fn FunctionIndex, objects []ObjectIndex) (GroundFunctionTermIndex, bool) {
	b.reset()
	b.u32(uint32(fn))
	b.objects(objects)
	i, inserted := o.groundFTerms[kind].getOrCreate(b.buf, func() GroundFunctionTerm {
		return GroundFunctionTerm{Function: fn, Kind: kind, Objects: append([]ObjectIndex(nil), objects...)}
	})
	return GroundFunctionTermIndex(i), inserted
}

// FindGroundFTerm looks up a ground function term in overlay then parent.
func (o *OverlayRepository) FindGroundFTerm(b *Builder, kind Kind, fn FunctionIndex, objects []ObjectIndex) (GroundFunctionTermIndex, bool) {
	b.reset()
	b.u32(uint32(fn))
	b.objects(objects)
	i, ok := o.groundFTerms[kind].find(b.buf)
	return GroundFunctionTermIndex(i), ok
}

// GroundFTerm resolves an index through overlay or parent.
func (o *OverlayRepository) GroundFTerm(kind Kind, i GroundFunctionTermIndex) GroundFunctionTerm {
	return o.groundFTerms[kind].at(uint32(i))
}

// GetOrCreateBinding interns an object list into the overlay.
func (o *OverlayRepository) GetOrCreateBinding(b *Builder, objects []ObjectIndex) (BindingIndex, bool) {
	b.reset()
	b.objects(objects)
	i, inserted := o.bindings.getOrCreate(b.buf, func() []ObjectIndex {
		return append([]ObjectIndex(nil), objects...)
	})
	return BindingIndex(i), inserted
}

// Binding resolves an index through overlay or parent.
func (o *OverlayRepository) Binding(i BindingIndex) []ObjectIndex { return o.bindings.at(uint32(i)) }

// GetOrCreateGroundCondition canonicalizes and interns into the overlay.
func (o *OverlayRepository) GetOrCreateGroundCondition(b *Builder, cond GroundCondition) (GroundConditionIndex, bool) {
	canon := canonicalCondition(cond)
	key := groundConditionKey(b, &canon)
	i, inserted := o.conditions.getOrCreate(key, func() GroundCondition { return canon })
	return GroundConditionIndex(i), inserted
}

// GroundCondition resolves an index through overlay or parent.
func (o *OverlayRepository) GroundCondition(i GroundConditionIndex) GroundCondition {
	return o.conditions.at(uint32(i))
}

// GetOrCreateGroundRule interns a ground rule into the overlay.
func (o *OverlayRepository) GetOrCreateGroundRule(b *Builder, rule GroundRule) (GroundRuleIndex, bool) {
	b.reset()
	b.u32(uint32(rule.Rule))
	b.u32(uint32(rule.Binding))
	b.u32(uint32(rule.Body))
	b.u32(uint32(rule.Head))
	i, inserted := o.rules.getOrCreate(b.buf, func() GroundRule { return rule })
	return GroundRuleIndex(i), inserted
}

// GroundRule resolves an index through overlay or parent.
func (o *OverlayRepository) GroundRule(i GroundRuleIndex) GroundRule { return o.rules.at(uint32(i)) }

var (
	_ Store = (*Repository)(nil)
	_ Store = (*OverlayRepository)(nil)
)
