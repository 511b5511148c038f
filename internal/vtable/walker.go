package vtable

// HierarchyWalker walks classes in superclass-first order, populating each
// selector's class_id -> implementation map with inheritance and override
// semantics.
type HierarchyWalker struct {
	registry *SelectorRegistry

	// ObjectClassId is the designated root object class; its members are
	// walked on behalf of the synthetic top class, which has no source
	// class descriptor.
	ObjectClassId ClassId
	// WasmTypesBaseClassId is the machine-primitive root; it skips
	// inheritance from its nominal super.
	WasmTypesBaseClassId ClassId
	HasWasmTypesBase     bool

	// IsWasmType reports whether a class is flagged machine-primitive, for
	// the dynamic-callable exclusion in §4.3.
	IsWasmType func(ClassId) bool

	// DynamicallyCallable resolves a member's dynamically-callable flag, keyed
	// by the member itself; used when interning.
	DynamicallyCallable func(MemberHandle) bool

	byId map[ClassId]*ClassDescriptor

	processed map[ClassId]bool
	// workingSet is per-class working set of selector ids the class
	// participates in, per §4.5.
	workingSet map[ClassId]map[SelectorId]bool
}

// NewHierarchyWalker builds a walker over registry. The caller supplies the
// designation callbacks described in §6 ("Designations").
func NewHierarchyWalker(registry *SelectorRegistry, isWasmType func(ClassId) bool, dynamicallyCallable func(MemberHandle) bool) *HierarchyWalker {
	return &HierarchyWalker{
		registry:            registry,
		IsWasmType:          isWasmType,
		DynamicallyCallable: dynamicallyCallable,
		byId:                make(map[ClassId]*ClassDescriptor),
		processed:           make(map[ClassId]bool),
		workingSet:          make(map[ClassId]map[SelectorId]bool),
	}
}

// Walk processes classes in the given order, which must already be
// superclass-first; a violation is reported as HierarchyMalformed.
func (w *HierarchyWalker) Walk(classes []ClassDescriptor) error {
	for i := range classes {
		w.byId[classes[i].Id] = &classes[i]
	}

	for i := range classes {
		c := &classes[i]
		if c.HasSuper {
			if !w.processed[c.SuperId] {
				return NewHierarchyMalformedError(c.Id, c.SuperId, true)
			}
		}
		if err := w.walkOne(c); err != nil {
			return err
		}
		w.processed[c.Id] = true
	}

	w.registry.Finalize(func(cid ClassId) bool {
		desc, ok := w.byId[cid]
		return ok && desc.IsAbstract
	})
	return nil
}

func (w *HierarchyWalker) walkOne(c *ClassDescriptor) error {
	working := make(map[SelectorId]bool)

	skipInheritance := w.HasWasmTypesBase && c.Id == w.WasmTypesBaseClassId
	if c.HasSuper && !skipInheritance {
		if superSet, ok := w.workingSet[c.SuperId]; ok {
			for sid := range superSet {
				working[sid] = true
				acc, ok := w.registry.byId[sid]
				if !ok {
					continue
				}
				if inherited, ok := acc.Targets[c.SuperId]; ok {
					acc.Targets[c.Id] = inherited
				}
			}
		}
	}

	members := c.Members
	if !c.HasSource {
		// Synthetic top: walk the designated root class's members instead.
		if root, ok := w.byId[w.ObjectClassId]; ok {
			members = root.Members
		}
	}

	for _, h := range members {
		refs, err := w.refsFor(h)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			opts := InternOptions{
				DynamicallyCallable: w.DynamicallyCallable(ref),
				IsWasmType:          w.IsWasmType(c.Id),
			}
			acc, err := w.registry.Intern(ref, opts)
			if err != nil {
				return err
			}
			if err := w.applyOverridePolicy(acc, c.Id, ref); err != nil {
				return err
			}
			working[acc.Id] = true
		}
	}

	w.workingSet[c.Id] = working
	return nil
}

// refsFor returns the handles to intern for one ClassDescriptor.Members
// entry. Field expansion (a Field becomes a Getter handle plus, if settable,
// a Setter handle) and has_tear_off_uses expansion (an extra TearOff handle)
// happen upstream, in the external member-metadata feed (§6) that produces
// ClassDescriptor.Members: this package's MemberHandle already carries one
// of the four closed Kind variants, so each Members entry is interned as-is.
func (w *HierarchyWalker) refsFor(h MemberHandle) ([]MemberHandle, error) {
	return []MemberHandle{h}, nil
}

func (w *HierarchyWalker) applyOverridePolicy(acc *SelectorAccumulator, classId ClassId, handle MemberHandle) error {
	if handle.IsAbstract {
		if _, exists := acc.Targets[classId]; !exists {
			acc.Targets[classId] = handle
		}
		return nil
	}
	acc.Targets[classId] = handle
	return nil
}
