package vtable

// memberSlots is the per-target decomposition of one implementation's
// positional and named inputs/outputs, derived from its MemberKind.
type memberSlots struct {
	positional []ParamShape
	named      []ParamShape
	outputs    []slotType // 0 or 1 elements
}

type slotType struct {
	class    ClassId
	nullable bool
}

// slotsFor decomposes handle into positional/named inputs and outputs by
// kind. Every Getter and Setter handle takes its type from FieldClassId and
// ReturnNull; a getter or setter declared as a procedure is not decomposed by
// its declared parameters or return type.
func slotsFor(h MemberHandle) memberSlots {
	switch h.Kind {
	case Getter:
		return memberSlots{outputs: []slotType{{class: h.FieldClassId, nullable: h.ReturnNull}}}
	case Setter:
		return memberSlots{positional: []ParamShape{{ClassId: h.FieldClassId, Nullable: h.ReturnNull}}}
	case TearOff:
		return memberSlots{outputs: []slotType{{class: h.ReturnClass, nullable: false}}}
	default: // InstanceMethod
		m := memberSlots{positional: h.Positional, named: h.Named}
		if !h.ReturnVoid {
			m.outputs = []slotType{{class: h.ReturnClass, nullable: h.ReturnNull}}
		}
		return m
	}
}

// inputSlot accumulates the candidate classes, nullability, and forced
// boxing for one input position across every target.
type inputSlot struct {
	classes     []ClassId
	nullable    bool
	ensureBoxed bool
}

// outputSlot accumulates the candidate classes and nullability for the
// single (0-or-1-wide) output position.
type outputSlot struct {
	classes  []ClassId
	nullable bool
}

// SignatureSynthesizer folds every target of a selector into one callable
// signature: upper-bound inputs, upper-bound outputs, and boxing flags.
type SignatureSynthesizer struct {
	lattice *TypeLattice

	// equalityOperatorName is the injected source token for the equality
	// operator (spec §9's "designations" list); its selector gets a special
	// non-nullable rule on its first real argument (§4.4).
	equalityOperatorName string

	// typeParamClass is the injected function-type-representation class
	// (§4.4, §6): type-parameter slots are materialized as identical,
	// non-nullable value types of this class, not the lattice's top
	// descriptor.
	typeParamClass ClassId
}

// NewSignatureSynthesizer builds a synthesizer over lattice, using
// equalityOperatorName and typeParamClass as injected per spec §9 rather
// than hard-coded.
func NewSignatureSynthesizer(lattice *TypeLattice, equalityOperatorName string, typeParamClass ClassId) *SignatureSynthesizer {
	return &SignatureSynthesizer{
		lattice:              lattice,
		equalityOperatorName: equalityOperatorName,
		typeParamClass:       typeParamClass,
	}
}

// Synthesize computes s.signature by folding every (class_id -> handle) in
// s.Targets. Must be called exactly once per selector, after s.Targets is
// final; callers should go through Selector.EnsureSignature instead of
// calling this directly.
func (g *SignatureSynthesizer) Synthesize(s *Selector) (CallSignature, error) {
	typeParamCount := 0
	if s.ParamInfo != nil {
		typeParamCount = s.ParamInfo.TypeParamCount
	}

	// slot 0 = receiver, always boxed. Its candidate class set is every
	// class participating in the selector (the statically known receiver
	// type at any call site reaching this selector).
	receiver := inputSlot{classes: append([]ClassId(nil), s.ClassIds...), ensureBoxed: true}

	positionalSlots := make([]inputSlot, 0)
	namedSlots := make([]inputSlot, 0)
	if s.ParamInfo != nil {
		namedSlots = make([]inputSlot, len(s.ParamInfo.NamedOrder))
	}
	out := outputSlot{}

	isEquality := false // set true once any target's Name matches equalityOperatorName

	for _, cid := range s.ClassIds {
		h := s.Targets[cid]
		if h.Name == g.equalityOperatorName {
			isEquality = true
		}
		m := slotsFor(h)

		for i, ps := range m.positional {
			for len(positionalSlots) <= i {
				positionalSlots = append(positionalSlots, inputSlot{})
			}
			mergeParamIntoSlot(&positionalSlots[i], ps, s.ParamInfo.PositionalSentinelFor(i))
		}
		for _, ps := range m.named {
			idx, ok := s.ParamInfo.NamedIndex[ps.Name]
			if !ok {
				continue // should not happen if ParamInfo was merged correctly
			}
			for len(namedSlots) <= idx {
				namedSlots = append(namedSlots, inputSlot{})
			}
			mergeParamIntoSlot(&namedSlots[idx], ps, s.ParamInfo.NamedSentinelFor(idx))
		}

		if len(m.outputs) > s.ReturnCount {
			return CallSignature{}, NewInternalInvariantError("target produces more outputs than the selector's unified return_count")
		}
		if len(m.outputs) == 0 && s.ReturnCount == 1 {
			out.nullable = true // missing output is an absent value
		}
		for _, o := range m.outputs {
			out.classes = append(out.classes, o.class)
			if o.nullable {
				out.nullable = true
			}
		}
	}

	inputs := make([]ValueType, 0, 1+typeParamCount+len(positionalSlots)+len(namedSlots))
	inputs = append(inputs, g.lattice.ValueTypeFor(g.lattice.UpperBound(receiver.classes), receiver.nullable, true))

	for i := 0; i < typeParamCount; i++ {
		inputs = append(inputs, ValueType{Class: g.typeParamClass, Nullable: false, Boxed: false})
	}

	for i, slot := range positionalSlots {
		nullable := slot.nullable
		if isEquality && i == 0 {
			// Special rule: force the first real argument of "==" to
			// non-nullable; the runtime guarantees it is never called with
			// a null counterpart.
			nullable = false
		}
		inputs = append(inputs, g.lattice.ValueTypeFor(g.lattice.UpperBound(slot.classes), nullable, slot.ensureBoxed))
	}
	for _, slot := range namedSlots {
		inputs = append(inputs, g.lattice.ValueTypeFor(g.lattice.UpperBound(slot.classes), slot.nullable, slot.ensureBoxed))
	}

	outputs := make([]ValueType, 0, s.ReturnCount)
	if s.ReturnCount == 1 {
		outputs = append(outputs, g.lattice.ValueTypeFor(g.lattice.UpperBound(out.classes), out.nullable, false))
	}

	return CallSignature{Inputs: inputs, Outputs: outputs}, nil
}

func mergeParamIntoSlot(slot *inputSlot, ps ParamShape, admitsSentinel bool) {
	slot.classes = append(slot.classes, ps.ClassId)
	if ps.Nullable {
		slot.nullable = true
	}
	if ps.CovariantByClass || ps.CovariantByDecl || admitsSentinel {
		slot.ensureBoxed = true
	}
}
