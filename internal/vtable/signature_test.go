package vtable

import "testing"

// Scenario 4 (§8): equality operator null handling.
func TestSignatureEqualityForcesNonNullable(t *testing.T) {
	classes := []ClassDescriptor{
		{Id: 0, HasSuper: false},
		{Id: 1, HasSuper: true, SuperId: 0},
		{Id: 2, HasSuper: true, SuperId: 0},
	}
	lattice := NewTypeLattice(classes, 0)
	synth := NewSignatureSynthesizer(lattice, "==", 99)

	s := &Selector{
		Id:          10,
		ReturnCount: 1,
		ParamInfo:   NewParameterInfo(),
		ClassIds:    []ClassId{1, 2},
		Targets: map[ClassId]MemberHandle{
			1: {Id: 101, Name: "==", ClassId: 1, Positional: []ParamShape{{ClassId: 1, Nullable: true}}, ReturnClass: 0},
			2: {Id: 102, Name: "==", ClassId: 2, Positional: []ParamShape{{ClassId: 2, Nullable: true}}, ReturnClass: 0},
		},
	}
	s.ParamInfo.PositionalCount = 1
	s.ParamInfo.PositionalSentinel = []bool{false}

	sig, err := synth.Synthesize(s)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	// inputs[0] = receiver, inputs[1] = first real argument.
	if len(sig.Inputs) < 2 {
		t.Fatalf("expected at least 2 inputs, got %d", len(sig.Inputs))
	}
	if sig.Inputs[1].Nullable {
		t.Errorf("second input (first real arg of ==) is nullable, want forced non-nullable")
	}
}

// Scenario 5 (§8): covariant parameter boxing.
func TestSignatureCovariantParamBoxed(t *testing.T) {
	classes := []ClassDescriptor{
		{Id: 0, HasSuper: false},
		{Id: 1, HasSuper: true, SuperId: 0},
	}
	lattice := NewTypeLattice(classes, 0)
	synth := NewSignatureSynthesizer(lattice, "==", 99)

	s := &Selector{
		Id:          11,
		ReturnCount: 0,
		ParamInfo:   NewParameterInfo(),
		ClassIds:    []ClassId{1},
		Targets: map[ClassId]MemberHandle{
			1: {Id: 201, Name: "set", ClassId: 1, ReturnVoid: true,
				Positional: []ParamShape{{ClassId: 0, CovariantByClass: true}}},
		},
	}
	s.ParamInfo.PositionalCount = 1
	s.ParamInfo.PositionalSentinel = []bool{false}

	sig, err := synth.Synthesize(s)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(sig.Inputs) < 2 {
		t.Fatalf("expected at least 2 inputs, got %d", len(sig.Inputs))
	}
	if !sig.Inputs[1].Boxed {
		t.Errorf("covariant parameter input is not boxed, want boxed")
	}
}

func TestSignatureReceiverAlwaysBoxed(t *testing.T) {
	classes := []ClassDescriptor{{Id: 0, HasSuper: false}}
	lattice := NewTypeLattice(classes, 0)
	synth := NewSignatureSynthesizer(lattice, "==", 99)

	s := &Selector{
		Id:          12,
		ReturnCount: 0,
		ParamInfo:   NewParameterInfo(),
		ClassIds:    []ClassId{0},
		Targets: map[ClassId]MemberHandle{
			0: {Id: 301, Name: "noop", ClassId: 0, ReturnVoid: true},
		},
	}
	sig, err := synth.Synthesize(s)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !sig.Inputs[0].Boxed {
		t.Errorf("receiver slot must always be boxed")
	}
}

func TestSignatureTooManyOutputsIsInternalInvariant(t *testing.T) {
	classes := []ClassDescriptor{{Id: 0, HasSuper: false}}
	lattice := NewTypeLattice(classes, 0)
	synth := NewSignatureSynthesizer(lattice, "==", 99)

	s := &Selector{
		Id:          13,
		ReturnCount: 0, // target below returns a value despite unified return_count 0
		ParamInfo:   NewParameterInfo(),
		ClassIds:    []ClassId{0},
		Targets: map[ClassId]MemberHandle{
			0: {Id: 401, Name: "bug", ClassId: 0, ReturnVoid: false, ReturnClass: 0},
		},
	}
	_, err := synth.Synthesize(s)
	if err == nil {
		t.Fatal("expected InternalInvariantError, got nil")
	}
	if _, ok := err.(*InternalInvariantError); !ok {
		t.Errorf("err = %T, want *InternalInvariantError", err)
	}
}
