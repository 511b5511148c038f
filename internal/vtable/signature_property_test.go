package vtable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSignatureSubsumptionProperty is the §8 "Signature subsumption"
// invariant: for every non-abstract target, each input is a subtype of the
// corresponding synthesized input (i.e. the synthesized class is an
// ancestor of, or equal to, the target's declared class), and each output is
// a supertype in the same sense.
func TestSignatureSubsumptionProperty(t *testing.T) {
	// A diamond-free chain: Object(0) -> Animal(1) -> Dog(2), Cat(3).
	classes := []ClassDescriptor{
		{Id: 0, HasSuper: false},
		{Id: 1, HasSuper: true, SuperId: 0},
		{Id: 2, HasSuper: true, SuperId: 1},
		{Id: 3, HasSuper: true, SuperId: 1},
	}
	lattice := NewTypeLattice(classes, 0)
	synth := NewSignatureSynthesizer(lattice, "==", 99)

	s := &Selector{
		Id:          20,
		ReturnCount: 1,
		ParamInfo:   NewParameterInfo(),
		ClassIds:    []ClassId{2, 3},
		Targets: map[ClassId]MemberHandle{
			2: {Id: 1, Name: "speak", ClassId: 2,
				Positional:  []ParamShape{{ClassId: 2}},
				ReturnClass: 2},
			3: {Id: 2, Name: "speak", ClassId: 3,
				Positional:  []ParamShape{{ClassId: 3}},
				ReturnClass: 3},
		},
	}
	s.ParamInfo.PositionalCount = 1
	s.ParamInfo.PositionalSentinel = []bool{false}

	sig, err := synth.Synthesize(s)
	require.NoError(t, err)
	require.Len(t, sig.Inputs, 2) // receiver + 1 positional
	require.Len(t, sig.Outputs, 1)

	isAncestorOrEqual := func(ancestor, descendant ClassId) bool {
		cur := descendant
		for {
			if cur == ancestor {
				return true
			}
			desc := classes[cur]
			if !desc.HasSuper {
				return false
			}
			cur = desc.SuperId
		}
	}

	for _, cid := range s.ClassIds {
		h := s.Targets[cid]
		// Input: target's declared class must be a subtype of (descend
		// from, or equal) the synthesized input class.
		require.True(t, isAncestorOrEqual(sig.Inputs[1].Class, h.Positional[0].ClassId),
			"input %d is not a supertype of target class %d", sig.Inputs[1].Class, h.Positional[0].ClassId)
		// Output: synthesized output must be a subtype of... no, a
		// supertype relation runs the other way for covariant returns: the
		// synthesized output class must be an ancestor of (or equal to)
		// each target's declared return class.
		require.True(t, isAncestorOrEqual(sig.Outputs[0].Class, h.ReturnClass),
			"output %d is not an ancestor of target return class %d", sig.Outputs[0].Class, h.ReturnClass)
	}
}
