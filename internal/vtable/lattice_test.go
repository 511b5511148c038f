package vtable

import "testing"

// object(0) -> A(1) -> B(2) -> C(3)
//                   \-> D(4)
func testHierarchy() []ClassDescriptor {
	return []ClassDescriptor{
		{Id: 0, Name: "Object", HasSuper: false},
		{Id: 1, Name: "A", HasSuper: true, SuperId: 0},
		{Id: 2, Name: "B", HasSuper: true, SuperId: 1},
		{Id: 3, Name: "C", HasSuper: true, SuperId: 2},
		{Id: 4, Name: "D", HasSuper: true, SuperId: 1},
	}
}

func TestUpperBoundSameClass(t *testing.T) {
	l := NewTypeLattice(testHierarchy(), 0)
	if got := l.UpperBound([]ClassId{2}); got != 2 {
		t.Errorf("UpperBound([B]) = %d, want 2", got)
	}
}

func TestUpperBoundSiblings(t *testing.T) {
	l := NewTypeLattice(testHierarchy(), 0)
	if got := l.UpperBound([]ClassId{2, 4}); got != 1 {
		t.Errorf("UpperBound([B, D]) = %d, want 1 (A)", got)
	}
}

func TestUpperBoundCousins(t *testing.T) {
	l := NewTypeLattice(testHierarchy(), 0)
	if got := l.UpperBound([]ClassId{3, 4}); got != 1 {
		t.Errorf("UpperBound([C, D]) = %d, want 1 (A)", got)
	}
}

func TestUpperBoundEmptySet(t *testing.T) {
	l := NewTypeLattice(testHierarchy(), 0)
	if got := l.UpperBound(nil); got != 0 {
		t.Errorf("UpperBound([]) = %d, want top (0)", got)
	}
}

func TestUpperBoundSingleton(t *testing.T) {
	l := NewTypeLattice(testHierarchy(), 0)
	if got := l.UpperBound([]ClassId{3}); got != 3 {
		t.Errorf("UpperBound([C]) = %d, want 3", got)
	}
}

func TestValueTypeForBoxing(t *testing.T) {
	l := NewTypeLattice(testHierarchy(), 0)
	vt := l.ValueTypeFor(2, true, true)
	if vt.Class != 2 || !vt.Nullable || !vt.Boxed {
		t.Errorf("ValueTypeFor(2, true, true) = %+v, want {2 true true}", vt)
	}
}
