package vtable

// TypeLattice computes least-upper-bound classes over sets of class
// descriptors and maps source types to table value types. It is pure and
// holds no mutable state beyond the hierarchy it was built from.
type TypeLattice struct {
	classes map[ClassId]ClassDescriptor
	top     ClassId
}

// NewTypeLattice builds a lattice over classes. Classes are keyed by
// ClassDescriptor.Id, not by position: a superclass-first traversal order
// does not imply ascending-id order, so positional indexing would silently
// misresolve (or panic on) a valid hierarchy.
func NewTypeLattice(classes []ClassDescriptor, top ClassId) *TypeLattice {
	byId := make(map[ClassId]ClassDescriptor, len(classes))
	for _, c := range classes {
		byId[c.Id] = c
	}
	return &TypeLattice{classes: byId, top: top}
}

// ancestors returns c's ancestor chain starting at c itself and ending at the
// root (a class with no super). An id with no matching descriptor (e.g. the
// designated top descriptor, which need not be a member of the walked
// hierarchy) terminates the chain at itself.
func (l *TypeLattice) ancestors(c ClassId) []ClassId {
	chain := []ClassId{c}
	cur := c
	for {
		desc, ok := l.classes[cur]
		if !ok || !desc.HasSuper {
			return chain
		}
		cur = desc.SuperId
		chain = append(chain, cur)
	}
}

// UpperBound returns the least common ancestor of classSet in the class
// hierarchy, or the top descriptor if the classes come from unrelated
// hierarchies. Ties among equally-specific ancestors are broken in favor of
// the smaller class id. The empty set maps to the top descriptor.
func (l *TypeLattice) UpperBound(classSet []ClassId) ClassId {
	if len(classSet) == 0 {
		return l.top
	}

	// depth-indexed ancestor chains, root first, for fast common-ancestor scan
	chains := make([][]ClassId, len(classSet))
	for i, c := range classSet {
		chain := l.ancestors(c)
		// reverse to root-first order
		for a, b := 0, len(chain)-1; a < b; a, b = a+1, b-1 {
			chain[a], chain[b] = chain[b], chain[a]
		}
		chains[i] = chain
	}

	best := l.top
	found := false
	for depth := 0; ; depth++ {
		var candidate ClassId
		haveCandidate := false
		consistent := true
		for _, chain := range chains {
			if depth >= len(chain) {
				consistent = false
				break
			}
			if !haveCandidate {
				candidate = chain[depth]
				haveCandidate = true
			} else if chain[depth] != candidate {
				consistent = false
			}
		}
		if !consistent || !haveCandidate {
			break
		}
		best = candidate
		found = true
	}
	if !found {
		return l.top
	}
	return best
}

// ValueTypeFor is a pure function mapping a class, nullability, and a forced
// boxing request to a materialized table value type. ensureBoxed forces a
// heap/reference representation even for classes with a natural unboxed
// representation; this is required when a parameter is covariant and may
// need a dynamic type check, or when a parameter position may hold a
// default-value sentinel incompatible with the unboxed representation.
func (l *TypeLattice) ValueTypeFor(class ClassId, nullable, ensureBoxed bool) ValueType {
	return ValueType{Class: class, Nullable: nullable, Boxed: ensureBoxed}
}
