package vtable

// FunctionRef is an opaque reference to compiled code for a MemberHandle,
// resolved via the external function registry.
type FunctionRef interface {
	// Handle returns the MemberHandle this function reference was compiled
	// for, for diagnostics.
	Handle() MemberHandle
}

// FunctionResolver looks up the compiled function reference for a member
// handle, per §6's "Function registry" external interface.
type FunctionResolver interface {
	GetExistingFunction(MemberHandle) (FunctionRef, bool)
}

// TableSlot is either empty or a resolved function reference.
type TableSlot struct {
	Present bool
	Ref     FunctionRef
	Handle  MemberHandle
}

// Table is the finalized, read-only dispatch table resource: a contiguous
// sequence of slots, each either empty or a resolved function reference.
// Post-pack invariant: for every selector s with an offset and every
// c in s.ClassIds, Slots[s.Offset+c] holds s.Targets[c].
type Table struct {
	Slots []TableSlot
}

// BuildTable resolves every packed MemberHandle slot into a FunctionRef via
// resolver and emits the final Table resource, sized to the packer's table
// length. Empty slots remain at the nullable default (Present=false).
func BuildTable(packed []*MemberHandle, resolver FunctionResolver) (*Table, error) {
	slots := make([]TableSlot, len(packed))
	for i, h := range packed {
		if h == nil {
			continue
		}
		ref, ok := resolver.GetExistingFunction(*h)
		if !ok {
			continue
		}
		slots[i] = TableSlot{Present: true, Ref: ref, Handle: *h}
	}
	return &Table{Slots: slots}, nil
}

// Len returns the table length.
func (t *Table) Len() int { return len(t.Slots) }

// At returns the slot at index i, plus whether i is in range.
func (t *Table) At(i int) (TableSlot, bool) {
	if i < 0 || i >= len(t.Slots) {
		return TableSlot{}, false
	}
	return t.Slots[i], true
}
