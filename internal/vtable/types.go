// Package vtable computes the virtual dispatch table for a class hierarchy
// compiled to a linear-memory bytecode machine: it groups polymorphic call
// sites into selectors, synthesizes one callable signature per selector, and
// packs the per-selector (class -> function) rows into a single flat array
// using row displacement.
package vtable

import "strconv"

// ClassId is a dense index in [0, N_classes) assigned by the external
// class-hierarchy builder.
type ClassId int

// SelectorId is a dense index assigned by external member attribute metadata.
// Two member handles share a SelectorId iff they are override-related.
type SelectorId int

// MemberKind distinguishes the closed set of member handle variants.
type MemberKind int

const (
	InstanceMethod MemberKind = iota
	Getter
	Setter
	TearOff
)

func (k MemberKind) String() string {
	switch k {
	case InstanceMethod:
		return "method"
	case Getter:
		return "getter"
	case Setter:
		return "setter"
	case TearOff:
		return "tearoff"
	default:
		return "unknown"
	}
}

// ClassDescriptor is the external, immutable representation of a class in
// the hierarchy. HasSource is false for the synthetic top class.
type ClassDescriptor struct {
	Id           ClassId
	Name         string // diagnostics only; empty for the synthetic root
	SuperId      ClassId
	HasSuper     bool
	IsAbstract   bool
	Members      []MemberHandle
	HasSource    bool // false for the synthetic top class
}

// ParamShape describes a single parameter's declared type and flags, as
// provided by a MemberHandle.
type ParamShape struct {
	Name             string // empty for positional parameters
	IsNamed          bool
	ClassId          ClassId
	Nullable         bool
	HasDefaultValue  bool // admits a default-value sentinel
	CovariantByClass bool
	CovariantByDecl  bool
}

// MemberHandle identifies one concrete or abstract implementation on a
// specific class: a method, an implicit field getter/setter, or a tear-off.
type MemberHandle struct {
	Id           int // stable identity for equality/hash purposes
	Name         string
	Kind         MemberKind
	IsAbstract   bool
	ClassId      ClassId
	TypeParams   int
	Positional   []ParamShape
	Named        []ParamShape // order is declaration order; name lookup is by Name
	ReturnClass  ClassId
	ReturnVoid   bool
	ReturnNull   bool
	// FieldClassId is the declared type of the backing field for Getter/Setter
	// handles synthesized from a Field member (kind still Getter/Setter).
	FieldClassId ClassId
}

func (h MemberHandle) String() string {
	return h.Name + "@" + strconv.Itoa(int(h.ClassId))
}

// ValueType is a materialized table value type: an upper-bound class, a
// nullability bit, and a boxed bit that forces a heap representation
// regardless of the class's natural machine representation.
type ValueType struct {
	Class    ClassId
	Nullable bool
	Boxed    bool
}

// CallSignature is the unified, synthesized callable signature for a
// selector: an ordered list of inputs (receiver, type params, positionals,
// named in name-index order) and an ordered list of outputs (0 or 1 today).
type CallSignature struct {
	Inputs  []ValueType
	Outputs []ValueType
}
