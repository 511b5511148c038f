package vtable

import "fmt"

// HierarchyMalformedError indicates the class hierarchy was not presented in
// superclass-first order, or a class claims a super that was not yet
// processed.
type HierarchyMalformedError struct {
	ClassId  ClassId
	SuperId  ClassId
	HasSuper bool
}

func (e *HierarchyMalformedError) Error() string {
	if !e.HasSuper {
		return fmt.Sprintf("hierarchy malformed: class %d has no registered super", e.ClassId)
	}
	return fmt.Sprintf("hierarchy malformed: class %d claims super %d which was not yet processed", e.ClassId, e.SuperId)
}

func NewHierarchyMalformedError(classId, superId ClassId, hasSuper bool) *HierarchyMalformedError {
	return &HierarchyMalformedError{ClassId: classId, SuperId: superId, HasSuper: hasSuper}
}

// ParameterShapeConflictError indicates merging two targets' parameter
// shapes yielded conflicting type-parameter arities.
type ParameterShapeConflictError struct {
	Selector SelectorId
	Left     int
	Right    int
}

func (e *ParameterShapeConflictError) Error() string {
	return fmt.Sprintf("parameter shape conflict on selector %d: type-parameter arity %d vs %d", e.Selector, e.Left, e.Right)
}

func NewParameterShapeConflictError(sel SelectorId, left, right int) *ParameterShapeConflictError {
	return &ParameterShapeConflictError{Selector: sel, Left: left, Right: right}
}

// SelectorMetadataMissingError indicates a member handle resolved to no
// selector-id in the external attribute metadata.
type SelectorMetadataMissingError struct {
	Member MemberHandle
}

func (e *SelectorMetadataMissingError) Error() string {
	return fmt.Sprintf("selector metadata missing for member %s", e.Member.String())
}

func NewSelectorMetadataMissingError(m MemberHandle) *SelectorMetadataMissingError {
	return &SelectorMetadataMissingError{Member: m}
}

// InternalInvariantError indicates a builder bug, not an input error: a
// collision wrote into an already-occupied table slot, or first_available
// advanced past the table end prematurely.
type InternalInvariantError struct {
	Reason string
}

func (e *InternalInvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", e.Reason)
}

func NewInternalInvariantError(reason string) *InternalInvariantError {
	return &InternalInvariantError{Reason: reason}
}
