// Package vtablebuild orchestrates internal/vtable's components into the
// single-threaded, run-to-completion build lifecycle described in spec §5:
// SelectorRegistry is populated during the HierarchyWalker traversal, which
// invokes SignatureSynthesis lazily once a selector's targets are closed,
// and TablePacker consumes the finalized selectors last.
package vtablebuild

import (
	"fmt"

	"github.com/funvibe/vtablec/internal/vtable"
	"github.com/funvibe/vtablec/internal/vtableconfig"
)

// Input is everything an external driver must supply for one build: the
// hierarchy in superclass-first order, the per-member selector-id and
// dynamic-callable metadata, the selector-id call-count estimates, and the
// injected designations.
type Input struct {
	Classes       []vtable.ClassDescriptor
	CallCounts    map[vtable.SelectorId]int
	SelectorIdFor func(vtable.MemberHandle) (vtable.SelectorId, bool)
	DynamicFlag   func(vtable.MemberHandle) bool
	// IsWasmType reports whether a class is one of the wasm value types
	// excluded from dynamic-call indexing (spec §6). Optional: when nil,
	// the designated wasm-types base class alone decides membership.
	IsWasmType   func(vtable.ClassId) bool
	Designations vtableconfig.Designations
}

// Result is the completed build's output: the finalized registry (for
// selector_for/dynamic_*_selectors lookups), the packed table length, and
// the raw packed slots ready for BuildTable/function resolution.
type Result struct {
	Registry *vtable.SelectorRegistry
	Lattice  *vtable.TypeLattice
	Synth    *vtable.SignatureSynthesizer
	Length   int
	Packed   []*vtable.MemberHandle
}

// Builder runs one build to completion; it is not reusable across builds and
// not safe for concurrent use, matching spec §5's single-threaded model.
type Builder struct {
	in Input
}

// New constructs a Builder for one Input. Call Build exactly once.
func New(in Input) *Builder {
	return &Builder{in: in}
}

// Build runs C3 (interning, via the walker) -> C5 (hierarchy walk) -> C4
// (signature synthesis, lazily per selector) -> C6 (pack) to completion, or
// returns the first structured error encountered.
func (b *Builder) Build() (*Result, error) {
	d := b.in.Designations

	isAbstractClass := make(map[vtable.ClassId]bool)
	isWasmType := func(cid vtable.ClassId) bool {
		if d.HasWasmTypesBase && int(cid) == d.WasmTypesBaseClassId {
			return true
		}
		return b.in.IsWasmType != nil && b.in.IsWasmType(cid)
	}

	registry := vtable.NewSelectorRegistry(b.in.SelectorIdFor, func(id vtable.SelectorId) int {
		return b.in.CallCounts[id]
	})
	walker := vtable.NewHierarchyWalker(registry, isWasmType, b.in.DynamicFlag)
	walker.ObjectClassId = vtable.ClassId(d.ObjectClassId)
	walker.WasmTypesBaseClassId = vtable.ClassId(d.WasmTypesBaseClassId)
	walker.HasWasmTypesBase = d.HasWasmTypesBase

	if err := walker.Walk(b.in.Classes); err != nil {
		return nil, fmt.Errorf("hierarchy walk: %w", err)
	}

	for _, c := range b.in.Classes {
		isAbstractClass[c.Id] = c.IsAbstract
	}

	lattice := vtable.NewTypeLattice(b.in.Classes, vtable.ClassId(d.TopDescriptorId))
	synth := vtable.NewSignatureSynthesizer(lattice, d.EqualityOperatorName, vtable.ClassId(d.FunctionTypeRepresentationClassId))

	selectors := registry.AllSelectors()
	for _, s := range selectors {
		if _, err := s.EnsureSignature(synth); err != nil {
			return nil, fmt.Errorf("synthesizing signature for selector %d: %w", s.Id, err)
		}
	}

	packer := vtable.NewTablePacker()
	isNoSuchMethod := func(s *vtable.Selector) bool {
		for _, h := range s.Targets {
			if h.Name == d.NoSuchMethodName {
				return true
			}
		}
		return false
	}
	length, err := packer.Pack(selectors, isNoSuchMethod)
	if err != nil {
		return nil, fmt.Errorf("packing table: %w", err)
	}

	return &Result{
		Registry: registry,
		Lattice:  lattice,
		Synth:    synth,
		Length:   length,
		Packed:   packer.Table(),
	}, nil
}
