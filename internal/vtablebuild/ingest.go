package vtablebuild

import (
	"fmt"

	"github.com/funvibe/vtablec/internal/vtable"
	"github.com/funvibe/vtablec/internal/vtableconfig"
	"github.com/funvibe/vtablec/internal/vtablepb"
)

// IngestSnapshot decodes a serialized HierarchySnapshot (the wire format a
// driver sends across a process or cache boundary, §6) into a ready-to-build
// Input. SelectorIdFor and DynamicFlag are built from the snapshot's own
// per-member attribute metadata, keyed by MemberHandle.Id; IsWasmType is
// built from the snapshot's per-class flag. Designations is still the
// caller's to supply, since it reflects driver configuration, not anything
// the snapshot carries.
func IngestSnapshot(data []byte, designations vtableconfig.Designations) (Input, error) {
	classes, rawCounts, memberMeta, wasmTypes, err := vtablepb.DecodeHierarchySnapshot(data)
	if err != nil {
		return Input{}, fmt.Errorf("ingesting hierarchy snapshot: %w", err)
	}

	counts := make(map[vtable.SelectorId]int, len(rawCounts))
	for id, count := range rawCounts {
		counts[vtable.SelectorId(id)] = int(count)
	}

	return Input{
		Classes:    classes,
		CallCounts: counts,
		SelectorIdFor: func(h vtable.MemberHandle) (vtable.SelectorId, bool) {
			meta, ok := memberMeta[h.Id]
			if !ok {
				return 0, false
			}
			id := meta.SelectorIdFor(h.Kind)
			return id, id != 0
		},
		DynamicFlag: func(h vtable.MemberHandle) bool {
			return memberMeta[h.Id].DynamicallyCallable(h.Kind)
		},
		IsWasmType:   func(id vtable.ClassId) bool { return wasmTypes[id] },
		Designations: designations,
	}, nil
}
