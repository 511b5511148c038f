package vtablecli

import (
	"fmt"
	"os"

	"github.com/funvibe/vtablec/internal/vtable"
	"github.com/funvibe/vtablec/internal/vtablebuild"
	"github.com/funvibe/vtablec/internal/vtableconfig"
)

// runSelftest rebuilds two scenarios from spec §8 (single-implementation
// not live, two-subclass override) in-process and reports pass/fail for
// each, so a packaged binary can diagnose itself without a snapshot file or
// test harness on hand. The other §8 scenarios are not run.
func runSelftest(args []string) int {
	scenarios := []struct {
		name string
		run  func() error
	}{
		{"single-implementation-not-live", selftestSingleImplementation},
		{"two-subclass-override", selftestTwoSubclassOverride},
	}

	failures := 0
	for _, sc := range scenarios {
		if err := sc.run(); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", sc.name, err)
			failures++
			continue
		}
		fmt.Fprintf(os.Stderr, "PASS %s\n", sc.name)
	}
	if failures > 0 {
		return 1
	}
	return 0
}

func selftestSingleImplementation() error {
	m := vtable.MemberHandle{Id: 1, Name: "m", Kind: vtable.InstanceMethod, ClassId: 0}
	classes := []vtable.ClassDescriptor{
		{Id: 0, Name: "C", HasSource: true, Members: []vtable.MemberHandle{m}},
	}
	in := vtablebuild.Input{
		Classes:       classes,
		CallCounts:    map[vtable.SelectorId]int{1: 5},
		SelectorIdFor: func(vtable.MemberHandle) (vtable.SelectorId, bool) { return 1, true },
		DynamicFlag:   func(vtable.MemberHandle) bool { return false },
		Designations:  vtableconfig.Default(),
	}
	result, err := vtablebuild.New(in).Build()
	if err != nil {
		return err
	}
	if result.Length != 0 {
		return fmt.Errorf("expected empty table, got length %d", result.Length)
	}
	sel, ok := result.Registry.SelectorFor(1)
	if !ok {
		return fmt.Errorf("expected selector 1 to be finalized")
	}
	if sel.Offset != nil {
		return fmt.Errorf("expected single-implementation selector to stay inlinable, got offset %d", *sel.Offset)
	}
	return nil
}

func selftestTwoSubclassOverride() error {
	abstractM := vtable.MemberHandle{Id: 1, Name: "m", Kind: vtable.InstanceMethod, IsAbstract: true, ClassId: 0}
	concreteB := vtable.MemberHandle{Id: 2, Name: "m", Kind: vtable.InstanceMethod, ClassId: 1}
	concreteC := vtable.MemberHandle{Id: 3, Name: "m", Kind: vtable.InstanceMethod, ClassId: 2}
	classes := []vtable.ClassDescriptor{
		{Id: 0, Name: "A", IsAbstract: true, HasSource: true, Members: []vtable.MemberHandle{abstractM}},
		{Id: 1, Name: "B", HasSuper: true, SuperId: 0, HasSource: true, Members: []vtable.MemberHandle{concreteB}},
		{Id: 2, Name: "C", HasSuper: true, SuperId: 0, HasSource: true, Members: []vtable.MemberHandle{concreteC}},
	}
	selectorIds := map[string]vtable.SelectorId{"m": 1}
	in := vtablebuild.Input{
		Classes:    classes,
		CallCounts: map[vtable.SelectorId]int{1: 10},
		SelectorIdFor: func(h vtable.MemberHandle) (vtable.SelectorId, bool) {
			id, ok := selectorIds[h.Name]
			return id, ok
		},
		DynamicFlag:  func(vtable.MemberHandle) bool { return false },
		Designations: vtableconfig.Default(),
	}
	result, err := vtablebuild.New(in).Build()
	if err != nil {
		return err
	}
	if result.Length != 3 {
		return fmt.Errorf("expected table length 3, got %d", result.Length)
	}
	sel, ok := result.Registry.SelectorFor(1)
	if !ok || sel.Offset == nil {
		return fmt.Errorf("expected selector 1 to receive a table offset")
	}
	for _, c := range sel.ClassIds {
		idx := *sel.Offset + int(c)
		if idx < 0 || idx >= len(result.Packed) || result.Packed[idx] == nil {
			return fmt.Errorf("table slot %d for class %d is empty", idx, c)
		}
	}
	return nil
}
