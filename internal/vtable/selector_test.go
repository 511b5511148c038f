package vtable

import "testing"

func TestSelectorRegistryInternCreatesOnFirstUse(t *testing.T) {
	ids := selectorIdTable{"m": 5}
	registry := NewSelectorRegistry(ids.resolve, func(SelectorId) int { return 42 })

	h := MemberHandle{Id: 1, Name: "m", Kind: InstanceMethod, ClassId: 0}
	acc, err := registry.Intern(h, InternOptions{})
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	if acc.Id != 5 || acc.CallCount != 42 {
		t.Errorf("acc = %+v, want Id=5 CallCount=42", acc)
	}
}

func TestSelectorRegistryMissingMetadataIsError(t *testing.T) {
	ids := selectorIdTable{}
	registry := NewSelectorRegistry(ids.resolve, func(SelectorId) int { return 0 })

	h := MemberHandle{Id: 1, Name: "unknown", Kind: InstanceMethod, ClassId: 0}
	_, err := registry.Intern(h, InternOptions{})
	if err == nil {
		t.Fatal("expected SelectorMetadataMissingError, got nil")
	}
	if _, ok := err.(*SelectorMetadataMissingError); !ok {
		t.Errorf("err = %T, want *SelectorMetadataMissingError", err)
	}
}

func TestSelectorRegistryCallAlwaysDynamic(t *testing.T) {
	ids := selectorIdTable{"call": 9}
	registry := NewSelectorRegistry(ids.resolve, func(SelectorId) int { return 1 })

	h := MemberHandle{Id: 1, Name: "call", Kind: InstanceMethod, ClassId: 0}
	if _, err := registry.Intern(h, InternOptions{DynamicallyCallable: false}); err != nil {
		t.Fatalf("Intern: %v", err)
	}
	registry.Finalize(func(ClassId) bool { return false })
	if got := registry.DynamicMethodSelectors("call"); len(got) != 1 {
		t.Errorf("DynamicMethodSelectors(call) = %v, want 1 entry even though DynamicallyCallable=false", got)
	}
}

func TestSelectorRegistryReturnCountLiftsToMax(t *testing.T) {
	ids := selectorIdTable{"v": 1}
	registry := NewSelectorRegistry(ids.resolve, func(SelectorId) int { return 1 })

	voidImpl := MemberHandle{Id: 1, Name: "v", Kind: InstanceMethod, ClassId: 0, ReturnVoid: true}
	valueImpl := MemberHandle{Id: 2, Name: "v", Kind: InstanceMethod, ClassId: 1, ReturnVoid: false, ReturnClass: 0}

	if _, err := registry.Intern(voidImpl, InternOptions{}); err != nil {
		t.Fatalf("Intern: %v", err)
	}
	acc, err := registry.Intern(valueImpl, InternOptions{})
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	if acc.ReturnCount != 1 {
		t.Errorf("ReturnCount = %d, want 1 (lifted to max)", acc.ReturnCount)
	}
}
