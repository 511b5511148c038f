package vtable

import "testing"

func selWithClassIds(id SelectorId, classIds []ClassId, callCount int) *Selector {
	targets := make(map[ClassId]MemberHandle)
	for _, c := range classIds {
		targets[c] = MemberHandle{Id: int(id)*1000 + int(c), Name: "m", ClassId: c}
	}
	return &Selector{
		Id:          id,
		CallCount:   callCount,
		Targets:     targets,
		ClassIds:    classIds,
		TargetCount: len(classIds),
	}
}

func alwaysNotNoSuchMethod(*Selector) bool { return false }

// Scenario 1 (§8): single-class, single method -> not live, no offset.
func TestPackSingleTargetNotLive(t *testing.T) {
	s := selWithClassIds(1, []ClassId{0}, 5)
	s.TargetCount = 1
	if IsLive(s, alwaysNotNoSuchMethod) {
		t.Fatal("single-target selector should not be live")
	}
}

// Scenario 2 (§8): two subclasses override -> one live selector, table length 3.
func TestPackTwoSubclassOverride(t *testing.T) {
	s := selWithClassIds(1, []ClassId{1, 2}, 10)
	p := NewTablePacker()
	length, err := p.Pack([]*Selector{s}, alwaysNotNoSuchMethod)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if length != 3 {
		t.Errorf("table length = %d, want 3", length)
	}
	if s.Offset == nil {
		t.Fatal("expected offset to be assigned")
	}
	for _, c := range s.ClassIds {
		want := s.Targets[c]
		got := p.Table()[*s.Offset+int(c)]
		if got == nil || got.Id != want.Id {
			t.Errorf("T[%d] = %v, want %v", *s.Offset+int(c), got, want)
		}
	}
}

// Scenario 3 (§8): width-vs-heat ordering. The weight formula must place s2
// (weight 120) before s1 (weight 41) before s3 (weight 11) even though s1 is
// wider; the spec leaves the exact resulting offsets implementation-defined
// (see §9, "Negative initial offsets"), so this only pins down what the
// ordering guarantees: s2 is placed first, at offset 0, and s1 lands without
// collision. s3 covers a single class, so it has a single target and is not
// live: it gets no offset.
func TestPackWeightOrdering(t *testing.T) {
	s1 := selWithClassIds(1, []ClassId{0, 1, 2, 3}, 1) // weight 41
	s2 := selWithClassIds(2, []ClassId{4, 5}, 100)     // weight 120
	s3 := selWithClassIds(3, []ClassId{6}, 1)          // weight 11

	p := NewTablePacker()
	if _, err := p.Pack([]*Selector{s1, s2, s3}, alwaysNotNoSuchMethod); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	if *s2.Offset != 0 {
		t.Errorf("s2 (hottest, placed first) offset = %d, want 0", *s2.Offset)
	}
	for _, s := range []*Selector{s1, s2} {
		if s.Offset == nil {
			t.Fatalf("selector %d: expected an offset to be assigned", s.Id)
		}
	}
	if s3.Offset != nil {
		t.Errorf("selector 3 (single target, not live) offset = %d, want none", *s3.Offset)
	}
}

func TestPackNoCollisions(t *testing.T) {
	selectors := []*Selector{
		selWithClassIds(1, []ClassId{0, 3, 7}, 5),
		selWithClassIds(2, []ClassId{1, 2}, 50),
		selWithClassIds(3, []ClassId{0, 1, 2, 3, 4, 5, 6, 7}, 2),
	}
	p := NewTablePacker()
	if _, err := p.Pack(selectors, alwaysNotNoSuchMethod); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	occupant := make(map[int]MemberHandle)
	for _, s := range selectors {
		if s.Offset == nil {
			continue
		}
		for _, c := range s.ClassIds {
			idx := *s.Offset + int(c)
			want := s.Targets[c]
			if prev, ok := occupant[idx]; ok && prev.Id != want.Id {
				t.Fatalf("collision at slot %d: %v vs %v", idx, prev, want)
			}
			occupant[idx] = want
		}
	}
}

func TestPackNoSuchMethodAlwaysLive(t *testing.T) {
	s := selWithClassIds(1, []ClassId{0}, 0)
	s.TargetCount = 1
	isNSM := func(sel *Selector) bool { return sel.Id == 1 }
	if !IsLive(s, isNSM) {
		t.Fatal("noSuchMethod fallback selector must be live regardless of call_count/target_count")
	}
}

func TestPackOffsetBudget(t *testing.T) {
	selectors := []*Selector{
		selWithClassIds(1, []ClassId{0, 1, 2}, 10),
		selWithClassIds(2, []ClassId{0, 1}, 3),
	}
	p := NewTablePacker()
	length, err := p.Pack(selectors, alwaysNotNoSuchMethod)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	maxClassId := 2
	liveCount := 2
	budget := (maxClassId + 1) * liveCount
	if length > budget {
		t.Errorf("table length %d exceeds budget %d", length, budget)
	}
}
