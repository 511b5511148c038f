package vtable

import "sort"

// NoSuchMethodName names the member whose selector is kept alive
// unconditionally as the dynamic-miss fallback (§4.6, rule b).
const NoSuchMethodName = "noSuchMethod"

// IsLive reports whether a selector needs a table slot: either it has at
// least one call site and more than one distinct target, or it is the
// fallback invoked for dynamic dispatch misses.
func IsLive(s *Selector, isNoSuchMethod func(*Selector) bool) bool {
	if s.CallCount > 0 && s.TargetCount > 1 {
		return true
	}
	return isNoSuchMethod(s)
}

func weight(s *Selector) int {
	return len(s.ClassIds)*10 + s.CallCount
}

// TablePacker assigns a base offset to each live selector via row
// displacement: per-selector rows, interpreted as sets of occupied slots at
// positions offset+class_id, are packed into a single dense array without
// collisions, minimizing total length.
type TablePacker struct {
	table          []*MemberHandle
	firstAvailable int
}

// NewTablePacker returns an empty packer.
func NewTablePacker() *TablePacker {
	return &TablePacker{}
}

// Pack places every live selector (in isLive order) and returns the final
// table length. Selectors are sorted by descending weight before placement;
// ties are broken by ascending selector id for determinism (idempotence, see
// §8).
func (p *TablePacker) Pack(selectors []*Selector, isNoSuchMethod func(*Selector) bool) (int, error) {
	live := make([]*Selector, 0, len(selectors))
	for _, s := range selectors {
		if IsLive(s, isNoSuchMethod) {
			live = append(live, s)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		wi, wj := weight(live[i]), weight(live[j])
		if wi != wj {
			return wi > wj
		}
		return live[i].Id < live[j].Id
	})

	for i, s := range live {
		if err := p.place(s, i == 0); err != nil {
			return 0, err
		}
	}
	return len(p.table), nil
}

func (p *TablePacker) place(s *Selector, first bool) error {
	if len(s.ClassIds) == 0 {
		offset := 0
		s.Offset = &offset
		return nil
	}

	minClass := s.ClassIds[0]

	var offset int
	if first {
		offset = 0
	} else {
		offset = p.firstAvailable - int(minClass)
	}

	for {
		if offset+int(minClass) < 0 {
			offset++
			continue
		}
		if p.fits(s, offset) {
			break
		}
		offset++
	}

	if err := p.write(s, offset); err != nil {
		return err
	}
	s.Offset = &offset
	p.advanceFirstAvailable()
	return nil
}

func (p *TablePacker) fits(s *Selector, offset int) bool {
	for _, c := range s.ClassIds {
		idx := offset + int(c)
		if idx < 0 {
			return false
		}
		if idx >= len(p.table) {
			continue // beyond current end: no conflict
		}
		if p.table[idx] != nil {
			return false
		}
	}
	return true
}

func (p *TablePacker) write(s *Selector, offset int) error {
	for _, c := range s.ClassIds {
		idx := offset + int(c)
		if idx < 0 {
			return NewInternalInvariantError("computed negative table slot index during write")
		}
		for idx >= len(p.table) {
			p.table = append(p.table, nil)
		}
		if p.table[idx] != nil {
			return NewInternalInvariantError("collision: slot already occupied during write")
		}
		h := s.Targets[c]
		p.table[idx] = &h
	}
	return nil
}

func (p *TablePacker) advanceFirstAvailable() {
	for p.firstAvailable < len(p.table) && p.table[p.firstAvailable] != nil {
		p.firstAvailable++
	}
}

// Table returns the packed slots built so far; a nil entry is an empty slot.
func (p *TablePacker) Table() []*MemberHandle {
	return p.table
}
