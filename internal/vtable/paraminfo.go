package vtable

// ParameterInfo is the least-upper-bound accumulator for parameter shapes
// across a selector's implementations: positional arity, named-parameter
// set, type-parameter arity, and which positions admit a default-value
// sentinel.
type ParameterInfo struct {
	PositionalCount int
	// NamedOrder preserves first-seen insertion order; NamedIndex maps a
	// name to its stable index in NamedOrder.
	NamedOrder []string
	NamedIndex map[string]int
	TypeParamCount int
	typeParamSet   bool
	// Sentinel marks, OR'd across merges. PositionalSentinel is indexed by
	// positional slot; NamedSentinel is indexed by NamedIndex (from 0).
	PositionalSentinel []bool
	NamedSentinel      []bool
}

// NewParameterInfo returns an empty accumulator.
func NewParameterInfo() *ParameterInfo {
	return &ParameterInfo{NamedIndex: make(map[string]int)}
}

// FromMember produces a ParameterInfo reflecting exactly one implementation.
func FromMember(h MemberHandle) *ParameterInfo {
	p := NewParameterInfo()
	p.PositionalCount = len(h.Positional)
	p.PositionalSentinel = make([]bool, len(h.Positional))
	for i, ps := range h.Positional {
		p.PositionalSentinel[i] = ps.HasDefaultValue
	}
	for _, ps := range h.Named {
		p.addNamed(ps.Name, ps.HasDefaultValue)
	}
	p.TypeParamCount = h.TypeParams
	p.typeParamSet = true
	return p
}

func (p *ParameterInfo) addNamed(name string, sentinel bool) {
	if idx, ok := p.NamedIndex[name]; ok {
		if sentinel {
			p.NamedSentinel[idx] = true
		}
		return
	}
	idx := len(p.NamedOrder)
	p.NamedIndex[name] = idx
	p.NamedOrder = append(p.NamedOrder, name)
	p.NamedSentinel = append(p.NamedSentinel, sentinel)
}

// Merge computes the least upper bound of p and other: positional count is
// max, the named set is the union with stable insertion order, type-parameter
// counts must match (returns an error if they diverge), and sentinel marks
// are logically OR'd.
func (p *ParameterInfo) Merge(other *ParameterInfo, sel SelectorId) error {
	if other.PositionalCount > p.PositionalCount {
		grown := make([]bool, other.PositionalCount)
		copy(grown, p.PositionalSentinel)
		p.PositionalSentinel = grown
		p.PositionalCount = other.PositionalCount
	}
	for i, s := range other.PositionalSentinel {
		if s {
			p.PositionalSentinel[i] = true
		}
	}

	for _, name := range other.NamedOrder {
		idx := other.NamedIndex[name]
		p.addNamed(name, other.NamedSentinel[idx])
	}

	if other.typeParamSet {
		if p.typeParamSet && p.TypeParamCount != other.TypeParamCount {
			return NewParameterShapeConflictError(sel, p.TypeParamCount, other.TypeParamCount)
		}
		p.TypeParamCount = other.TypeParamCount
		p.typeParamSet = true
	}
	return nil
}

// NamedSentinelFor reports whether the named parameter idx (by NamedOrder
// position) admits a default-value sentinel.
func (p *ParameterInfo) NamedSentinelFor(idx int) bool {
	if idx < 0 || idx >= len(p.NamedSentinel) {
		return false
	}
	return p.NamedSentinel[idx]
}

// PositionalSentinelFor reports whether positional slot idx admits a
// default-value sentinel.
func (p *ParameterInfo) PositionalSentinelFor(idx int) bool {
	if idx < 0 || idx >= len(p.PositionalSentinel) {
		return false
	}
	return p.PositionalSentinel[idx]
}
