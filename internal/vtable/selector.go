package vtable

import "sort"

// SelectorAccumulator is the mutable, mid-walk state of a selector: targets
// grow monotonically as HierarchyWalker visits classes, and ParamInfo/
// ReturnCount widen as SelectorRegistry interns more implementations.
//
// This is the "Building" half of the spec's phase-typed lifecycle. Once
// HierarchyWalker finishes, Finalize produces the immutable Selector that
// the rest of the package (and all external collaborators) consume.
type SelectorAccumulator struct {
	Id          SelectorId
	CallCount   int
	ParamInfo   *ParameterInfo
	ReturnCount int
	// Targets maps class_id -> implementation, including abstract classes
	// and inherited entries. Populated exclusively by HierarchyWalker.
	Targets map[ClassId]MemberHandle
}

func newSelectorAccumulator(id SelectorId, callCount int) *SelectorAccumulator {
	return &SelectorAccumulator{
		Id:        id,
		CallCount: callCount,
		ParamInfo: NewParameterInfo(),
		Targets:   make(map[ClassId]MemberHandle),
	}
}

// mergeMember widens ParamInfo and ReturnCount with one implementation.
func (a *SelectorAccumulator) mergeMember(h MemberHandle) error {
	if err := a.ParamInfo.Merge(FromMember(h), a.Id); err != nil {
		return err
	}
	if !h.ReturnVoid {
		if a.ReturnCount < 1 {
			a.ReturnCount = 1
		}
	}
	return nil
}

// Selector is the immutable, finalized record for a selector: targets no
// longer change, class_ids/target_count/singular_target are frozen, and
// signature is computed lazily exactly once on first demand.
type Selector struct {
	Id          SelectorId
	CallCount   int
	ParamInfo   *ParameterInfo
	ReturnCount int
	Targets     map[ClassId]MemberHandle
	ClassIds    []ClassId // sorted ascending, non-abstract classes only
	TargetCount int       // count of distinct non-abstract member handles
	Singular    *MemberHandle
	Offset      *int // set by TablePacker; nil if not live

	signature *CallSignature
}

// finalize freezes a SelectorAccumulator into a Selector. isAbstract reports
// whether a class id is abstract (needed to compute ClassIds/TargetCount
// over only the non-abstract targets).
func (a *SelectorAccumulator) finalize(isAbstract func(ClassId) bool) *Selector {
	s := &Selector{
		Id:          a.Id,
		CallCount:   a.CallCount,
		ParamInfo:   a.ParamInfo,
		ReturnCount: a.ReturnCount,
		Targets:     a.Targets,
	}

	classIds := make([]ClassId, 0, len(a.Targets))
	distinct := make(map[int]MemberHandle) // keyed by MemberHandle.Id
	for cid := range a.Targets {
		if isAbstract(cid) {
			continue
		}
		classIds = append(classIds, cid)
	}
	sort.Slice(classIds, func(i, j int) bool { return classIds[i] < classIds[j] })
	s.ClassIds = classIds

	for _, cid := range classIds {
		h := a.Targets[cid]
		distinct[h.Id] = h
	}
	s.TargetCount = len(distinct)
	if s.TargetCount == 1 {
		for _, h := range distinct {
			hh := h
			s.Singular = &hh
		}
	}
	return s
}

// EnsureSignature computes s.signature on first demand via synth, caching
// the result. Subsequent calls return the cached value. Not safe for
// concurrent use across goroutines; the builder is single-threaded (see
// package vtablebuild).
func (s *Selector) EnsureSignature(synth *SignatureSynthesizer) (CallSignature, error) {
	if s.signature != nil {
		return *s.signature, nil
	}
	sig, err := synth.Synthesize(s)
	if err != nil {
		return CallSignature{}, err
	}
	s.signature = &sig
	return sig, nil
}

// Signature returns the cached signature, or the zero value if it has not
// been computed yet via EnsureSignature.
func (s *Selector) Signature() (CallSignature, bool) {
	if s.signature == nil {
		return CallSignature{}, false
	}
	return *s.signature, true
}

// SelectorRegistry interns selectors by id and maintains name-indexed lookup
// tables for dynamic (name-only) call resolution.
type SelectorRegistry struct {
	byId map[SelectorId]*SelectorAccumulator
	// name -> selector ids, restricted to dynamically-callable handles on
	// non-machine-primitive classes.
	dynGetters map[string]map[SelectorId]bool
	dynSetters map[string]map[SelectorId]bool
	dynMethods map[string]map[SelectorId]bool

	finalized map[SelectorId]*Selector

	CallSelectorId func(MemberHandle) (SelectorId, bool)
	CallCountFor   func(SelectorId) int
}

// NewSelectorRegistry builds an empty registry. selectorIdFor resolves a
// member handle to its external selector-id (getter/tear-off handles use the
// getter selector id; methods and setters use the method-or-setter selector
// id); callCountFor supplies the external call-site estimate for a
// selector-id the first time it is interned.
func NewSelectorRegistry(selectorIdFor func(MemberHandle) (SelectorId, bool), callCountFor func(SelectorId) int) *SelectorRegistry {
	return &SelectorRegistry{
		byId:           make(map[SelectorId]*SelectorAccumulator),
		dynGetters:     make(map[string]map[SelectorId]bool),
		dynSetters:     make(map[string]map[SelectorId]bool),
		dynMethods:     make(map[string]map[SelectorId]bool),
		finalized:      make(map[SelectorId]*Selector),
		CallSelectorId: selectorIdFor,
		CallCountFor:   callCountFor,
	}
}

// InternOptions carries the external metadata needed to intern one handle,
// beyond the selector-id resolved via CallSelectorId.
type InternOptions struct {
	DynamicallyCallable bool
	IsWasmType          bool // enclosing class is machine-primitive
}

// Intern looks up the selector-id for handle, creating a fresh accumulator on
// first use with its metadata-supplied call_count, merging handle's
// ParameterInfo into it, and lifting ReturnCount to the maximum. It returns
// the (still mutable) accumulator for HierarchyWalker to write Targets into.
func (r *SelectorRegistry) Intern(handle MemberHandle, opts InternOptions) (*SelectorAccumulator, error) {
	id, ok := r.CallSelectorId(handle)
	if !ok {
		return nil, NewSelectorMetadataMissingError(handle)
	}
	acc, ok := r.byId[id]
	if !ok {
		acc = newSelectorAccumulator(id, r.CallCountFor(id))
		r.byId[id] = acc
	}
	if err := acc.mergeMember(handle); err != nil {
		return nil, err
	}

	dynamic := opts.DynamicallyCallable || handle.Name == "call"
	if dynamic && !opts.IsWasmType {
		r.indexDynamic(handle, id)
	}
	return acc, nil
}

// indexDynamic files id under handle's name in the getter, setter or method
// index according to handle's kind. Intern calls it for dynamically callable
// handles, and always for a member named "call" (enabling function-object
// invocation) regardless of the caller-supplied DynamicallyCallable flag.
func (r *SelectorRegistry) indexDynamic(handle MemberHandle, id SelectorId) {
	name := handle.Name
	switch handle.Kind {
	case Getter, TearOff:
		addIndex(r.dynGetters, name, id)
	case Setter:
		addIndex(r.dynSetters, name, id)
	case InstanceMethod:
		addIndex(r.dynMethods, name, id)
	}
}

func addIndex(idx map[string]map[SelectorId]bool, name string, id SelectorId) {
	m, ok := idx[name]
	if !ok {
		m = make(map[SelectorId]bool)
		idx[name] = m
	}
	m[id] = true
}

// Accumulators returns every interned accumulator, for HierarchyWalker/build
// finalization, sorted by Id.
func (r *SelectorRegistry) Accumulators() []*SelectorAccumulator {
	out := make([]*SelectorAccumulator, 0, len(r.byId))
	for _, acc := range r.byId {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// Finalize freezes every interned accumulator into a Selector, using
// isAbstract to classify targets. Must be called exactly once, after
// HierarchyWalker has finished walking the whole hierarchy.
func (r *SelectorRegistry) Finalize(isAbstract func(ClassId) bool) {
	for id, acc := range r.byId {
		r.finalized[id] = acc.finalize(isAbstract)
	}
}

// SelectorFor is the read-only lookup after Finalize.
func (r *SelectorRegistry) SelectorFor(id SelectorId) (*Selector, bool) {
	s, ok := r.finalized[id]
	return s, ok
}

// AllSelectors returns every finalized selector, sorted by id.
func (r *SelectorRegistry) AllSelectors() []*Selector {
	out := make([]*Selector, 0, len(r.finalized))
	for _, s := range r.finalized {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

func dynamicSelectors(idx map[string]map[SelectorId]bool, finalized map[SelectorId]*Selector, name string) []*Selector {
	set, ok := idx[name]
	if !ok {
		return nil
	}
	out := make([]*Selector, 0, len(set))
	for id := range set {
		if s, ok := finalized[id]; ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// DynamicGetterSelectors returns the selectors reachable by a name-only
// getter call site named name.
func (r *SelectorRegistry) DynamicGetterSelectors(name string) []*Selector {
	return dynamicSelectors(r.dynGetters, r.finalized, name)
}

// DynamicSetterSelectors returns the selectors reachable by a name-only
// setter call site named name.
func (r *SelectorRegistry) DynamicSetterSelectors(name string) []*Selector {
	return dynamicSelectors(r.dynSetters, r.finalized, name)
}

// DynamicMethodSelectors returns the selectors reachable by a name-only
// method call site named name.
func (r *SelectorRegistry) DynamicMethodSelectors(name string) []*Selector {
	return dynamicSelectors(r.dynMethods, r.finalized, name)
}
