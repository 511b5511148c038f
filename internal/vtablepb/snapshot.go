// Package vtablepb models the wire boundary between a compiler driver and
// the dispatch table builder: a HierarchySnapshot protobuf message carrying
// the class hierarchy and member attribute metadata described in spec §6.
//
// The schema (hierarchy.proto) is parsed at runtime with protoparse, the
// same library and pattern internal/evaluator/builtins_grpc.go uses to load
// proto schemas without a protoc build step, and decoded with the
// jhump/protoreflect dynamic package rather than generated .pb.go bindings.
package vtablepb

import (
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"

	"github.com/funvibe/vtablec/internal/vtable"
)

//go:generate echo "schema lives in hierarchy.proto; parsed at runtime, no codegen step"

var (
	schemaOnce sync.Once
	schemaErr  error
	fileDesc   *desc.FileDescriptor
)

const schemaSource = `syntax = "proto3";

package vtablepb;

message HierarchySnapshot {
  repeated ClassDescriptor classes = 1;
  repeated SelectorMeta selectors = 2;
}

message ParamShape {
  string name = 1;
  bool is_named = 2;
  int32 class_id = 3;
  bool nullable = 4;
  bool has_default_value = 5;
  bool covariant_by_class = 6;
  bool covariant_by_decl = 7;
}

message MemberHandle {
  int32 id = 1;
  string name = 2;
  int32 kind = 3;
  bool is_abstract = 4;
  int32 class_id = 5;
  int32 type_params = 6;
  repeated ParamShape positional = 7;
  repeated ParamShape named = 8;
  int32 return_class = 9;
  bool return_void = 10;
  bool return_null = 11;
  int32 field_class_id = 12;
  int32 getter_selector_id = 13;
  int32 method_or_setter_selector_id = 14;
  bool getter_called_dynamically = 15;
  bool method_or_setter_called_dynamically = 16;
}

message ClassDescriptor {
  int32 id = 1;
  string name = 2;
  int32 super_id = 3;
  bool has_super = 4;
  bool is_abstract = 5;
  bool has_source = 6;
  repeated MemberHandle members = 7;
  bool is_wasm_type = 8;
}

message SelectorMeta {
  int32 selector_id = 1;
  int32 call_count = 2;
}
`

func loadSchema() (*desc.FileDescriptor, error) {
	schemaOnce.Do(func() {
		parser := protoparse.Parser{
			Accessor: protoparse.FileContentsFromMap(map[string]string{
				"hierarchy.proto": schemaSource,
			}),
		}
		fds, err := parser.ParseFiles("hierarchy.proto")
		if err != nil {
			schemaErr = fmt.Errorf("parsing embedded hierarchy.proto: %w", err)
			return
		}
		if len(fds) == 0 {
			schemaErr = fmt.Errorf("parsing embedded hierarchy.proto: no file descriptors produced")
			return
		}
		fileDesc = fds[0]
	})
	return fileDesc, schemaErr
}

// MemberMeta carries the external attribute metadata §6 says is decided
// outside a member's own shape: which selector id it resolves to, and
// whether it is reachable through a dynamic call, keyed by MemberHandle.Id.
type MemberMeta struct {
	GetterSelectorId                 int32
	MethodOrSetterSelectorId         int32
	GetterCalledDynamically          bool
	MethodOrSetterCalledDynamically  bool
}

// SelectorIdFor resolves the selector id a member contributes to: getters
// use a distinct selector axis from methods/setters per spec §6.
func (m MemberMeta) SelectorIdFor(kind vtable.MemberKind) vtable.SelectorId {
	if kind == vtable.Getter || kind == vtable.TearOff {
		return vtable.SelectorId(m.GetterSelectorId)
	}
	return vtable.SelectorId(m.MethodOrSetterSelectorId)
}

// DynamicallyCallable reports the dynamic-call flag matching kind.
func (m MemberMeta) DynamicallyCallable(kind vtable.MemberKind) bool {
	if kind == vtable.Getter || kind == vtable.TearOff {
		return m.GetterCalledDynamically
	}
	return m.MethodOrSetterCalledDynamically
}

// DecodeHierarchySnapshot decodes a wire-format HierarchySnapshot message
// into the internal/vtable types the builder consumes, plus per-member
// attribute metadata and the wasm-type flag per class, both keyed the same
// way the decoded values are keyed (member id, class id respectively).
func DecodeHierarchySnapshot(data []byte) ([]vtable.ClassDescriptor, map[int32]int32, map[int]MemberMeta, map[vtable.ClassId]bool, error) {
	fd, err := loadSchema()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	md := fd.FindMessage("vtablepb.HierarchySnapshot")
	if md == nil {
		return nil, nil, nil, nil, fmt.Errorf("message vtablepb.HierarchySnapshot not found in schema")
	}

	msg := dynamic.NewMessage(md)
	if err := msg.Unmarshal(data); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("unmarshaling HierarchySnapshot: %w", err)
	}

	classesField, err := msg.TryGetFieldByName("classes")
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("reading classes field: %w", err)
	}
	classRaw, ok := classesField.([]interface{})
	if !ok {
		return nil, nil, nil, nil, fmt.Errorf("classes field has unexpected shape %T", classesField)
	}

	classes := make([]vtable.ClassDescriptor, 0, len(classRaw))
	memberMeta := make(map[int]MemberMeta)
	wasmTypes := make(map[vtable.ClassId]bool)
	for _, item := range classRaw {
		cm, ok := item.(*dynamic.Message)
		if !ok {
			return nil, nil, nil, nil, fmt.Errorf("class entry has unexpected shape %T", item)
		}
		cd, isWasmType, err := decodeClass(cm, memberMeta)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		classes = append(classes, cd)
		if isWasmType {
			wasmTypes[cd.Id] = true
		}
	}

	selectorsField, err := msg.TryGetFieldByName("selectors")
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("reading selectors field: %w", err)
	}
	callCounts := make(map[int32]int32)
	if selRaw, ok := selectorsField.([]interface{}); ok {
		for _, item := range selRaw {
			sm, ok := item.(*dynamic.Message)
			if !ok {
				continue
			}
			id, _ := sm.TryGetFieldByName("selector_id")
			count, _ := sm.TryGetFieldByName("call_count")
			idInt, _ := id.(int32)
			countInt, _ := count.(int32)
			callCounts[idInt] = countInt
		}
	}

	return classes, callCounts, memberMeta, wasmTypes, nil
}

func decodeClass(cm *dynamic.Message, memberMeta map[int]MemberMeta) (vtable.ClassDescriptor, bool, error) {
	id, _ := cm.TryGetFieldByName("id")
	name, _ := cm.TryGetFieldByName("name")
	superId, _ := cm.TryGetFieldByName("super_id")
	hasSuper, _ := cm.TryGetFieldByName("has_super")
	isAbstract, _ := cm.TryGetFieldByName("is_abstract")
	hasSource, _ := cm.TryGetFieldByName("has_source")
	isWasmType, _ := cm.TryGetFieldByName("is_wasm_type")
	membersField, _ := cm.TryGetFieldByName("members")

	cd := vtable.ClassDescriptor{
		Id:         vtable.ClassId(asInt32(id)),
		Name:       asString(name),
		SuperId:    vtable.ClassId(asInt32(superId)),
		HasSuper:   asBool(hasSuper),
		IsAbstract: asBool(isAbstract),
		HasSource:  asBool(hasSource),
	}

	membersRaw, ok := membersField.([]interface{})
	if !ok {
		return cd, asBool(isWasmType), nil
	}
	for _, item := range membersRaw {
		mm, ok := item.(*dynamic.Message)
		if !ok {
			continue
		}
		h, meta, err := decodeMember(mm)
		if err != nil {
			return cd, asBool(isWasmType), err
		}
		cd.Members = append(cd.Members, h)
		memberMeta[h.Id] = meta
	}
	return cd, asBool(isWasmType), nil
}

func decodeMember(mm *dynamic.Message) (vtable.MemberHandle, MemberMeta, error) {
	id, _ := mm.TryGetFieldByName("id")
	name, _ := mm.TryGetFieldByName("name")
	kind, _ := mm.TryGetFieldByName("kind")
	isAbstract, _ := mm.TryGetFieldByName("is_abstract")
	classId, _ := mm.TryGetFieldByName("class_id")
	typeParams, _ := mm.TryGetFieldByName("type_params")
	positional, _ := mm.TryGetFieldByName("positional")
	named, _ := mm.TryGetFieldByName("named")
	returnClass, _ := mm.TryGetFieldByName("return_class")
	returnVoid, _ := mm.TryGetFieldByName("return_void")
	returnNull, _ := mm.TryGetFieldByName("return_null")
	fieldClassId, _ := mm.TryGetFieldByName("field_class_id")
	getterSelectorId, _ := mm.TryGetFieldByName("getter_selector_id")
	methodOrSetterSelectorId, _ := mm.TryGetFieldByName("method_or_setter_selector_id")
	getterDynamic, _ := mm.TryGetFieldByName("getter_called_dynamically")
	methodOrSetterDynamic, _ := mm.TryGetFieldByName("method_or_setter_called_dynamically")

	h := vtable.MemberHandle{
		Id:           int(asInt32(id)),
		Name:         asString(name),
		Kind:         vtable.MemberKind(asInt32(kind)),
		IsAbstract:   asBool(isAbstract),
		ClassId:      vtable.ClassId(asInt32(classId)),
		TypeParams:   int(asInt32(typeParams)),
		ReturnClass:  vtable.ClassId(asInt32(returnClass)),
		ReturnVoid:   asBool(returnVoid),
		ReturnNull:   asBool(returnNull),
		FieldClassId: vtable.ClassId(asInt32(fieldClassId)),
	}
	h.Positional = decodeParamShapes(positional)
	h.Named = decodeParamShapes(named)

	meta := MemberMeta{
		GetterSelectorId:                 asInt32(getterSelectorId),
		MethodOrSetterSelectorId:         asInt32(methodOrSetterSelectorId),
		GetterCalledDynamically:          asBool(getterDynamic),
		MethodOrSetterCalledDynamically:  asBool(methodOrSetterDynamic),
	}
	return h, meta, nil
}

func decodeParamShapes(field interface{}) []vtable.ParamShape {
	raw, ok := field.([]interface{})
	if !ok {
		return nil
	}
	out := make([]vtable.ParamShape, 0, len(raw))
	for _, item := range raw {
		pm, ok := item.(*dynamic.Message)
		if !ok {
			continue
		}
		name, _ := pm.TryGetFieldByName("name")
		isNamed, _ := pm.TryGetFieldByName("is_named")
		classId, _ := pm.TryGetFieldByName("class_id")
		nullable, _ := pm.TryGetFieldByName("nullable")
		hasDefault, _ := pm.TryGetFieldByName("has_default_value")
		covClass, _ := pm.TryGetFieldByName("covariant_by_class")
		covDecl, _ := pm.TryGetFieldByName("covariant_by_decl")
		out = append(out, vtable.ParamShape{
			Name:             asString(name),
			IsNamed:          asBool(isNamed),
			ClassId:          vtable.ClassId(asInt32(classId)),
			Nullable:         asBool(nullable),
			HasDefaultValue:  asBool(hasDefault),
			CovariantByClass: asBool(covClass),
			CovariantByDecl:  asBool(covDecl),
		})
	}
	return out
}

func asInt32(v interface{}) int32 {
	i, _ := v.(int32)
	return i
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}
