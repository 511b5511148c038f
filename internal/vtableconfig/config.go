// Package vtableconfig holds the designations the builder needs injected
// rather than hard-coded: the root object class, the top descriptor, the
// machine-primitive base class, the object_no_such_method member, the
// function-type representation class, and the equality-operator name.
//
// The builder is an owned instance, not a singleton, so these are always
// passed in explicitly (see spec §9, "Global state").
package vtableconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Designations carries the injected configuration for one builder run.
type Designations struct {
	// ObjectClassId is the designated root object class; the synthetic top
	// class walks its members.
	ObjectClassId int `yaml:"object_class_id"`

	// TopDescriptorId is returned by TypeLattice.UpperBound when classes
	// come from unrelated hierarchies, or for the empty set.
	TopDescriptorId int `yaml:"top_descriptor_id"`

	// WasmTypesBaseClassId is the machine-primitive root, which skips
	// inheritance during the hierarchy walk.
	WasmTypesBaseClassId int  `yaml:"wasm_types_base_class_id"`
	HasWasmTypesBase     bool `yaml:"-"`

	// NoSuchMethodName names the member kept alive unconditionally as the
	// dynamic-dispatch-miss fallback.
	NoSuchMethodName string `yaml:"no_such_method_name"`

	// FunctionTypeRepresentationClassId is the class used to materialize
	// type-parameter slots. Tear-off outputs take the tear-off handle's
	// ReturnClass instead.
	FunctionTypeRepresentationClassId int `yaml:"function_type_representation_class_id"`

	// EqualityOperatorName is the source token for the equality operator
	// ("==" by default); its selector's second input is forced non-nullable.
	EqualityOperatorName string `yaml:"equality_operator_name"`
}

// Default returns sensible defaults matching the names used throughout
// spec.md; callers override fields as needed for their source language.
func Default() Designations {
	return Designations{
		NoSuchMethodName:     "noSuchMethod",
		EqualityOperatorName: "==",
	}
}

// Load reads Designations from a YAML file, layered over Default().
func Load(path string) (Designations, error) {
	d := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("reading designations file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parsing designations file %q: %w", path, err)
	}
	if d.WasmTypesBaseClassId != 0 {
		d.HasWasmTypesBase = true
	}
	return d, nil
}
