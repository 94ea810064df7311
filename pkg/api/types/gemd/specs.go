package gemd

import (
	"encoding/json"

	"github.com/opst/gemdclient/pkg/cmp"
)

const (
	TypeIngredientSpec  = "ingredient_spec"
	TypeMaterialSpec    = "material_spec"
	TypeMeasurementSpec = "measurement_spec"
	TypeProcessSpec     = "process_spec"
)

// Quantities of an ingredient. Each of them is optional.
type Quantities struct {
	MassFraction     *Value `json:"mass_fraction,omitempty"`
	VolumeFraction   *Value `json:"volume_fraction,omitempty"`
	NumberFraction   *Value `json:"number_fraction,omitempty"`
	AbsoluteQuantity *Value `json:"absolute_quantity,omitempty"`
}

func (q Quantities) equal(o Quantities) bool {
	return cmp.PEqual(q.MassFraction, o.MassFraction) &&
		cmp.PEqual(q.VolumeFraction, o.VolumeFraction) &&
		cmp.PEqual(q.NumberFraction, o.NumberFraction) &&
		cmp.PEqual(q.AbsoluteQuantity, o.AbsoluteQuantity)
}

// IngredientSpec is a material used in a process spec.
type IngredientSpec struct {
	Base
	Quantities

	// Material refers a MaterialSpec.
	Material Ref `json:"material"`
	// Process refers a ProcessSpec which consumes the ingredient.
	Process Ref      `json:"process"`
	Labels  []string `json:"labels,omitempty"`
}

func (IngredientSpec) TypeTag() string { return TypeIngredientSpec }

func (s *IngredientSpec) References() []*Ref {
	return []*Ref{&s.Material, &s.Process}
}

func (s *IngredientSpec) Equal(other Object) bool {
	o, ok := other.(*IngredientSpec)
	return ok && s.Base.equal(&o.Base) &&
		s.Quantities.equal(o.Quantities) &&
		s.Material.Equal(o.Material) &&
		s.Process.Equal(o.Process) &&
		cmp.SliceEq(s.Labels, o.Labels)
}

func (s IngredientSpec) MarshalJSON() ([]byte, error) {
	type plain IngredientSpec
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeIngredientSpec, plain: plain(s)})
}

// MaterialSpec is an intended material, produced by a process spec.
type MaterialSpec struct {
	Base
	Template   Ref                     `json:"template"`
	Process    Ref                     `json:"process"`
	Properties []PropertyAndConditions `json:"properties,omitempty"`
}

func (MaterialSpec) TypeTag() string { return TypeMaterialSpec }

func (s *MaterialSpec) References() []*Ref {
	refs := []*Ref{&s.Template, &s.Process}
	for i := range s.Properties {
		refs = append(refs, &s.Properties[i].Property.Template)
		refs = append(refs, attributeRefs(s.Properties[i].Conditions)...)
	}
	return refs
}

func (s *MaterialSpec) Equal(other Object) bool {
	o, ok := other.(*MaterialSpec)
	return ok && s.Base.equal(&o.Base) &&
		s.Template.Equal(o.Template) &&
		s.Process.Equal(o.Process) &&
		cmp.SliceEqual(s.Properties, o.Properties)
}

func (s MaterialSpec) MarshalJSON() ([]byte, error) {
	type plain MaterialSpec
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeMaterialSpec, plain: plain(s)})
}

type MeasurementSpec struct {
	Base
	Template   Ref         `json:"template"`
	Conditions []Attribute `json:"conditions,omitempty"`
	Parameters []Attribute `json:"parameters,omitempty"`
}

func (MeasurementSpec) TypeTag() string { return TypeMeasurementSpec }

func (s *MeasurementSpec) References() []*Ref {
	return append([]*Ref{&s.Template}, attributeRefs(s.Conditions, s.Parameters)...)
}

func (s *MeasurementSpec) Equal(other Object) bool {
	o, ok := other.(*MeasurementSpec)
	return ok && s.Base.equal(&o.Base) &&
		s.Template.Equal(o.Template) &&
		cmp.SliceEqual(s.Conditions, o.Conditions) &&
		cmp.SliceEqual(s.Parameters, o.Parameters)
}

func (s MeasurementSpec) MarshalJSON() ([]byte, error) {
	type plain MeasurementSpec
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeMeasurementSpec, plain: plain(s)})
}

type ProcessSpec struct {
	Base
	Template   Ref         `json:"template"`
	Conditions []Attribute `json:"conditions,omitempty"`
	Parameters []Attribute `json:"parameters,omitempty"`
}

func (ProcessSpec) TypeTag() string { return TypeProcessSpec }

func (s *ProcessSpec) References() []*Ref {
	return append([]*Ref{&s.Template}, attributeRefs(s.Conditions, s.Parameters)...)
}

func (s *ProcessSpec) Equal(other Object) bool {
	o, ok := other.(*ProcessSpec)
	return ok && s.Base.equal(&o.Base) &&
		s.Template.Equal(o.Template) &&
		cmp.SliceEqual(s.Conditions, o.Conditions) &&
		cmp.SliceEqual(s.Parameters, o.Parameters)
}

func (s ProcessSpec) MarshalJSON() ([]byte, error) {
	type plain ProcessSpec
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeProcessSpec, plain: plain(s)})
}
