package gemd

import (
	"encoding/json"

	"github.com/opst/gemdclient/pkg/cmp"
)

const (
	TypeIngredientRun  = "ingredient_run"
	TypeMaterialRun    = "material_run"
	TypeMeasurementRun = "measurement_run"
	TypeProcessRun     = "process_run"
)

type IngredientRun struct {
	Base
	Quantities

	Spec     Ref      `json:"spec"`
	Material Ref      `json:"material"`
	Process  Ref      `json:"process"`
	Labels   []string `json:"labels,omitempty"`
}

func (IngredientRun) TypeTag() string { return TypeIngredientRun }

func (r *IngredientRun) References() []*Ref {
	return []*Ref{&r.Spec, &r.Material, &r.Process}
}

func (r *IngredientRun) Equal(other Object) bool {
	o, ok := other.(*IngredientRun)
	return ok && r.Base.equal(&o.Base) &&
		r.Quantities.equal(o.Quantities) &&
		r.Spec.Equal(o.Spec) &&
		r.Material.Equal(o.Material) &&
		r.Process.Equal(o.Process) &&
		cmp.SliceEq(r.Labels, o.Labels)
}

func (r IngredientRun) MarshalJSON() ([]byte, error) {
	type plain IngredientRun
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeIngredientRun, plain: plain(r)})
}

// MaterialRun is a concrete material, produced by a process run.
type MaterialRun struct {
	Base
	Spec       Ref    `json:"spec"`
	Process    Ref    `json:"process"`
	SampleType string `json:"sample_type,omitempty"`
}

func (MaterialRun) TypeTag() string { return TypeMaterialRun }

func (r *MaterialRun) References() []*Ref {
	return []*Ref{&r.Spec, &r.Process}
}

func (r *MaterialRun) Equal(other Object) bool {
	o, ok := other.(*MaterialRun)
	return ok && r.Base.equal(&o.Base) &&
		r.Spec.Equal(o.Spec) &&
		r.Process.Equal(o.Process) &&
		r.SampleType == o.SampleType
}

func (r MaterialRun) MarshalJSON() ([]byte, error) {
	type plain MaterialRun
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeMaterialRun, plain: plain(r)})
}

type MeasurementRun struct {
	Base
	Spec       Ref         `json:"spec"`
	Material   Ref         `json:"material"`
	Properties []Attribute `json:"properties,omitempty"`
	Conditions []Attribute `json:"conditions,omitempty"`
	Parameters []Attribute `json:"parameters,omitempty"`
	Source     *Source     `json:"source,omitempty"`
}

func (MeasurementRun) TypeTag() string { return TypeMeasurementRun }

func (r *MeasurementRun) References() []*Ref {
	return append(
		[]*Ref{&r.Spec, &r.Material},
		attributeRefs(r.Properties, r.Conditions, r.Parameters)...,
	)
}

func (r *MeasurementRun) Equal(other Object) bool {
	o, ok := other.(*MeasurementRun)
	return ok && r.Base.equal(&o.Base) &&
		r.Spec.Equal(o.Spec) &&
		r.Material.Equal(o.Material) &&
		cmp.SliceEqual(r.Properties, o.Properties) &&
		cmp.SliceEqual(r.Conditions, o.Conditions) &&
		cmp.SliceEqual(r.Parameters, o.Parameters) &&
		cmp.PEqual(r.Source, o.Source)
}

func (r MeasurementRun) MarshalJSON() ([]byte, error) {
	type plain MeasurementRun
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeMeasurementRun, plain: plain(r)})
}

type ProcessRun struct {
	Base
	Spec       Ref         `json:"spec"`
	Conditions []Attribute `json:"conditions,omitempty"`
	Parameters []Attribute `json:"parameters,omitempty"`
	Source     *Source     `json:"source,omitempty"`
}

func (ProcessRun) TypeTag() string { return TypeProcessRun }

func (r *ProcessRun) References() []*Ref {
	return append([]*Ref{&r.Spec}, attributeRefs(r.Conditions, r.Parameters)...)
}

func (r *ProcessRun) Equal(other Object) bool {
	o, ok := other.(*ProcessRun)
	return ok && r.Base.equal(&o.Base) &&
		r.Spec.Equal(o.Spec) &&
		cmp.SliceEqual(r.Conditions, o.Conditions) &&
		cmp.SliceEqual(r.Parameters, o.Parameters) &&
		cmp.PEqual(r.Source, o.Source)
}

func (r ProcessRun) MarshalJSON() ([]byte, error) {
	type plain ProcessRun
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeProcessRun, plain: plain(r)})
}
