package gemd

import (
	"encoding/json"

	"github.com/opst/gemdclient/pkg/cmp"
)

const (
	TypeConditionTemplate   = "condition_template"
	TypeParameterTemplate   = "parameter_template"
	TypePropertyTemplate    = "property_template"
	TypeMaterialTemplate    = "material_template"
	TypeMeasurementTemplate = "measurement_template"
	TypeProcessTemplate     = "process_template"
)

// ConditionTemplate defines a condition and its bounds.
type ConditionTemplate struct {
	Base
	Bounds *Bounds `json:"bounds,omitempty"`
}

func (ConditionTemplate) TypeTag() string { return TypeConditionTemplate }

func (t *ConditionTemplate) References() []*Ref { return nil }

func (t *ConditionTemplate) Equal(other Object) bool {
	o, ok := other.(*ConditionTemplate)
	return ok && t.Base.equal(&o.Base) && cmp.PEqual(t.Bounds, o.Bounds)
}

func (t ConditionTemplate) MarshalJSON() ([]byte, error) {
	type plain ConditionTemplate
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeConditionTemplate, plain: plain(t)})
}

// ParameterTemplate defines a parameter and its bounds.
type ParameterTemplate struct {
	Base
	Bounds *Bounds `json:"bounds,omitempty"`
}

func (ParameterTemplate) TypeTag() string { return TypeParameterTemplate }

func (t *ParameterTemplate) References() []*Ref { return nil }

func (t *ParameterTemplate) Equal(other Object) bool {
	o, ok := other.(*ParameterTemplate)
	return ok && t.Base.equal(&o.Base) && cmp.PEqual(t.Bounds, o.Bounds)
}

func (t ParameterTemplate) MarshalJSON() ([]byte, error) {
	type plain ParameterTemplate
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeParameterTemplate, plain: plain(t)})
}

// PropertyTemplate defines a property and its bounds.
type PropertyTemplate struct {
	Base
	Bounds *Bounds `json:"bounds,omitempty"`
}

func (PropertyTemplate) TypeTag() string { return TypePropertyTemplate }

func (t *PropertyTemplate) References() []*Ref { return nil }

func (t *PropertyTemplate) Equal(other Object) bool {
	o, ok := other.(*PropertyTemplate)
	return ok && t.Base.equal(&o.Base) && cmp.PEqual(t.Bounds, o.Bounds)
}

func (t PropertyTemplate) MarshalJSON() ([]byte, error) {
	type plain PropertyTemplate
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypePropertyTemplate, plain: plain(t)})
}

// MaterialTemplate lists properties which materials of the template may have.
type MaterialTemplate struct {
	Base
	Properties []AttributeSlot `json:"properties,omitempty"`
}

func (MaterialTemplate) TypeTag() string { return TypeMaterialTemplate }

func (t *MaterialTemplate) References() []*Ref { return slotRefs(t.Properties) }

func (t *MaterialTemplate) Equal(other Object) bool {
	o, ok := other.(*MaterialTemplate)
	return ok && t.Base.equal(&o.Base) && cmp.SliceEqual(t.Properties, o.Properties)
}

func (t MaterialTemplate) MarshalJSON() ([]byte, error) {
	type plain MaterialTemplate
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeMaterialTemplate, plain: plain(t)})
}

type MeasurementTemplate struct {
	Base
	Properties []AttributeSlot `json:"properties,omitempty"`
	Conditions []AttributeSlot `json:"conditions,omitempty"`
	Parameters []AttributeSlot `json:"parameters,omitempty"`
}

func (MeasurementTemplate) TypeTag() string { return TypeMeasurementTemplate }

func (t *MeasurementTemplate) References() []*Ref {
	return slotRefs(t.Properties, t.Conditions, t.Parameters)
}

func (t *MeasurementTemplate) Equal(other Object) bool {
	o, ok := other.(*MeasurementTemplate)
	return ok && t.Base.equal(&o.Base) &&
		cmp.SliceEqual(t.Properties, o.Properties) &&
		cmp.SliceEqual(t.Conditions, o.Conditions) &&
		cmp.SliceEqual(t.Parameters, o.Parameters)
}

func (t MeasurementTemplate) MarshalJSON() ([]byte, error) {
	type plain MeasurementTemplate
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeMeasurementTemplate, plain: plain(t)})
}

type ProcessTemplate struct {
	Base
	Conditions    []AttributeSlot `json:"conditions,omitempty"`
	Parameters    []AttributeSlot `json:"parameters,omitempty"`
	AllowedNames  []string        `json:"allowed_names,omitempty"`
	AllowedLabels []string        `json:"allowed_labels,omitempty"`
}

func (ProcessTemplate) TypeTag() string { return TypeProcessTemplate }

func (t *ProcessTemplate) References() []*Ref {
	return slotRefs(t.Conditions, t.Parameters)
}

func (t *ProcessTemplate) Equal(other Object) bool {
	o, ok := other.(*ProcessTemplate)
	return ok && t.Base.equal(&o.Base) &&
		cmp.SliceEqual(t.Conditions, o.Conditions) &&
		cmp.SliceEqual(t.Parameters, o.Parameters) &&
		cmp.SliceEq(t.AllowedNames, o.AllowedNames) &&
		cmp.SliceEq(t.AllowedLabels, o.AllowedLabels)
}

func (t ProcessTemplate) MarshalJSON() ([]byte, error) {
	type plain ProcessTemplate
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{Type: TypeProcessTemplate, plain: plain(t)})
}
