package gemd

import (
	"time"

	"github.com/opst/gemdclient/pkg/cmp"
)

// Value is a real, integer, categorical or composition value.
//
// Type discriminates which fields are meaningful,
// for example "nominal_real" uses Nominal and Units.
type Value struct {
	Type       string   `json:"type"`
	Nominal    *float64 `json:"nominal,omitempty"`
	Mean       *float64 `json:"mean,omitempty"`
	Std        *float64 `json:"std,omitempty"`
	LowerBound *float64 `json:"lower_bound,omitempty"`
	UpperBound *float64 `json:"upper_bound,omitempty"`
	Units      string   `json:"units,omitempty"`
	Category   string   `json:"category,omitempty"`
	Formula    string   `json:"formula,omitempty"`
}

func NominalReal(nominal float64, units string) *Value {
	return &Value{Type: "nominal_real", Nominal: &nominal, Units: units}
}

func NominalCategorical(category string) *Value {
	return &Value{Type: "nominal_categorical", Category: category}
}

func (v Value) Equal(o Value) bool {
	return v.Type == o.Type &&
		cmp.PEqEq(v.Nominal, o.Nominal) &&
		cmp.PEqEq(v.Mean, o.Mean) &&
		cmp.PEqEq(v.Std, o.Std) &&
		cmp.PEqEq(v.LowerBound, o.LowerBound) &&
		cmp.PEqEq(v.UpperBound, o.UpperBound) &&
		v.Units == o.Units &&
		v.Category == o.Category &&
		v.Formula == o.Formula
}

// Bounds restricts values of an attribute.
type Bounds struct {
	Type         string   `json:"type"`
	LowerBound   *float64 `json:"lower_bound,omitempty"`
	UpperBound   *float64 `json:"upper_bound,omitempty"`
	DefaultUnits string   `json:"default_units,omitempty"`
	Categories   []string `json:"categories,omitempty"`
}

func RealBounds(lower, upper float64, units string) *Bounds {
	return &Bounds{Type: "real_bounds", LowerBound: &lower, UpperBound: &upper, DefaultUnits: units}
}

func CategoricalBounds(categories ...string) *Bounds {
	return &Bounds{Type: "categorical_bounds", Categories: categories}
}

func (b Bounds) Equal(o Bounds) bool {
	return b.Type == o.Type &&
		cmp.PEqEq(b.LowerBound, o.LowerBound) &&
		cmp.PEqEq(b.UpperBound, o.UpperBound) &&
		b.DefaultUnits == o.DefaultUnits &&
		cmp.SliceEq(b.Categories, o.Categories)
}

const (
	AttributeProperty  = "property"
	AttributeCondition = "condition"
	AttributeParameter = "parameter"
)

// Attribute is a property, condition or parameter of specs and runs.
type Attribute struct {
	Type string `json:"type"`
	Name string `json:"name"`

	// Template refers an attribute template.
	Template  Ref        `json:"template"`
	Value     *Value     `json:"value,omitempty"`
	Origin    string     `json:"origin,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	FileLinks []FileLink `json:"file_links,omitempty"`
}

func Property(name string, value *Value) Attribute {
	return Attribute{Type: AttributeProperty, Name: name, Value: value, Origin: "unknown"}
}

func Condition(name string, value *Value) Attribute {
	return Attribute{Type: AttributeCondition, Name: name, Value: value, Origin: "unknown"}
}

func Parameter(name string, value *Value) Attribute {
	return Attribute{Type: AttributeParameter, Name: name, Value: value, Origin: "unknown"}
}

func (a Attribute) Equal(o Attribute) bool {
	return a.Type == o.Type &&
		a.Name == o.Name &&
		a.Template.Equal(o.Template) &&
		cmp.PEqual(a.Value, o.Value) &&
		a.Origin == o.Origin &&
		a.Notes == o.Notes &&
		cmp.SliceEq(a.FileLinks, o.FileLinks)
}

// PropertyAndConditions is a property measured under conditions.
type PropertyAndConditions struct {
	Property   Attribute   `json:"property"`
	Conditions []Attribute `json:"conditions,omitempty"`
}

func (p PropertyAndConditions) Equal(o PropertyAndConditions) bool {
	return p.Property.Equal(o.Property) && cmp.SliceEqual(p.Conditions, o.Conditions)
}

// AttributeSlot is an attribute template used by an object template, with optional narrower bounds.
type AttributeSlot struct {
	Template Ref     `json:"template"`
	Bounds   *Bounds `json:"bounds,omitempty"`
}

func (s AttributeSlot) Equal(o AttributeSlot) bool {
	return s.Template.Equal(o.Template) && cmp.PEqual(s.Bounds, o.Bounds)
}

// Source tells who performed a run and when.
type Source struct {
	Type          string     `json:"type"`
	PerformedBy   string     `json:"performed_by,omitempty"`
	PerformedDate *time.Time `json:"performed_date,omitempty"`
}

func PerformedBy(who string, when *time.Time) *Source {
	return &Source{Type: "performed_source", PerformedBy: who, PerformedDate: when}
}

func (s Source) Equal(o Source) bool {
	return s.Type == o.Type &&
		s.PerformedBy == o.PerformedBy &&
		cmp.PEqualWith(s.PerformedDate, o.PerformedDate, time.Time.Equal)
}

func attributeRefs(groups ...[]Attribute) []*Ref {
	refs := []*Ref{}
	for _, attrs := range groups {
		for i := range attrs {
			refs = append(refs, &attrs[i].Template)
		}
	}
	return refs
}

func slotRefs(groups ...[]AttributeSlot) []*Ref {
	refs := []*Ref{}
	for _, slots := range groups {
		for i := range slots {
			refs = append(refs, &slots[i].Template)
		}
	}
	return refs
}
