package dataconcepts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/opst/gemdclient/pkg/api/types/gemd"
	"github.com/opst/gemdclient/pkg/session"
)

// Kind tells where resources of a type live on the platform.
type Kind struct {
	Tag string

	// Segment is the last element of the collection path, like "material-runs".
	Segment string

	// CollectionKey is the plural name of the kind, like "material_runs".
	CollectionKey string
}

// RelationSegment is the path element for the kind in relation queries.
func (k Kind) RelationSegment() string {
	return strings.ReplaceAll(k.CollectionKey, "_", "-")
}

var kinds = []Kind{
	{Tag: gemd.TypeConditionTemplate, Segment: "condition-templates", CollectionKey: "condition_templates"},
	{Tag: gemd.TypeParameterTemplate, Segment: "parameter-templates", CollectionKey: "parameter_templates"},
	{Tag: gemd.TypePropertyTemplate, Segment: "property-templates", CollectionKey: "property_templates"},
	{Tag: gemd.TypeMaterialTemplate, Segment: "material-templates", CollectionKey: "material_templates"},
	{Tag: gemd.TypeMeasurementTemplate, Segment: "measurement-templates", CollectionKey: "measurement_templates"},
	{Tag: gemd.TypeProcessTemplate, Segment: "process-templates", CollectionKey: "process_templates"},
	{Tag: gemd.TypeIngredientSpec, Segment: "ingredient-specs", CollectionKey: "ingredient_specs"},
	{Tag: gemd.TypeMaterialSpec, Segment: "material-specs", CollectionKey: "material_specs"},
	{Tag: gemd.TypeMeasurementSpec, Segment: "measurement-specs", CollectionKey: "measurement_specs"},
	{Tag: gemd.TypeProcessSpec, Segment: "process-specs", CollectionKey: "process_specs"},
	{Tag: gemd.TypeIngredientRun, Segment: "ingredient-runs", CollectionKey: "ingredient_runs"},
	{Tag: gemd.TypeMaterialRun, Segment: "material-runs", CollectionKey: "material_runs"},
	{Tag: gemd.TypeMeasurementRun, Segment: "measurement-runs", CollectionKey: "measurement_runs"},
	{Tag: gemd.TypeProcessRun, Segment: "process-runs", CollectionKey: "process_runs"},
}

// writeOrder lists kinds so that an object is written after every kind it can refer to.
var writeOrder = []string{
	gemd.TypeConditionTemplate,
	gemd.TypeParameterTemplate,
	gemd.TypePropertyTemplate,
	gemd.TypeMaterialTemplate,
	gemd.TypeMeasurementTemplate,
	gemd.TypeProcessTemplate,
	gemd.TypeProcessSpec,
	gemd.TypeMaterialSpec,
	gemd.TypeMeasurementSpec,
	gemd.TypeIngredientSpec,
	gemd.TypeProcessRun,
	gemd.TypeMaterialRun,
	gemd.TypeMeasurementRun,
	gemd.TypeIngredientRun,
}

// writeRank is the position of tag in writeOrder.
func writeRank(tag string) (int, bool) {
	i := slices.Index(writeOrder, tag)
	return i, 0 <= i
}

var kindByTag = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for _, k := range kinds {
		m[k.Tag] = k
	}
	return m
}()

// Kinds returns all data-concepts kinds, templates first, then specs, then runs.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// KindOf finds the Kind of a type tag.
func KindOf(tag string) (Kind, bool) {
	k, ok := kindByTag[tag]
	return k, ok
}

// ForType creates a collection of the kind with tag.
//
// It is for callers who know the kind only at runtime,
// like when they handle objects returned from a relation query.
func ForType(tag string, sess session.Session, projectID, datasetID string, opts ...Option) (*Collection[gemd.Resource], error) {
	k, ok := KindOf(tag)
	if !ok {
		return nil, fmt.Errorf("dataconcepts: unknown kind %q", tag)
	}
	return New[gemd.Resource](k, sess, projectID, datasetID, opts...), nil
}

func ConditionTemplates(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.ConditionTemplate] {
	return New[*gemd.ConditionTemplate](kindByTag[gemd.TypeConditionTemplate], sess, projectID, datasetID, opts...)
}

func ParameterTemplates(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.ParameterTemplate] {
	return New[*gemd.ParameterTemplate](kindByTag[gemd.TypeParameterTemplate], sess, projectID, datasetID, opts...)
}

func PropertyTemplates(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.PropertyTemplate] {
	return New[*gemd.PropertyTemplate](kindByTag[gemd.TypePropertyTemplate], sess, projectID, datasetID, opts...)
}

func MaterialTemplates(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.MaterialTemplate] {
	return New[*gemd.MaterialTemplate](kindByTag[gemd.TypeMaterialTemplate], sess, projectID, datasetID, opts...)
}

func MeasurementTemplates(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.MeasurementTemplate] {
	return New[*gemd.MeasurementTemplate](kindByTag[gemd.TypeMeasurementTemplate], sess, projectID, datasetID, opts...)
}

func ProcessTemplates(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.ProcessTemplate] {
	return New[*gemd.ProcessTemplate](kindByTag[gemd.TypeProcessTemplate], sess, projectID, datasetID, opts...)
}

func IngredientSpecs(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.IngredientSpec] {
	return New[*gemd.IngredientSpec](kindByTag[gemd.TypeIngredientSpec], sess, projectID, datasetID, opts...)
}

func MaterialSpecs(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.MaterialSpec] {
	return New[*gemd.MaterialSpec](kindByTag[gemd.TypeMaterialSpec], sess, projectID, datasetID, opts...)
}

func MeasurementSpecs(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.MeasurementSpec] {
	return New[*gemd.MeasurementSpec](kindByTag[gemd.TypeMeasurementSpec], sess, projectID, datasetID, opts...)
}

func ProcessSpecs(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.ProcessSpec] {
	return New[*gemd.ProcessSpec](kindByTag[gemd.TypeProcessSpec], sess, projectID, datasetID, opts...)
}

func IngredientRuns(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.IngredientRun] {
	return New[*gemd.IngredientRun](kindByTag[gemd.TypeIngredientRun], sess, projectID, datasetID, opts...)
}

func MaterialRuns(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.MaterialRun] {
	return New[*gemd.MaterialRun](kindByTag[gemd.TypeMaterialRun], sess, projectID, datasetID, opts...)
}

func MeasurementRuns(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.MeasurementRun] {
	return New[*gemd.MeasurementRun](kindByTag[gemd.TypeMeasurementRun], sess, projectID, datasetID, opts...)
}

func ProcessRuns(sess session.Session, projectID, datasetID string, opts ...Option) *Collection[*gemd.ProcessRun] {
	return New[*gemd.ProcessRun](kindByTag[gemd.TypeProcessRun], sess, projectID, datasetID, opts...)
}
