// Package platform is the entry point of gemdclient.
//
//	sess, err := session.New(prof)
//	...
//	runs := platform.New(sess).Project(projectID).Dataset(datasetID).MaterialRuns()
//	run, err := runs.Register(ctx, &gemd.MaterialRun{...}, false)
package platform

import (
	"github.com/opst/gemdclient/pkg/api/types/gemd"
	mtypes "github.com/opst/gemdclient/pkg/api/types/modules"
	"github.com/opst/gemdclient/pkg/collection"
	"github.com/opst/gemdclient/pkg/dataconcepts"
	"github.com/opst/gemdclient/pkg/jobs"
	"github.com/opst/gemdclient/pkg/logger"
	"github.com/opst/gemdclient/pkg/modules"
	"github.com/opst/gemdclient/pkg/registry"
	"github.com/opst/gemdclient/pkg/session"
	"github.com/opst/gemdclient/pkg/utils/stream"
)

type Platform struct {
	session  session.Session
	log      logger.Logger
	registry *registry.Registry
	skip     stream.SkipPolicy
}

type Option func(*Platform) *Platform

func WithLogger(l logger.Logger) Option {
	return func(p *Platform) *Platform {
		p.log = l
		return p
	}
}

func WithRegistry(r *registry.Registry) Option {
	return func(p *Platform) *Platform {
		p.registry = r
		return p
	}
}

// WithSkipPolicy is passed to every collection.
func WithSkipPolicy(s stream.SkipPolicy) Option {
	return func(p *Platform) *Platform {
		p.skip = s
		return p
	}
}

func New(sess session.Session, opts ...Option) *Platform {
	p := &Platform{session: sess, log: logger.Null(), skip: stream.SkipInvalid}
	for _, opt := range opts {
		p = opt(p)
	}
	p.registry = registry.OrDefault(p.registry)
	return p
}

func (p *Platform) Session() session.Session {
	return p.session
}

// Project binds a project.
func (p *Platform) Project(id string) *Project {
	return &Project{platform: p, id: id}
}

// Project is a project, optionally narrowed to a dataset.
type Project struct {
	platform *Platform
	id       string
	dataset  string
}

func (p *Project) ID() string {
	return p.id
}

// DatasetID returns the bound dataset, or "".
func (p *Project) DatasetID() string {
	return p.dataset
}

// Dataset returns the project narrowed to a dataset. p is not changed.
func (p *Project) Dataset(id string) *Project {
	return &Project{platform: p.platform, id: p.id, dataset: id}
}

func (p *Project) dcOptions() []dataconcepts.Option {
	return []dataconcepts.Option{
		dataconcepts.WithLogger(p.platform.log),
		dataconcepts.WithRegistry(p.platform.registry),
		dataconcepts.WithSkipPolicy(p.platform.skip),
	}
}

func (p *Project) collectionOptions() []collection.Option {
	return []collection.Option{
		collection.WithLogger(p.platform.log),
		collection.WithSkipPolicy(p.platform.skip),
	}
}

// DataConcepts returns the collection of the kind with tag.
func (p *Project) DataConcepts(tag string) (*dataconcepts.Collection[gemd.Resource], error) {
	return dataconcepts.ForType(tag, p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) ConditionTemplates() *dataconcepts.Collection[*gemd.ConditionTemplate] {
	return dataconcepts.ConditionTemplates(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) ParameterTemplates() *dataconcepts.Collection[*gemd.ParameterTemplate] {
	return dataconcepts.ParameterTemplates(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) PropertyTemplates() *dataconcepts.Collection[*gemd.PropertyTemplate] {
	return dataconcepts.PropertyTemplates(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) MaterialTemplates() *dataconcepts.Collection[*gemd.MaterialTemplate] {
	return dataconcepts.MaterialTemplates(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) MeasurementTemplates() *dataconcepts.Collection[*gemd.MeasurementTemplate] {
	return dataconcepts.MeasurementTemplates(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) ProcessTemplates() *dataconcepts.Collection[*gemd.ProcessTemplate] {
	return dataconcepts.ProcessTemplates(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) IngredientSpecs() *dataconcepts.Collection[*gemd.IngredientSpec] {
	return dataconcepts.IngredientSpecs(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) MaterialSpecs() *dataconcepts.Collection[*gemd.MaterialSpec] {
	return dataconcepts.MaterialSpecs(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) MeasurementSpecs() *dataconcepts.Collection[*gemd.MeasurementSpec] {
	return dataconcepts.MeasurementSpecs(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) ProcessSpecs() *dataconcepts.Collection[*gemd.ProcessSpec] {
	return dataconcepts.ProcessSpecs(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) IngredientRuns() *dataconcepts.Collection[*gemd.IngredientRun] {
	return dataconcepts.IngredientRuns(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) MaterialRuns() *dataconcepts.Collection[*gemd.MaterialRun] {
	return dataconcepts.MaterialRuns(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) MeasurementRuns() *dataconcepts.Collection[*gemd.MeasurementRun] {
	return dataconcepts.MeasurementRuns(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) ProcessRuns() *dataconcepts.Collection[*gemd.ProcessRun] {
	return dataconcepts.ProcessRuns(p.platform.session, p.id, p.dataset, p.dcOptions()...)
}

func (p *Project) Predictors() *collection.Collection[mtypes.Predictor] {
	return modules.Predictors(p.platform.session, p.id, p.collectionOptions()...)
}

func (p *Project) DesignWorkflows() *collection.Collection[mtypes.DesignWorkflow] {
	return modules.DesignWorkflows(p.platform.session, p.id, p.collectionOptions()...)
}

// Executions returns predictor evaluation executions of a workflow. workflowID can be empty.
func (p *Project) Executions(workflowID string) *modules.Executions {
	return modules.NewExecutions(p.platform.session, p.id, workflowID, p.collectionOptions()...)
}

// Jobs returns the poller of asynchronous jobs in the project.
func (p *Project) Jobs() *jobs.Poller {
	return jobs.New(p.platform.session, p.id, jobs.WithLogger(p.platform.log))
}
