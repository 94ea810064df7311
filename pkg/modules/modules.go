// Package modules provides collections of AI modules of a project.
package modules

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	types "github.com/opst/gemdclient/pkg/api/types/modules"
	"github.com/opst/gemdclient/pkg/collection"
	xe "github.com/opst/gemdclient/pkg/errors"
	"github.com/opst/gemdclient/pkg/session"
	"github.com/opst/gemdclient/pkg/utils/stream"
)

// ResponseKey is the key of pages of module collections.
const ResponseKey = "response"

// DefaultPerPage is the page size of module collections.
const DefaultPerPage = 100

func decoder[T any](kind string) func(json.RawMessage) (T, error) {
	return func(raw json.RawMessage) (T, error) {
		t := new(T)
		if err := json.Unmarshal(raw, t); err != nil {
			return *t, fmt.Errorf("%w: %s: %w", xe.ErrInvalidShape, kind, err)
		}
		return *t, nil
	}
}

func present(id string) (string, bool) {
	return id, id != ""
}

// Predictors is the collection of predictors in a project.
func Predictors(sess session.Session, projectID string, opts ...collection.Option) *collection.Collection[types.Predictor] {
	return collection.New(
		sess,
		collection.Spec[types.Predictor]{
			Kind:           "predictor",
			PathTemplate:   "projects/{project_id}/predictors",
			CollectionKey:  ResponseKey,
			DefaultPerPage: DefaultPerPage,
			Build:          decoder[types.Predictor]("predictor"),
			UID:            func(p types.Predictor) (string, bool) { return present(p.ID) },
		},
		collection.Params{collection.ParamProject: projectID},
		opts...,
	)
}

// DesignWorkflows is the collection of design workflows in a project.
func DesignWorkflows(sess session.Session, projectID string, opts ...collection.Option) *collection.Collection[types.DesignWorkflow] {
	return collection.New(
		sess,
		collection.Spec[types.DesignWorkflow]{
			Kind:           "design workflow",
			PathTemplate:   "projects/{project_id}/design-workflows",
			CollectionKey:  ResponseKey,
			DefaultPerPage: DefaultPerPage,
			Build:          decoder[types.DesignWorkflow]("design workflow"),
			UID:            func(w types.DesignWorkflow) (string, bool) { return present(w.ID) },
		},
		collection.Params{collection.ParamProject: projectID},
		opts...,
	)
}

// Executions is the collection of predictor evaluation executions.
//
// Executions are created only by Trigger. They can not be registered, updated nor deleted.
type Executions struct {
	base     *collection.Collection[types.PredictorEvaluationExecution]
	session  session.Session
	project  string
	workflow string
}

// NewExecutions creates the collection of executions in a project.
//
// workflowID is needed for Trigger, and narrows List. It can be empty.
func NewExecutions(sess session.Session, projectID, workflowID string, opts ...collection.Option) *Executions {
	base := collection.New(
		sess,
		collection.Spec[types.PredictorEvaluationExecution]{
			Kind:           "predictor evaluation execution",
			PathTemplate:   "projects/{project_id}/predictor-evaluation-executions",
			CollectionKey:  ResponseKey,
			DefaultPerPage: DefaultPerPage,
			Build:          decoder[types.PredictorEvaluationExecution]("predictor evaluation execution"),
			UID: func(e types.PredictorEvaluationExecution) (string, bool) {
				return present(e.ID)
			},
		},
		collection.Params{collection.ParamProject: projectID, collection.ParamWorkflow: workflowID},
		opts...,
	)
	return &Executions{base: base, session: sess, project: projectID, workflow: workflowID}
}

// Trigger starts an evaluation of a predictor with the workflow.
//
// predictorVersion can be zero, for the latest version.
func (e *Executions) Trigger(ctx context.Context, predictorID string, predictorVersion int) (types.PredictorEvaluationExecution, error) {
	if e.workflow == "" {
		return types.PredictorEvaluationExecution{}, fmt.Errorf("cannot trigger an execution without workflow")
	}
	path := "projects/" + url.PathEscape(e.project) +
		"/predictor-evaluation-workflows/" + url.PathEscape(e.workflow) + "/executions"
	raw, err := e.session.Post(ctx, path, types.PredictorRef{PredictorID: predictorID, PredictorVersion: predictorVersion}, nil)
	if err != nil {
		return types.PredictorEvaluationExecution{}, err
	}
	return e.base.BuildResponse(raw)
}

func (e *Executions) Get(ctx context.Context, id string) (types.PredictorEvaluationExecution, error) {
	return e.base.Get(ctx, id)
}

// ListOptions filters executions.
type ListOptions struct {
	PredictorID      string
	PredictorVersion int

	// Page and PerPage are as collection.ListOptions.
	Page    int
	PerPage int
}

// List iterates executions, of the workflow if the collection has.
func (e *Executions) List(ctx context.Context, opts ListOptions) *stream.Iterator[types.PredictorEvaluationExecution] {
	params := url.Values{}
	if e.workflow != "" {
		params.Set("workflow_id", e.workflow)
	}
	if opts.PredictorID != "" {
		params.Set("predictor_id", opts.PredictorID)
	}
	if opts.PredictorVersion != 0 {
		params.Set("predictor_version", fmt.Sprint(opts.PredictorVersion))
	}
	return e.base.List(ctx, collection.ListOptions{Page: opts.Page, PerPage: opts.PerPage, Params: params})
}

func (e *Executions) putModuleRef(ctx context.Context, action, id string) error {
	path, err := e.base.Path()
	if err != nil {
		return err
	}
	_, err = e.session.Put(ctx, path+"/"+action, types.ModuleRef{ModuleUID: id}, nil)
	return err
}

// Archive hides an execution from listings.
func (e *Executions) Archive(ctx context.Context, id string) error {
	return e.putModuleRef(ctx, "archive", id)
}

// Restore reverts Archive.
func (e *Executions) Restore(ctx context.Context, id string) error {
	return e.putModuleRef(ctx, "restore", id)
}

func (e *Executions) Register(context.Context, types.PredictorEvaluationExecution) (types.PredictorEvaluationExecution, error) {
	return types.PredictorEvaluationExecution{}, fmt.Errorf("%w: executions are created by Trigger", xe.ErrNotSupported)
}

func (e *Executions) Update(context.Context, types.PredictorEvaluationExecution) (types.PredictorEvaluationExecution, error) {
	return types.PredictorEvaluationExecution{}, fmt.Errorf("%w: executions can not be updated", xe.ErrNotSupported)
}

func (e *Executions) Delete(context.Context, string) error {
	return fmt.Errorf("%w: executions can not be deleted", xe.ErrNotSupported)
}
