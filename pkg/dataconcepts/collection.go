// Package dataconcepts provides collections of data-concepts objects
// (templates, specs and runs) of a project.
//
// Writes persist only the object given. Objects it refers to are sent as links,
// and are never registered together.
package dataconcepts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/opst/gemdclient/pkg/api/types/gemd"
	jobtypes "github.com/opst/gemdclient/pkg/api/types/jobs"
	"github.com/opst/gemdclient/pkg/collection"
	xe "github.com/opst/gemdclient/pkg/errors"
	"github.com/opst/gemdclient/pkg/jobs"
	"github.com/opst/gemdclient/pkg/logger"
	"github.com/opst/gemdclient/pkg/registry"
	"github.com/opst/gemdclient/pkg/session"
	"github.com/opst/gemdclient/pkg/utils/stream"
)

// Collection is the collection of one kind of data-concepts objects in a project,
// optionally narrowed to a dataset.
//
// Writes need a dataset. Reads without dataset see the whole project.
type Collection[T gemd.Resource] struct {
	kind     Kind
	project  string
	dataset  string
	session  session.Session
	registry *registry.Registry
	base     *collection.Collection[T]
	poller   *jobs.Poller
	log      logger.Logger
	skip     stream.SkipPolicy
}

type options struct {
	log      logger.Logger
	registry *registry.Registry
	skip     stream.SkipPolicy
}

type Option func(*options) *options

func WithLogger(l logger.Logger) Option {
	return func(o *options) *options {
		o.log = l
		return o
	}
}

// WithRegistry replaces the registry used to build objects. By default, registry.Default is used.
func WithRegistry(r *registry.Registry) Option {
	return func(o *options) *options {
		o.registry = r
		return o
	}
}

// WithSkipPolicy sets what listing does with records which can not be built as T.
func WithSkipPolicy(p stream.SkipPolicy) Option {
	return func(o *options) *options {
		o.skip = p
		return o
	}
}

// New creates a collection of kind.
//
// T should be the pointer type of the kind, or gemd.Resource.
// datasetID can be empty.
func New[T gemd.Resource](kind Kind, sess session.Session, projectID, datasetID string, opts ...Option) *Collection[T] {
	o := &options{log: logger.Null(), skip: stream.SkipInvalid}
	for _, opt := range opts {
		o = opt(o)
	}
	reg := registry.OrDefault(o.registry)

	c := &Collection[T]{
		kind:     kind,
		project:  projectID,
		dataset:  datasetID,
		session:  sess,
		registry: reg,
		poller:   jobs.New(sess, projectID, jobs.WithLogger(o.log)),
		log:      o.log,
		skip:     o.skip,
	}
	c.base = collection.New(
		sess,
		collection.Spec[T]{
			Kind:                        kind.Tag,
			PathTemplate:                "projects/{project_id}/datasets/{dataset_id}/" + kind.Segment,
			DatasetAgnosticPathTemplate: "projects/{project_id}/" + kind.Segment,
			Build:                       c.build,
			UID: func(t T) (string, bool) {
				id := t.Common().ID()
				return id, id != ""
			},
		},
		collection.Params{collection.ParamProject: projectID, collection.ParamDataset: datasetID},
		collection.WithLogger(o.log),
		collection.WithSkipPolicy(o.skip),
	)
	return c
}

// Kind returns the kind of the collection.
func (c *Collection[T]) Kind() Kind {
	return c.kind
}

// Dataset returns the dataset id, or "" when the collection is not bound to a dataset.
func (c *Collection[T]) Dataset() string {
	return c.dataset
}

func (c *Collection[T]) build(raw json.RawMessage) (T, error) {
	t, err := registry.Decode[T](c.registry, raw)
	if err != nil {
		return t, err
	}
	if tag := t.TypeTag(); tag != c.kind.Tag {
		return *new(T), fmt.Errorf("%w: expected %s, but %s", xe.ErrInvalidShape, c.kind.Tag, tag)
	}
	return t, nil
}

func (c *Collection[T]) agnosticPath() string {
	return "projects/" + url.PathEscape(c.project) + "/" + c.kind.Segment
}

func linkPath(base string, l gemd.Link) string {
	return base + "/" + url.PathEscape(l.Scope) + "/" + url.PathEscape(l.ID)
}

func dryRunParam(dryRun bool) url.Values {
	return url.Values{"dry_run": {strconv.FormatBool(dryRun)}}
}

// Register creates or replaces model on the platform.
//
// Every object reachable from model without any uid gets a temporary uid
// during the call, so that references to it can be sent as links.
// Temporary uids are removed from the graph before return.
//
// Only model is written. Objects referred from it are sent as links.
//
// # Returns
//
// - T: model as the platform stored it.
//
// - error: errors.ErrNoDataset when the collection has no dataset, before any request.
// *errors.RegistrationFailed when the platform rejects model.
func (c *Collection[T]) Register(ctx context.Context, model T, dryRun bool) (T, error) {
	path, err := c.base.WritePath()
	if err != nil {
		return *new(T), err
	}

	body, err := flattenInScope(model)
	if err != nil {
		return *new(T), err
	}

	raw, err := c.session.Post(ctx, path, body, dryRunParam(dryRun))
	if err != nil {
		if !xe.IsRetryable(err) {
			return *new(T), &xe.RegistrationFailed{Kind: c.kind.Tag, Cause: err}
		}
		return *new(T), err
	}
	return c.build(raw)
}

// flattenInScope flattens model while objects without uids carry temporary uids.
// The temporary uids are stripped from the graph before return.
func flattenInScope(model gemd.Resource) (map[string]any, error) {
	scope := gemd.NewTemporaryScope()
	if err := scope.Assign(model); err != nil {
		return nil, err
	}
	body, err := gemd.Flatten(model)
	if serr := scope.Strip(model); err == nil {
		err = serr
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

type batch struct {
	Objects []json.RawMessage `json:"objects"`
}

// RegisterAll registers models with one request.
//
// Temporary uids are shared among models, so that models can refer to each other.
// Results are in the same order as models.
func (c *Collection[T]) RegisterAll(ctx context.Context, models []T, dryRun bool) ([]T, error) {
	path, err := c.base.WritePath()
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return []T{}, nil
	}

	roots := make([]gemd.Resource, len(models))
	for i := range models {
		roots[i] = models[i]
	}
	scope := gemd.NewTemporaryScope()
	if err := scope.Assign(roots...); err != nil {
		return nil, err
	}
	objects := make([]map[string]any, 0, len(models))
	for _, m := range models {
		body, err := gemd.Flatten(m)
		if err != nil {
			scope.Strip(roots...)
			return nil, err
		}
		objects = append(objects, body)
	}
	if err := scope.Strip(roots...); err != nil {
		return nil, err
	}

	raw, err := c.session.Put(ctx, path+"/batch", map[string]any{"objects": objects}, dryRunParam(dryRun))
	if err != nil {
		if !xe.IsRetryable(err) {
			return nil, &xe.RegistrationFailed{Kind: c.kind.Tag, Cause: err}
		}
		return nil, err
	}

	resp := batch{}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: batch response: %w", xe.ErrInvalidShape, err)
	}
	if len(resp.Objects) != len(models) {
		return nil, fmt.Errorf(
			"%w: batch response has %d objects for %d requested",
			xe.ErrInvalidShape, len(resp.Objects), len(models),
		)
	}
	ret := make([]T, 0, len(resp.Objects))
	for _, o := range resp.Objects {
		t, err := c.build(o)
		if err != nil {
			return nil, err
		}
		ret = append(ret, t)
	}
	return ret, nil
}

// Update writes model, which is registered already.
//
// When the platform answers that the change needs deep validation (400 Bad Request),
// it is retried as an asynchronous update, waited for, and the updated model is fetched.
func (c *Collection[T]) Update(ctx context.Context, model T) (T, error) {
	got, err := c.Register(ctx, model, false)
	if err == nil {
		return got, nil
	}
	if !errors.Is(err, xe.ErrBadRequest) {
		return *new(T), err
	}

	c.log.Infof("%s %s: needs validation. updating asynchronously", c.kind.Tag, model.Common().ID())
	res, err := c.AsyncUpdate(ctx, model, AsyncOptions{Wait: true, ReturnModel: true})
	if err != nil {
		return *new(T), err
	}
	return res.Model, nil
}

// AsyncOptions controls AsyncUpdate.
type AsyncOptions struct {
	DryRun bool

	// Wait makes AsyncUpdate block until the job finishes.
	Wait bool

	// ReturnModel makes AsyncUpdate fetch the updated model after the job succeeds.
	// It needs Wait.
	ReturnModel bool

	Poll jobs.PollOptions
}

// AsyncResult is the outcome of AsyncUpdate.
type AsyncResult[T gemd.Resource] struct {
	JobID string

	// Status is the final status of the job. Empty when it is not waited.
	Status jobtypes.Status

	// Model is the updated model, when requested.
	Model T
}

// AsyncUpdate updates model with an asynchronous job, which validates
// the update with objects depending on model.
//
// model should have a uid in scope "id" (errors.ErrNoIdentifiers otherwise).
//
// When the job fails, the error is *errors.JobFailure.
// When it does not finish in time, *errors.JobTimeout.
func (c *Collection[T]) AsyncUpdate(ctx context.Context, model T, opts AsyncOptions) (AsyncResult[T], error) {
	id := model.Common().ID()
	if id == "" {
		return AsyncResult[T]{}, fmt.Errorf(
			"%w: %s should have uid in scope %q to be updated", xe.ErrNoIdentifiers, c.kind.Tag, gemd.CanonicalScope,
		)
	}
	path, err := c.base.WritePath()
	if err != nil {
		return AsyncResult[T]{}, err
	}
	body, err := flattenInScope(model)
	if err != nil {
		return AsyncResult[T]{}, err
	}

	link := gemd.NewLink(gemd.CanonicalScope, id)
	raw, err := c.session.Put(ctx, linkPath(path, link)+"/async", body, dryRunParam(opts.DryRun))
	if err != nil {
		return AsyncResult[T]{}, err
	}
	sub := jobtypes.Submission{}
	if err := json.Unmarshal(raw, &sub); err != nil || sub.JobID == "" {
		return AsyncResult[T]{}, fmt.Errorf("%w: async update of %s returned no job_id", xe.ErrInvalidShape, link)
	}

	res := AsyncResult[T]{JobID: sub.JobID}
	if !opts.Wait {
		return res, nil
	}

	st, err := c.PollAsyncUpdateJob(ctx, sub.JobID, opts.Poll)
	res.Status = st
	if err != nil {
		return res, err
	}
	if !opts.ReturnModel {
		return res, nil
	}

	m, err := c.Get(ctx, link)
	if err != nil {
		return res, err
	}
	res.Model = m
	return res, nil
}

// PollAsyncUpdateJob waits for a job started by AsyncUpdate.
func (c *Collection[T]) PollAsyncUpdateJob(ctx context.Context, jobID string, opts jobs.PollOptions) (jobtypes.Status, error) {
	return c.poller.Poll(ctx, jobID, opts)
}

// Get fetches an object.
//
// ref is an id string, uuid.UUID, gemd.Link or gemd.Resource. See gemd.ToLink.
// Without dataset, objects are looked up in the whole project.
func (c *Collection[T]) Get(ctx context.Context, ref any) (T, error) {
	link, err := gemd.ToLink(ref, gemd.CanonicalScope)
	if err != nil {
		return *new(T), err
	}
	path, err := c.base.Path()
	if err != nil {
		return *new(T), err
	}
	raw, err := c.session.Get(ctx, linkPath(path, link), nil)
	if err != nil {
		return *new(T), err
	}
	return c.build(raw)
}

// ListOptions controls listing.
type ListOptions struct {
	// PerPage is the page size. Zero means session.DefaultCursorPerPage.
	PerPage int

	// Backward lists from the newest.
	Backward bool
}

func (c *Collection[T]) cursor(ctx context.Context, path string, params url.Values, opts ListOptions) *stream.Iterator[T] {
	raws := session.CursorPaged(ctx, c.session, path, session.CursorOptions{
		PerPage:  opts.PerPage,
		Backward: opts.Backward,
		Params:   params,
	})
	it := stream.Map(raws, c.build, c.skip.Skippable(func(err error) bool {
		return errors.Is(err, xe.ErrInvalidShape)
	}))
	return it.OnSkip(func(s stream.Skipped) {
		c.log.Warnf("%s: skipping a record: %s", c.kind.Tag, s.Err)
	})
}

func (c *Collection[T]) datasetParam() url.Values {
	params := url.Values{}
	if c.dataset != "" {
		params.Set("dataset_id", c.dataset)
	}
	return params
}

// List iterates all objects of the collection lazily.
func (c *Collection[T]) List(ctx context.Context, opts ListOptions) *stream.Iterator[T] {
	path, err := c.base.Path()
	if err != nil {
		return failed[T](err)
	}
	return c.cursor(ctx, path, nil, opts)
}

// ListByName iterates objects with the name in the dataset.
//
// Unless exact, name is matched case-insensitively as a prefix.
// It needs a dataset.
func (c *Collection[T]) ListByName(ctx context.Context, name string, exact bool, opts ListOptions) *stream.Iterator[T] {
	if c.dataset == "" {
		return failed[T](xe.ErrNoDataset)
	}
	params := c.datasetParam()
	params.Set("name", name)
	params.Set("exact", strconv.FormatBool(exact))
	return c.cursor(ctx, c.agnosticPath()+"/filter-by-name", params, opts)
}

// ListByTag iterates objects with the tag.
func (c *Collection[T]) ListByTag(ctx context.Context, tag string, opts ListOptions) *stream.Iterator[T] {
	params := c.datasetParam()
	params.Set("tags", tag)
	return c.cursor(ctx, c.agnosticPath(), params, opts)
}

// ListRelated iterates objects of this collection related to an object of another kind.
//
// For example, MaterialSpecs(...).ListRelated(ctx, gemd.TypeMaterialTemplate, tmpl, opts)
// lists material specs using the template.
//
// fromTag is the type tag of ref. ref is anything gemd.ToLink accepts.
func (c *Collection[T]) ListRelated(ctx context.Context, fromTag string, ref any, opts ListOptions) *stream.Iterator[T] {
	from, ok := KindOf(fromTag)
	if !ok {
		return failed[T](fmt.Errorf("dataconcepts: unknown kind %q", fromTag))
	}
	link, err := gemd.ToLink(ref, gemd.CanonicalScope)
	if err != nil {
		return failed[T](err)
	}
	path := linkPath("projects/"+url.PathEscape(c.project)+"/"+from.Segment, link) + "/" + c.kind.RelationSegment()
	return c.cursor(ctx, path, c.datasetParam(), opts)
}

func failed[T any](err error) *stream.Iterator[T] {
	return stream.New(context.Background(), func(context.Context, *stream.Diagnostics) (T, bool, error) {
		return *new(T), false, err
	})
}
