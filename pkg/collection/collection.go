// Package collection is the generic, page-based collection of platform resources.
//
// A Collection is bound to a session and to the identifiers its path needs
// (project_id, dataset_id, ...). It holds no mutable state and caches nothing.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	xe "github.com/opst/gemdclient/pkg/errors"
	"github.com/opst/gemdclient/pkg/logger"
	"github.com/opst/gemdclient/pkg/session"
	"github.com/opst/gemdclient/pkg/utils/stream"
)

const (
	// DefaultPerPage is the page size when neither the caller nor the Spec tells one.
	DefaultPerPage = 20

	// DefaultCollectionKey is the key of the array of a page.
	DefaultCollectionKey = "entries"

	// TopLevelArray is the CollectionKey for pages which are bare arrays.
	TopLevelArray = "."

	// ParamProject is the path parameter of the project id.
	ParamProject = "project_id"
	// ParamDataset is the path parameter of the dataset id.
	ParamDataset = "dataset_id"
	// ParamWorkflow is the path parameter of the workflow id.
	ParamWorkflow = "workflow_id"
)

// Spec describes a kind of resource and where it lives.
type Spec[T any] struct {
	// Kind is a human readable name of the resource, used in errors.
	Kind string

	// PathTemplate is the path of the collection, like "projects/{project_id}/predictors".
	//
	// Placeholders are filled with Params of the Collection.
	PathTemplate string

	// DatasetAgnosticPathTemplate is used instead of PathTemplate
	// when the collection is not bound to any dataset. Optional.
	DatasetAgnosticPathTemplate string

	// IndividualKey is the key of the envelope of a single resource. Empty means no envelope.
	IndividualKey string

	// CollectionKey is the key of the array in a page.
	// Empty means DefaultCollectionKey.
	CollectionKey string

	// DefaultPerPage is the page size of List. Zero means DefaultPerPage.
	DefaultPerPage int

	// Build makes a resource from its payload.
	Build func(json.RawMessage) (T, error)

	// Dump makes a request body from a resource.
	Dump func(T) (any, error)

	// UID returns the id of a resource, if it has.
	UID func(T) (string, bool)
}

// Params are values of placeholders in path templates.
type Params map[string]string

type Collection[T any] struct {
	spec    Spec[T]
	session session.Session
	params  Params
	log     logger.Logger
	skip    stream.SkipPolicy
}

type options struct {
	log  logger.Logger
	skip stream.SkipPolicy
}

type Option func(*options) *options

func WithLogger(l logger.Logger) Option {
	return func(o *options) *options {
		o.log = l
		return o
	}
}

// WithSkipPolicy sets what List does with elements which can not be built.
//
// By default, they are skipped and recorded in Iterator.Skipped.
func WithSkipPolicy(p stream.SkipPolicy) Option {
	return func(o *options) *options {
		o.skip = p
		return o
	}
}

// New binds spec to a session and path parameters.
func New[T any](sess session.Session, spec Spec[T], params Params, opts ...Option) *Collection[T] {
	o := &options{log: logger.Null(), skip: stream.SkipInvalid}
	for _, opt := range opts {
		o = opt(o)
	}

	p := Params{}
	for k, v := range params {
		if v != "" {
			p[k] = v
		}
	}
	return &Collection[T]{spec: spec, session: sess, params: p, log: o.log, skip: o.skip}
}

// Spec returns the Spec of the collection.
func (c *Collection[T]) Spec() Spec[T] {
	return c.spec
}

// Session returns the session the collection is bound to.
func (c *Collection[T]) Session() session.Session {
	return c.session
}

// Param returns the value of a path parameter.
func (c *Collection[T]) Param(name string) (string, bool) {
	v, ok := c.params[name]
	return v, ok
}

var placeholder = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

func (c *Collection[T]) fill(tmpl string) (string, error) {
	var missing []string
	path := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := c.params[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return url.PathEscape(v)
	})
	if len(missing) == 0 {
		return strings.Trim(path, "/"), nil
	}
	for _, m := range missing {
		if m == ParamDataset {
			return "", xe.ErrNoDataset
		}
	}
	return "", fmt.Errorf("%s: unbound path parameters: %s", c.spec.Kind, strings.Join(missing, ", "))
}

// Path returns the path of the collection.
//
// When the collection is not bound to a dataset, the dataset agnostic path is used if the Spec has.
// An unbound dataset_id placeholder is errors.ErrNoDataset.
func (c *Collection[T]) Path() (string, error) {
	if _, ok := c.params[ParamDataset]; !ok && c.spec.DatasetAgnosticPathTemplate != "" {
		return c.fill(c.spec.DatasetAgnosticPathTemplate)
	}
	return c.fill(c.spec.PathTemplate)
}

// WritePath is the path where resources are written. It never ignores the dataset.
func (c *Collection[T]) WritePath() (string, error) {
	return c.fill(c.spec.PathTemplate)
}

func (c *Collection[T]) unwrap(raw json.RawMessage) (json.RawMessage, error) {
	if c.spec.IndividualKey == "" {
		return raw, nil
	}
	env := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", xe.ErrInvalidShape, c.spec.Kind, err)
	}
	body, ok := env[c.spec.IndividualKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %q is missing", xe.ErrInvalidShape, c.spec.Kind, c.spec.IndividualKey)
	}
	return body, nil
}

// BuildResponse unwraps the envelope of a single resource and builds it.
func (c *Collection[T]) BuildResponse(raw json.RawMessage) (T, error) {
	body, err := c.unwrap(raw)
	if err != nil {
		return *new(T), err
	}
	return c.spec.Build(body)
}

// Get fetches the resource with id.
//
// A missing resource is an error matching errors.ErrNotFound.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	base, err := c.Path()
	if err != nil {
		return *new(T), err
	}
	raw, err := c.session.Get(ctx, base+"/"+url.PathEscape(id), nil)
	if err != nil {
		return *new(T), err
	}
	return c.BuildResponse(raw)
}

// Register creates a resource.
//
// A non-retryable failure is *errors.RegistrationFailed.
func (c *Collection[T]) Register(ctx context.Context, model T) (T, error) {
	base, err := c.WritePath()
	if err != nil {
		return *new(T), err
	}
	body, err := c.dump(model)
	if err != nil {
		return *new(T), err
	}
	raw, err := c.session.Post(ctx, base, body, nil)
	if err != nil {
		if !xe.IsRetryable(err) {
			return *new(T), &xe.RegistrationFailed{Kind: c.spec.Kind, Cause: err}
		}
		return *new(T), err
	}
	return c.BuildResponse(raw)
}

func (c *Collection[T]) dump(model T) (any, error) {
	if c.spec.Dump == nil {
		return model, nil
	}
	return c.spec.Dump(model)
}

func (c *Collection[T]) uid(model T) (string, error) {
	if c.spec.UID == nil {
		return "", fmt.Errorf("%w: %s has no uid", xe.ErrNoIdentifiers, c.spec.Kind)
	}
	id, ok := c.spec.UID(model)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: %s has no uid", xe.ErrNoIdentifiers, c.spec.Kind)
	}
	return id, nil
}

// Update replaces the resource having the uid of model.
func (c *Collection[T]) Update(ctx context.Context, model T) (T, error) {
	id, err := c.uid(model)
	if err != nil {
		return *new(T), err
	}
	base, err := c.WritePath()
	if err != nil {
		return *new(T), err
	}
	body, err := c.dump(model)
	if err != nil {
		return *new(T), err
	}
	raw, err := c.session.Put(ctx, base+"/"+url.PathEscape(id), body, nil)
	if err != nil {
		return *new(T), err
	}
	return c.BuildResponse(raw)
}

// Response is a body of a response, kept as is.
type Response struct {
	Body json.RawMessage
}

// Delete removes the resource with id.
func (c *Collection[T]) Delete(ctx context.Context, id string) (Response, error) {
	base, err := c.WritePath()
	if err != nil {
		return Response{}, err
	}
	raw, err := c.session.Delete(ctx, base+"/"+url.PathEscape(id), nil)
	if err != nil {
		return Response{}, err
	}
	return Response{Body: raw}, nil
}

// FetchPage gets one page of the collection as it is.
//
// page and perPage are sent when positive. extra is sent in addition.
func (c *Collection[T]) FetchPage(ctx context.Context, page, perPage int, extra url.Values) ([]json.RawMessage, error) {
	base, err := c.Path()
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	for k, v := range extra {
		params[k] = append([]string(nil), v...)
	}
	if 0 < page {
		params.Set("page", strconv.Itoa(page))
	}
	if 0 < perPage {
		params.Set("per_page", strconv.Itoa(perPage))
	}

	raw, err := c.session.Get(ctx, base, params)
	if err != nil {
		return nil, err
	}
	return c.entries(raw)
}

func (c *Collection[T]) entries(raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	key := c.spec.CollectionKey
	if key == "" {
		key = DefaultCollectionKey
	}

	body := raw
	if key != TopLevelArray {
		env := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%w: page of %s: %w", xe.ErrInvalidShape, c.spec.Kind, err)
		}
		b, ok := env[key]
		if !ok || string(b) == "null" {
			return nil, nil
		}
		body = b
	}

	ents := []json.RawMessage{}
	if err := json.Unmarshal(body, &ents); err != nil {
		return nil, fmt.Errorf("%w: page of %s: %w", xe.ErrInvalidShape, c.spec.Kind, err)
	}
	return ents, nil
}

// ListOptions controls List.
type ListOptions struct {
	// Page is the page to fetch. Zero means all pages from the first.
	Page int

	// PerPage is the page size. Zero means the default of the collection.
	PerPage int

	// Params are sent with every page request.
	Params url.Values
}

// List iterates resources of the collection lazily.
//
// When Page is set, only that page is fetched. Otherwise pages are fetched
// one after another until the end is detected:
//
//   - the first page yields not exactly PerPage elements, or
//   - a later page yields no elements, or fewer than the first page did.
//
// Only built elements are counted; skipped ones are not.
//
// A later page is cut at an element with the uid of the first element,
// since some endpoints ignore paging and serve the first page again.
//
// Elements which can not be built as T are skipped and recorded in Iterator.Skipped,
// unless the collection has stream.FailOnInvalid.
func (c *Collection[T]) List(ctx context.Context, opts ListOptions) *stream.Iterator[T] {
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = c.spec.DefaultPerPage
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	startPage := opts.Page
	if startPage <= 0 {
		startPage = 1
	}

	p := &pager[T]{
		c:        c,
		params:   opts.Params,
		page:     startPage,
		start:    startPage,
		perPage:  perPage,
		onlyPage: 0 < opts.Page,
	}
	return stream.New(ctx, p.pull)
}

// pager keeps the progress of List.
type pager[T any] struct {
	c        *Collection[T]
	params   url.Values
	start    int
	page     int
	perPage  int
	onlyPage bool

	fetched bool
	buffer  []json.RawMessage
	seen    int // elements yielded from the current page

	firstCount int
	firstSeen  bool
	firstUID   string
	hasFirst   bool
}

// next decides whether the page after the drained one should be fetched.
func (p *pager[T]) next() bool {
	if p.page == p.start {
		p.firstCount = p.seen
		return !p.onlyPage && p.firstCount == p.perPage
	}
	return 0 < p.seen && p.firstCount <= p.seen
}

func (p *pager[T]) pull(ctx context.Context, d *stream.Diagnostics) (T, bool, error) {
	for {
		if len(p.buffer) == 0 {
			if p.fetched {
				if !p.next() {
					return *new(T), false, nil
				}
				p.page += 1
			}

			ents, err := p.c.FetchPage(ctx, p.page, p.perPage, p.params)
			if err != nil {
				return *new(T), false, err
			}
			p.fetched = true
			p.buffer = ents
			p.seen = 0
			continue
		}

		head := p.buffer[0]
		p.buffer = p.buffer[1:]

		v, err := p.c.spec.Build(head)
		if err != nil {
			if skippable := p.c.skip.Skippable(isInvalid); skippable != nil && skippable(err) {
				p.c.log.Warnf("%s: skipping an element on page %d: %s", p.c.spec.Kind, p.page, err)
				d.Skip(head, err)
				continue
			}
			return *new(T), false, err
		}

		var uid string
		var hasUID bool
		if p.c.spec.UID != nil {
			uid, hasUID = p.c.spec.UID(v)
		}
		if p.start < p.page && p.hasFirst && hasUID && uid == p.firstUID {
			p.c.log.Infof("%s: page %d repeats the first element. stop reading the page", p.c.spec.Kind, p.page)
			p.buffer = nil
			continue
		}

		p.seen += 1
		if !p.firstSeen {
			p.firstSeen = true
			p.firstUID, p.hasFirst = uid, hasUID
		}
		return v, true, nil
	}
}

func isInvalid(err error) bool {
	return errors.Is(err, xe.ErrInvalidShape)
}
