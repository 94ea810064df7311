// Package registry builds typed data-concepts objects from their JSON payloads,
// dispatching on the "type" discriminator.
//
// A Registry is immutable after New. Default returns the registry of all
// data-concepts kinds, built on first use.
package registry

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/opst/gemdclient/pkg/api/types/gemd"
	xe "github.com/opst/gemdclient/pkg/errors"
)

// Entry binds a type tag to the constructor of its kind.
type Entry struct {
	Tag string
	New func() gemd.Resource
}

// IsLink tells the entry is for links, not resources.
func (e Entry) IsLink() bool {
	return e.Tag == gemd.LinkType
}

// Of makes an Entry for resource kind T.
//
//	registry.Of[gemd.MaterialRun]()
func Of[T any, PT interface {
	*T
	gemd.Resource
}]() Entry {
	return Entry{
		Tag: PT(new(T)).TypeTag(),
		New: func() gemd.Resource { return PT(new(T)) },
	}
}

var linkEntry = Entry{Tag: gemd.LinkType}

type Registry struct {
	entries map[string]Entry
	order   []string
}

// New creates a Registry of entries.
//
// Tags should be unique and agree with TypeTag of what New creates.
// The link type can not be registered; it is always known.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		switch {
		case e.Tag == "":
			return nil, fmt.Errorf("registry: empty tag")
		case e.Tag == gemd.LinkType:
			return nil, fmt.Errorf("registry: %q is reserved", e.Tag)
		case e.New == nil:
			return nil, fmt.Errorf("registry: %q has no constructor", e.Tag)
		}
		if _, ok := r.entries[e.Tag]; ok {
			return nil, fmt.Errorf("registry: duplicated tag %q", e.Tag)
		}
		if got := e.New().TypeTag(); got != e.Tag {
			return nil, fmt.Errorf("registry: %q creates %q", e.Tag, got)
		}
		r.entries[e.Tag] = e
		r.order = append(r.order, e.Tag)
	}
	return r, nil
}

// Tags returns registered tags in registration order.
func (r *Registry) Tags() []string {
	return slices.Clone(r.order)
}

// Lookup finds the entry for tag.
func (r *Registry) Lookup(tag string) (Entry, bool) {
	if tag == gemd.LinkType {
		return linkEntry, true
	}
	e, ok := r.entries[tag]
	return e, ok
}

// Resolve finds the entry for a payload by its "type".
//
// Payloads without "type" or with an unknown one cause *errors.UnrecognizedType.
func (r *Registry) Resolve(raw json.RawMessage) (Entry, error) {
	head := new(struct {
		Type *string `json:"type"`
	})
	if err := json.Unmarshal(raw, head); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", xe.ErrInvalidShape, err)
	}
	if head.Type == nil {
		return Entry{}, &xe.UnrecognizedType{}
	}
	e, ok := r.Lookup(*head.Type)
	if !ok {
		return Entry{}, &xe.UnrecognizedType{Tag: *head.Type}
	}
	return e, nil
}

// Build decodes a payload to a gemd.Link or a gemd.Resource.
//
// Objects embedded in references of the resource are built recursively.
// Decoding failures are errors.ErrInvalidShape.
func (r *Registry) Build(raw json.RawMessage) (gemd.Object, error) {
	e, err := r.Resolve(raw)
	if err != nil {
		return nil, err
	}

	if e.IsLink() {
		l := gemd.Link{}
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, err
		}
		return l, nil
	}

	res := e.New()
	if err := json.Unmarshal(raw, res); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", xe.ErrInvalidShape, e.Tag, err)
	}
	if err := r.resolveReferences(res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Registry) resolveReferences(res gemd.Resource) error {
	for _, ref := range res.References() {
		raw, ok := ref.Pending()
		if !ok {
			continue
		}
		o, err := r.Build(raw)
		if err != nil {
			return fmt.Errorf("reference of %s: %w", res.TypeTag(), err)
		}
		ref.Set(o)
	}
	return nil
}

// BuildResource is Build, but a link payload is an error.
func (r *Registry) BuildResource(raw json.RawMessage) (gemd.Resource, error) {
	o, err := r.Build(raw)
	if err != nil {
		return nil, err
	}
	res, ok := o.(gemd.Resource)
	if !ok {
		return nil, fmt.Errorf("%w: expected a resource, but %s", xe.ErrInvalidShape, o.TypeTag())
	}
	return res, nil
}

// Decode builds a payload as kind T.
func Decode[T gemd.Resource](r *Registry, raw json.RawMessage) (T, error) {
	var zero T
	res, err := r.BuildResource(raw)
	if err != nil {
		return zero, err
	}
	t, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("%w: expected %T, but %s", xe.ErrInvalidShape, zero, res.TypeTag())
	}
	return t, nil
}

// DataConcepts returns entries of all data-concepts kinds.
func DataConcepts() []Entry {
	return []Entry{
		Of[gemd.ConditionTemplate](),
		Of[gemd.ParameterTemplate](),
		Of[gemd.PropertyTemplate](),
		Of[gemd.MaterialTemplate](),
		Of[gemd.MeasurementTemplate](),
		Of[gemd.ProcessTemplate](),
		Of[gemd.IngredientSpec](),
		Of[gemd.MaterialSpec](),
		Of[gemd.MeasurementSpec](),
		Of[gemd.ProcessSpec](),
		Of[gemd.IngredientRun](),
		Of[gemd.MaterialRun](),
		Of[gemd.MeasurementRun](),
		Of[gemd.ProcessRun](),
	}
}

// Default returns the registry of DataConcepts.
//
// It is built once, on the first call. Concurrent first calls get the same registry.
var Default = sync.OnceValue(func() *Registry {
	r, err := New(DataConcepts()...)
	if err != nil {
		panic(err)
	}
	return r
})

// OrDefault returns r, or Default() when r is nil.
func OrDefault(r *Registry) *Registry {
	if r == nil {
		return Default()
	}
	return r
}
