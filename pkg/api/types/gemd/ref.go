package gemd

import (
	"bytes"
	"encoding/json"
	"fmt"

	xe "github.com/opst/gemdclient/pkg/errors"
)

// Ref is a reference slot.
//
// It is empty, or holds one of a Link or a Resource.
// A Ref decoded from JSON holding an embedded object keeps the object undecoded
// ("pending") until a registry resolves it, since this package does not know
// how to dispatch types.
type Ref struct {
	link    *Link
	obj     Resource
	pending json.RawMessage
}

// RefTo creates a Ref holding o. RefTo(nil) is an empty Ref.
func RefTo(o Object) Ref {
	r := Ref{}
	r.Set(o)
	return r
}

// Set replaces the content of the slot with o.
//
// o should be a Link, a *Link or a Resource. nil clears the slot.
func (r *Ref) Set(o Object) {
	*r = Ref{}
	switch v := o.(type) {
	case nil:
	case Link:
		r.link = &v
	case *Link:
		if v != nil {
			l := *v
			r.link = &l
		}
	case Resource:
		r.obj = v
	default:
		panic(fmt.Sprintf("gemd: unsupported object in Ref: %T", o))
	}
}

func (r Ref) IsZero() bool {
	return r.link == nil && r.obj == nil && len(r.pending) == 0
}

func (r Ref) Link() (Link, bool) {
	if r.link == nil {
		return Link{}, false
	}
	return *r.link, true
}

func (r Ref) Resource() (Resource, bool) {
	return r.obj, r.obj != nil
}

// Pending returns the undecoded payload of an embedded object.
func (r Ref) Pending() (json.RawMessage, bool) {
	return r.pending, len(r.pending) != 0
}

// Object returns the Link or the Resource in the slot, or nil.
func (r Ref) Object() Object {
	if r.link != nil {
		return *r.link
	}
	if r.obj != nil {
		return r.obj
	}
	return nil
}

func (r Ref) toLink(scope string) (Link, error) {
	switch {
	case r.link != nil:
		return *r.link, nil
	case r.obj != nil:
		return linkOfResource(r.obj, scope)
	}
	return Link{}, fmt.Errorf("%w: empty or unresolved reference", xe.ErrUnsupportedReference)
}

// Equal tells two slots refer the same thing.
//
// Slots are compared by their links when both can produce one,
// so that a registered resource equals a link to it.
func (r Ref) Equal(o Ref) bool {
	if r.IsZero() || o.IsZero() {
		return r.IsZero() && o.IsZero()
	}
	rl, rerr := r.toLink(CanonicalScope)
	ol, oerr := o.toLink(CanonicalScope)
	if rerr == nil && oerr == nil {
		return rl == ol
	}
	if r.obj != nil && o.obj != nil {
		return r.obj.Equal(o.obj)
	}
	if len(r.pending) != 0 && len(o.pending) != 0 {
		return bytes.Equal(r.pending, o.pending)
	}
	return false
}

func (r Ref) MarshalJSON() ([]byte, error) {
	switch {
	case r.link != nil:
		return json.Marshal(*r.link)
	case r.obj != nil:
		return json.Marshal(r.obj)
	case len(r.pending) != 0:
		return r.pending, nil
	}
	return []byte("null"), nil
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	*r = Ref{}
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	head := new(struct {
		Type string `json:"type"`
	})
	if err := json.Unmarshal(trimmed, head); err != nil {
		return fmt.Errorf("%w: reference: %w", xe.ErrInvalidShape, err)
	}
	if head.Type == LinkType {
		l := new(Link)
		if err := json.Unmarshal(trimmed, l); err != nil {
			return err
		}
		r.link = l
		return nil
	}

	r.pending = append(json.RawMessage(nil), trimmed...)
	return nil
}
