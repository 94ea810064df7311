package gemd

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	xe "github.com/opst/gemdclient/pkg/errors"
)

// Link refers a resource by one of its uids.
type Link struct {
	Scope string `json:"scope"`
	ID    string `json:"id"`
}

func NewLink(scope, id string) Link {
	return Link{Scope: scope, ID: id}
}

func (Link) TypeTag() string {
	return LinkType
}

func (l Link) String() string {
	return l.Scope + "/" + l.ID
}

func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Scope string `json:"scope"`
		ID    string `json:"id"`
	}{Type: LinkType, Scope: l.Scope, ID: l.ID})
}

func (l *Link) UnmarshalJSON(b []byte) error {
	f := new(struct {
		Type  string  `json:"type"`
		Scope *string `json:"scope"`
		ID    *string `json:"id"`
	})
	if err := json.Unmarshal(b, f); err != nil {
		return err
	}
	if f.Type != "" && f.Type != LinkType {
		return fmt.Errorf(`%w: link should have type "%s", but "%s"`, xe.ErrInvalidShape, LinkType, f.Type)
	}
	if f.Scope == nil || f.ID == nil {
		return fmt.Errorf(`%w: link requires "scope" and "id"`, xe.ErrInvalidShape)
	}
	l.Scope = *f.Scope
	l.ID = *f.ID
	return nil
}

// ToLink normalizes a reference to a Link.
//
// ref can be one of:
//
// - Link or *Link: returned as is.
//
// - Resource: its uid in scope is used. When it has no uid in scope,
// the canonical uid is tried, and then the uid of the first scope in lexical order.
// A resource without uids causes ErrNoIdentifiers.
//
// - Ref or *Ref: the link or the resource in it.
//
// - string or uuid.UUID: an id in scope.
//
// When scope is empty, CanonicalScope is used.
// Others cause ErrUnsupportedReference.
func ToLink(ref any, scope string) (Link, error) {
	if scope == "" {
		scope = CanonicalScope
	}

	switch r := ref.(type) {
	case Link:
		return r, nil
	case *Link:
		if r == nil {
			break
		}
		return *r, nil
	case Ref:
		return r.toLink(scope)
	case *Ref:
		if r == nil {
			break
		}
		return r.toLink(scope)
	case Resource:
		return linkOfResource(r, scope)
	case string:
		return Link{Scope: scope, ID: r}, nil
	case uuid.UUID:
		return Link{Scope: scope, ID: r.String()}, nil
	}
	return Link{}, fmt.Errorf("%w: %T", xe.ErrUnsupportedReference, ref)
}

func linkOfResource(r Resource, scope string) (Link, error) {
	b := r.Common()
	if len(b.Uids) == 0 {
		return Link{}, fmt.Errorf("%w: %s %q", xe.ErrNoIdentifiers, r.TypeTag(), b.Name)
	}
	for _, s := range []string{scope, CanonicalScope} {
		if id, ok := b.Uids[s]; ok {
			return Link{Scope: s, ID: id}, nil
		}
	}
	first := b.Scopes()[0]
	return Link{Scope: first, ID: b.Uids[first]}, nil
}
