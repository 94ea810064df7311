// Package gemd defines the data-concepts objects exchanged with the platform:
// templates, specs and runs of materials, processes, measurements and ingredients,
// and the links which refer to them.
//
// Every object carries a "type" discriminator on the wire.
// Objects refer to each other through Ref slots, which hold either a Link or
// a materialized Resource.
package gemd

import (
	"sort"
	"time"

	"github.com/opst/gemdclient/pkg/cmp"
)

const (
	// CanonicalScope is the scope of identifiers assigned by the platform.
	CanonicalScope = "id"

	// LinkType is the "type" of links. It is never the type of a resource.
	LinkType = "link_by_uid"
)

// Object is anything which can appear where a reference is expected:
// a Link or a Resource.
type Object interface {
	TypeTag() string
}

// Resource is a data-concepts object.
type Resource interface {
	Object

	// Common returns the fields shared by all kinds. It never returns nil.
	Common() *Base

	// References returns pointers to every reference slot of the object itself,
	// including ones in its attributes. Referred objects are not descended.
	References() []*Ref

	// Equal tells other is the same kind and has same key fields.
	Equal(other Object) bool
}

type FileLink struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type AuditInfo struct {
	CreatedBy *string    `json:"created_by,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedBy *string    `json:"updated_by,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Base is the set of fields which every kind of resource has.
type Base struct {
	// Uids maps scope to identifier.
	Uids        map[string]string `json:"uids,omitempty"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	FileLinks   []FileLink        `json:"file_links,omitempty"`

	// AuditInfo and Dataset are set by the platform.
	AuditInfo *AuditInfo `json:"audit_info,omitempty"`
	Dataset   string     `json:"dataset,omitempty"`
}

func (b *Base) Common() *Base {
	return b
}

// UID returns the identifier in scope.
func (b *Base) UID(scope string) (string, bool) {
	id, ok := b.Uids[scope]
	return id, ok
}

// ID returns the canonical identifier, or "" when it is not registered yet.
func (b *Base) ID() string {
	return b.Uids[CanonicalScope]
}

func (b *Base) AddUID(scope, id string) {
	if b.Uids == nil {
		b.Uids = map[string]string{}
	}
	b.Uids[scope] = id
}

func (b *Base) RemoveUID(scope string) {
	delete(b.Uids, scope)
}

// Scopes returns scopes of uids, sorted.
func (b *Base) Scopes() []string {
	scopes := make([]string, 0, len(b.Uids))
	for s := range b.Uids {
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)
	return scopes
}

func (b *Base) equal(o *Base) bool {
	return cmp.MapEq(b.Uids, o.Uids) &&
		b.Name == o.Name &&
		b.Description == o.Description &&
		cmp.SliceEq(b.Tags, o.Tags) &&
		b.Notes == o.Notes &&
		cmp.SliceEq(b.FileLinks, o.FileLinks)
}
