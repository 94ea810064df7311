package gemd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Flatten serializes the fields of r itself, replacing every materialized
// resource in its reference slots with a link to it.
// null, empty arrays and empty objects are dropped from the result.
//
// Each referred resource should have at least one uid. Otherwise ErrNoIdentifiers.
//
// The reference slots of r are rewritten during the call and restored before return.
// r should not be read by other goroutines meanwhile.
func Flatten(r Resource) (map[string]any, error) {
	refs := r.References()
	saved := make([]Ref, len(refs))
	for i, ref := range refs {
		saved[i] = *ref
	}
	defer func() {
		for i, ref := range refs {
			*ref = saved[i]
		}
	}()

	for _, ref := range refs {
		child, ok := ref.Resource()
		if !ok {
			continue
		}
		link, err := linkOfResource(child, CanonicalScope)
		if err != nil {
			return nil, fmt.Errorf("flattening %s: %w", r.TypeTag(), err)
		}
		ref.Set(link)
	}

	buf, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	scrubbed, _ := scrub(raw).(map[string]any)
	if scrubbed == nil {
		scrubbed = map[string]any{}
	}
	return scrubbed, nil
}

// scrub removes nulls and empty containers, recursively.
// It returns nil when v itself should be removed.
func scrub(v any) any {
	switch vv := v.(type) {
	case nil:
		return nil
	case map[string]any:
		for k, e := range vv {
			if s := scrub(e); s == nil {
				delete(vv, k)
			} else {
				vv[k] = s
			}
		}
		if len(vv) == 0 {
			return nil
		}
		return vv
	case []any:
		out := make([]any, 0, len(vv))
		for _, e := range vv {
			if s := scrub(e); s != nil {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return v
	}
}

// TemporaryScope is a scope which lives only during one write.
type TemporaryScope string

// NewTemporaryScope creates a random scope which never collides with others.
func NewTemporaryScope() TemporaryScope {
	return TemporaryScope(uuid.NewString())
}

// Assign gives a uid in the scope to every resource reachable from roots
// which has no uids at all.
func (s TemporaryScope) Assign(roots ...Resource) error {
	return Walk(roots, func(r Resource) error {
		if b := r.Common(); len(b.Uids) == 0 {
			b.AddUID(string(s), uuid.NewString())
		}
		return nil
	})
}

// Strip removes uids in the scope from every resource reachable from roots.
func (s TemporaryScope) Strip(roots ...Resource) error {
	return Walk(roots, func(r Resource) error {
		b := r.Common()
		b.RemoveUID(string(s))
		if len(b.Uids) == 0 {
			b.Uids = nil
		}
		return nil
	})
}
