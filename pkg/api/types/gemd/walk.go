package gemd

import (
	"errors"

	"k8s.io/apimachinery/pkg/util/sets"
)

// SkipReferences can be returned by the visitor of Walk
// to stop descending references of the resource being visited.
var SkipReferences = errors.New("skip references")

// Walk visits each resource in roots and every resource reachable from them through
// references, depth first and in pre-order. Each resource is visited once,
// even if it is referred from many places.
//
// Links are not visited, since they are not materialized.
//
// When visit returns an error other than SkipReferences, Walk stops and returns it.
func Walk(roots []Resource, visit func(Resource) error) error {
	seen := sets.New[Resource]()

	var walk func(Resource) error
	walk = func(r Resource) error {
		if r == nil || seen.Has(r) {
			return nil
		}
		seen.Insert(r)

		if err := visit(r); errors.Is(err, SkipReferences) {
			return nil
		} else if err != nil {
			return err
		}

		for _, ref := range r.References() {
			child, ok := ref.Resource()
			if !ok {
				continue
			}
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range roots {
		if err := walk(r); err != nil {
			return err
		}
	}
	return nil
}
