package cmp

// MapEq tells a and b have same keys and values.
//
// nil and empty maps are equal.
func MapEq[K comparable, V comparable](a map[K]V, b map[K]V) bool {
	return MapEqWith(a, b, EqEq[V])
}

func MapEqWith[K comparable, V any, U any](a map[K]V, b map[K]U, pred func(V, U) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !pred(va, vb) {
			return false
		}
	}
	return true
}
