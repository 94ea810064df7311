package cmp

// SliceEq tells a and b have same elements in same order.
//
// nil and empty slices are equal.
func SliceEq[T comparable](a []T, b []T) bool {
	return SliceEqWith(a, b, EqEq[T])
}

func SliceEqWith[T any, U any](a []T, b []U, pred func(a T, b U) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for nth := range a {
		if !pred(a[nth], b[nth]) {
			return false
		}
	}
	return true
}

// SliceEqual compares elements with their Equal method.
func SliceEqual[T Eq[T]](a, b []T) bool {
	return SliceEqWith(a, b, func(x, y T) bool { return x.Equal(y) })
}
