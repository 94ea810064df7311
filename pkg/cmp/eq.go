// Package cmp provides field-wise equality helpers.
//
// Resource kinds compose these to declare their own Equal methods.
package cmp

// Eq is a type which knows how to compare itself with another of the same type.
type Eq[T any] interface {
	Equal(T) bool
}

func EqEq[T comparable](a, b T) bool {
	return a == b
}

// PEqEq compares values pointed by a and b. Two nils are equal.
func PEqEq[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// PEqualWith compares values pointed by a and b with pred. Two nils are equal.
func PEqualWith[T any](a, b *T, pred func(T, T) bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return pred(*a, *b)
}

// PEqual compares a and b with their Equal method. Two nils are equal.
func PEqual[T Eq[T]](a, b *T) bool {
	return PEqualWith(a, b, func(x, y T) bool { return x.Equal(y) })
}
