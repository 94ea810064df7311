// Package try shortens setup steps in tests.
//
//	c := try.To(session.New(prof)).OrFatal(t)
package try

// Fataler is something with Fatal, like *testing.T.
type Fataler interface {
	Fatal(...any)
}

// Either is a pair of a value and an error. It is ok when the error is nil.
type Either[T any] interface {
	Get() (T, error)

	// OrFatal returns the value, or calls ftl.Fatal with the error.
	//
	// If ftl has Helper (like *testing.T), it is called before Fatal.
	OrFatal(ftl Fataler) T

	// OrDefault returns the value, or d when it is not ok.
	OrDefault(d T) T
}

// To wraps a result of a function returning (T, error).
func To[T any](v T, err error) Either[T] {
	return either[T]{value: v, err: err}
}

type either[T any] struct {
	value T
	err   error
}

func (e either[T]) Get() (T, error) {
	if e.err != nil {
		return *new(T), e.err
	}
	return e.value, nil
}

func (e either[T]) OrFatal(ftl Fataler) T {
	if e.err == nil {
		return e.value
	}
	if h, ok := ftl.(interface{ Helper() }); ok {
		h.Helper()
	}
	ftl.Fatal(e.err)
	return *new(T)
}

func (e either[T]) OrDefault(d T) T {
	if e.err != nil {
		return d
	}
	return e.value
}
