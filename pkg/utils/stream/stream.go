// Package stream provides lazy, single-pass iterators.
//
// Elements are pulled one by one; nothing is fetched before the caller asks.
// An iterator can drop elements which can not be used (for example, records
// which fail to decode). Dropped elements are not hidden: they are recorded,
// and can be read with Skipped.
package stream

import (
	"context"
	"fmt"
	"iter"
)

// Skipped is an element dropped from an iterator.
type Skipped struct {
	// Element is the dropped element, in the shape before it was dropped.
	Element any
	Err     error
}

// Diagnostics collects skipped elements. It is shared by an iterator
// and iterators derived from it.
type Diagnostics struct {
	skipped []Skipped
	onSkip  []func(Skipped)
}

// Skip records that element is dropped because of err.
func (d *Diagnostics) Skip(element any, err error) {
	s := Skipped{Element: element, Err: err}
	d.skipped = append(d.skipped, s)
	for _, f := range d.onSkip {
		f(s)
	}
}

// Puller produces the next element.
//
// It returns (v, true, nil) for an element, (_, false, nil) at the end,
// or (_, _, err) on failure. After the end or a failure, it is not called again.
type Puller[T any] func(ctx context.Context, d *Diagnostics) (T, bool, error)

// Iterator is a lazy sequence.
//
//	for it.Next() {
//		v := it.Value()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
//
// Iterator is not safe for concurrent use.
type Iterator[T any] struct {
	ctx  context.Context
	pull Puller[T]
	diag *Diagnostics

	cur  T
	err  error
	done bool
}

// New creates an Iterator pulling elements with pull.
//
// ctx is passed to pull. Once ctx is done, Next returns false and Err returns ctx.Err().
func New[T any](ctx context.Context, pull Puller[T]) *Iterator[T] {
	return &Iterator[T]{ctx: ctx, pull: pull, diag: &Diagnostics{}}
}

// FromSlice creates an Iterator over ts.
func FromSlice[T any](ts []T) *Iterator[T] {
	i := 0
	return New(context.Background(), func(context.Context, *Diagnostics) (T, bool, error) {
		if len(ts) <= i {
			return *new(T), false, nil
		}
		v := ts[i]
		i += 1
		return v, true, nil
	})
}

// Next advances the iterator. It returns false at the end or on failure.
func (it *Iterator[T]) Next() bool {
	if it.done {
		return false
	}
	if err := it.ctx.Err(); err != nil {
		it.finish(err)
		return false
	}
	v, ok, err := it.pull(it.ctx, it.diag)
	if err != nil || !ok {
		it.finish(err)
		return false
	}
	it.cur = v
	return true
}

func (it *Iterator[T]) finish(err error) {
	it.done = true
	it.err = err
	it.cur = *new(T)
}

// Value returns the current element.
func (it *Iterator[T]) Value() T {
	return it.cur
}

// Err returns the failure which stopped the iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Skipped returns elements dropped so far.
func (it *Iterator[T]) Skipped() []Skipped {
	return append([]Skipped(nil), it.diag.skipped...)
}

// OnSkip registers a function called each time an element is dropped.
func (it *Iterator[T]) OnSkip(f func(Skipped)) *Iterator[T] {
	it.diag.onSkip = append(it.diag.onSkip, f)
	return it
}

// All returns the rest of elements as iter.Seq. Check Err after ranging over it.
func (it *Iterator[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
	}
}

// Slice reads the rest of elements.
//
// Note that if the Iterator is infinite, this method will never return.
func (it *Iterator[T]) Slice() ([]T, error) {
	ret := []T{}
	for it.Next() {
		ret = append(ret, it.Value())
	}
	return ret, it.Err()
}

// Filter keeps elements predicator matches.
func (it *Iterator[T]) Filter(f func(T) bool) *Iterator[T] {
	return derive(it, func(ctx context.Context, d *Diagnostics) (T, bool, error) {
		for it.Next() {
			if v := it.Value(); f(v) {
				return v, true, nil
			}
		}
		return *new(T), false, it.Err()
	})
}

// Map converts elements of src with f.
//
// When f fails with an error which skippable reports true for, the element is
// recorded as skipped and the iteration continues. Other errors stop the iteration.
// skippable can be nil; then no error is skipped.
func Map[T, U any](src *Iterator[T], f func(T) (U, error), skippable func(error) bool) *Iterator[U] {
	return derive(src, func(ctx context.Context, d *Diagnostics) (U, bool, error) {
		for src.Next() {
			v := src.Value()
			u, err := f(v)
			if err == nil {
				return u, true, nil
			}
			if skippable != nil && skippable(err) {
				d.Skip(v, err)
				continue
			}
			return *new(U), false, err
		}
		return *new(U), false, src.Err()
	})
}

func derive[T, U any](src *Iterator[T], pull Puller[U]) *Iterator[U] {
	return &Iterator[U]{ctx: src.ctx, pull: pull, diag: src.diag}
}

// SkipPolicy tells what to do with elements which can not be converted.
type SkipPolicy int

const (
	// SkipInvalid drops malformed elements and records them as skipped.
	SkipInvalid SkipPolicy = iota

	// FailOnInvalid stops the iteration at the first malformed element.
	FailOnInvalid
)

func (p SkipPolicy) String() string {
	switch p {
	case SkipInvalid:
		return "skip-invalid"
	case FailOnInvalid:
		return "fail-on-invalid"
	default:
		return fmt.Sprintf("SkipPolicy(%d)", int(p))
	}
}

// Skippable returns the skippable predicate for Map under the policy.
//
// invalid tells whether an error means a malformed element.
func (p SkipPolicy) Skippable(invalid func(error) bool) func(error) bool {
	if p == FailOnInvalid {
		return nil
	}
	return invalid
}
