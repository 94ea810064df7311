package cmp_test

import (
	"testing"

	"github.com/opst/gemdclient/pkg/cmp"
)

type point struct {
	x, y int
}

func (a point) Equal(b point) bool {
	return a.x == b.x && a.y == b.y
}

func ref[T any](v T) *T {
	return &v
}

func TestPointers(t *testing.T) {
	for name, testcase := range map[string]struct {
		a, b *int
		then bool
	}{
		"both nil":         {a: nil, b: nil, then: true},
		"left nil":         {a: nil, b: ref(1), then: false},
		"right nil":        {a: ref(1), b: nil, then: false},
		"same value":       {a: ref(1), b: ref(1), then: true},
		"different values": {a: ref(1), b: ref(2), then: false},
	} {
		t.Run(name, func(t *testing.T) {
			if got := cmp.PEqEq(testcase.a, testcase.b); got != testcase.then {
				t.Errorf("PEqEq: got %v, want %v", got, testcase.then)
			}
		})
	}

	t.Run("PEqual uses Equal method", func(t *testing.T) {
		if !cmp.PEqual(ref(point{1, 2}), ref(point{1, 2})) {
			t.Error("equal points are not equal")
		}
		if cmp.PEqual(ref(point{1, 2}), ref(point{2, 1})) {
			t.Error("different points are equal")
		}
	})
}

func TestSlices(t *testing.T) {
	for name, testcase := range map[string]struct {
		a, b []string
		then bool
	}{
		"nil and empty":     {a: nil, b: []string{}, then: true},
		"same content":      {a: []string{"a", "b"}, b: []string{"a", "b"}, then: true},
		"different order":   {a: []string{"a", "b"}, b: []string{"b", "a"}, then: false},
		"different lengths": {a: []string{"a"}, b: []string{"a", "b"}, then: false},
	} {
		t.Run(name, func(t *testing.T) {
			if got := cmp.SliceEq(testcase.a, testcase.b); got != testcase.then {
				t.Errorf("got %v, want %v", got, testcase.then)
			}
		})
	}

	t.Run("SliceEqual uses Equal method", func(t *testing.T) {
		if !cmp.SliceEqual([]point{{1, 2}}, []point{{1, 2}}) {
			t.Error("equal slices are not equal")
		}
	})
}

func TestMaps(t *testing.T) {
	for name, testcase := range map[string]struct {
		a, b map[string]string
		then bool
	}{
		"nil and empty":    {a: nil, b: map[string]string{}, then: true},
		"same content":     {a: map[string]string{"id": "1"}, b: map[string]string{"id": "1"}, then: true},
		"different value":  {a: map[string]string{"id": "1"}, b: map[string]string{"id": "2"}, then: false},
		"different keys":   {a: map[string]string{"id": "1"}, b: map[string]string{"x": "1"}, then: false},
		"different length": {a: map[string]string{"id": "1"}, b: map[string]string{"id": "1", "x": "2"}, then: false},
	} {
		t.Run(name, func(t *testing.T) {
			if got := cmp.MapEq(testcase.a, testcase.b); got != testcase.then {
				t.Errorf("got %v, want %v", got, testcase.then)
			}
		})
	}
}
