package gemd_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opst/gemdclient/pkg/api/types/gemd"
	xe "github.com/opst/gemdclient/pkg/errors"
)

func TestToLink(t *testing.T) {
	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	type when struct {
		ref   any
		scope string
	}
	type then struct {
		link gemd.Link
		err  error
	}

	for name, testcase := range map[string]struct {
		when when
		then then
	}{
		"resource with canonical id": {
			when: when{ref: &gemd.MaterialRun{Base: gemd.Base{Uids: map[string]string{"id": "abc"}}}},
			then: then{link: gemd.NewLink("id", "abc")},
		},
		"resource prefers requested scope": {
			when: when{
				ref:   &gemd.MaterialRun{Base: gemd.Base{Uids: map[string]string{"id": "abc", "lab": "x-1"}}},
				scope: "lab",
			},
			then: then{link: gemd.NewLink("lab", "x-1")},
		},
		"resource falls back to canonical scope": {
			when: when{
				ref:   &gemd.MaterialRun{Base: gemd.Base{Uids: map[string]string{"id": "abc", "lab": "x-1"}}},
				scope: "erp",
			},
			then: then{link: gemd.NewLink("id", "abc")},
		},
		"resource falls back to the first scope": {
			when: when{
				ref: &gemd.ProcessSpec{Base: gemd.Base{Uids: map[string]string{"zeta": "z", "alpha": "a"}}},
			},
			then: then{link: gemd.NewLink("alpha", "a")},
		},
		"resource without uids": {
			when: when{ref: &gemd.MaterialRun{Base: gemd.Base{Name: "orphan"}}},
			then: then{err: xe.ErrNoIdentifiers},
		},
		"link passes through": {
			when: when{ref: gemd.NewLink("lab", "x-1"), scope: "id"},
			then: then{link: gemd.NewLink("lab", "x-1")},
		},
		"pointer to link passes through": {
			when: when{ref: &gemd.Link{Scope: "lab", ID: "x-1"}},
			then: then{link: gemd.NewLink("lab", "x-1")},
		},
		"string defaults to canonical scope": {
			when: when{ref: "abc"},
			then: then{link: gemd.NewLink("id", "abc")},
		},
		"string with explicit scope": {
			when: when{ref: "x-1", scope: "lab"},
			then: then{link: gemd.NewLink("lab", "x-1")},
		},
		"uuid": {
			when: when{ref: u},
			then: then{link: gemd.NewLink("id", u.String())},
		},
		"ref holding a link": {
			when: when{ref: gemd.RefTo(gemd.NewLink("id", "abc"))},
			then: then{link: gemd.NewLink("id", "abc")},
		},
		"number is not a reference": {
			when: when{ref: 42},
			then: then{err: xe.ErrUnsupportedReference},
		},
		"nil is not a reference": {
			when: when{ref: nil},
			then: then{err: xe.ErrUnsupportedReference},
		},
	} {
		t.Run(name, func(t *testing.T) {
			link, err := gemd.ToLink(testcase.when.ref, testcase.when.scope)
			if testcase.then.err != nil {
				assert.ErrorIs(t, err, testcase.then.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testcase.then.link, link)
		})
	}
}

func TestLinkJSON(t *testing.T) {
	t.Run("link is marshalled with its type", func(t *testing.T) {
		buf, err := json.Marshal(gemd.NewLink("id", "abc"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type": "link_by_uid", "scope": "id", "id": "abc"}`, string(buf))
	})

	t.Run("link with another type is rejected", func(t *testing.T) {
		l := new(gemd.Link)
		err := json.Unmarshal([]byte(`{"type": "material_run", "scope": "id", "id": "abc"}`), l)
		assert.ErrorIs(t, err, xe.ErrInvalidShape)
	})

	t.Run("link without id is rejected", func(t *testing.T) {
		l := new(gemd.Link)
		err := json.Unmarshal([]byte(`{"type": "link_by_uid", "scope": "id"}`), l)
		assert.ErrorIs(t, err, xe.ErrInvalidShape)
	})
}
