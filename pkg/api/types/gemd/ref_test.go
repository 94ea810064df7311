package gemd_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opst/gemdclient/pkg/api/types/gemd"
)

func TestRefUnmarshal(t *testing.T) {
	t.Run("link is decoded at once", func(t *testing.T) {
		run := new(gemd.MaterialRun)
		require.NoError(t, json.Unmarshal([]byte(`{
			"type": "material_run",
			"uids": {"id": "r-1"},
			"name": "ingot",
			"spec": {"type": "link_by_uid", "scope": "id", "id": "s-1"},
			"process": null
		}`), run))

		link, ok := run.Spec.Link()
		assert.True(t, ok)
		assert.Equal(t, gemd.NewLink("id", "s-1"), link)
		assert.True(t, run.Process.IsZero())
		assert.Equal(t, "r-1", run.ID())
	})

	t.Run("embedded object is kept pending", func(t *testing.T) {
		run := new(gemd.MaterialRun)
		require.NoError(t, json.Unmarshal([]byte(`{
			"type": "material_run",
			"process": {"type": "process_run", "name": "forging"}
		}`), run))

		raw, ok := run.Process.Pending()
		assert.True(t, ok)
		assert.JSONEq(t, `{"type": "process_run", "name": "forging"}`, string(raw))
		assert.Nil(t, run.Process.Object())
	})
}

func TestMarshalInjectsType(t *testing.T) {
	spec := &gemd.IngredientSpec{
		Base:       gemd.Base{Name: "flour"},
		Quantities: gemd.Quantities{MassFraction: gemd.NominalReal(0.5, "")},
		Material:   gemd.RefTo(gemd.NewLink("id", "m-1")),
		Labels:     []string{"dry"},
	}

	buf, err := json.Marshal(spec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "ingredient_spec",
		"name": "flour",
		"mass_fraction": {"type": "nominal_real", "nominal": 0.5},
		"material": {"type": "link_by_uid", "scope": "id", "id": "m-1"},
		"process": null,
		"labels": ["dry"]
	}`, string(buf))
}

func TestEqual(t *testing.T) {
	registered := func() *gemd.ProcessSpec {
		return &gemd.ProcessSpec{
			Base: gemd.Base{Name: "forging", Uids: map[string]string{"id": "p-1"}},
		}
	}

	for name, testcase := range map[string]struct {
		a, b gemd.Resource
		then bool
	}{
		"same fields": {
			a:    &gemd.MaterialRun{Base: gemd.Base{Name: "x"}, SampleType: "production"},
			b:    &gemd.MaterialRun{Base: gemd.Base{Name: "x"}, SampleType: "production"},
			then: true,
		},
		"different field": {
			a:    &gemd.MaterialRun{Base: gemd.Base{Name: "x"}, SampleType: "production"},
			b:    &gemd.MaterialRun{Base: gemd.Base{Name: "x"}, SampleType: "experimental"},
			then: false,
		},
		"different kinds": {
			a:    &gemd.MaterialRun{Base: gemd.Base{Name: "x"}},
			b:    &gemd.ProcessRun{Base: gemd.Base{Name: "x"}},
			then: false,
		},
		"registered sub-object equals a link to it": {
			a:    &gemd.MaterialRun{Base: gemd.Base{Name: "x"}, Process: gemd.RefTo(registered())},
			b:    &gemd.MaterialRun{Base: gemd.Base{Name: "x"}, Process: gemd.RefTo(gemd.NewLink("id", "p-1"))},
			then: true,
		},
		"audit info is not compared": {
			a:    &gemd.PropertyTemplate{Base: gemd.Base{Name: "x", AuditInfo: &gemd.AuditInfo{}}},
			b:    &gemd.PropertyTemplate{Base: gemd.Base{Name: "x"}},
			then: true,
		},
		"bounds are compared": {
			a:    &gemd.PropertyTemplate{Base: gemd.Base{Name: "x"}, Bounds: gemd.RealBounds(0, 1, "")},
			b:    &gemd.PropertyTemplate{Base: gemd.Base{Name: "x"}, Bounds: gemd.RealBounds(0, 2, "")},
			then: false,
		},
		"unregistered sub-objects are compared by fields": {
			a: &gemd.MaterialRun{Process: gemd.RefTo(&gemd.ProcessRun{Base: gemd.Base{Name: "p"}})},
			b: &gemd.MaterialRun{Process: gemd.RefTo(&gemd.ProcessRun{Base: gemd.Base{Name: "p"}})},

			then: true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, testcase.then, testcase.a.Equal(testcase.b))
			assert.Equal(t, testcase.then, testcase.b.Equal(testcase.a))
		})
	}
}
