package platform_test

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opst/gemdclient/pkg/api/types/gemd"
	"github.com/opst/gemdclient/pkg/collection"
	"github.com/opst/gemdclient/pkg/dataconcepts"
	xe "github.com/opst/gemdclient/pkg/errors"
	"github.com/opst/gemdclient/pkg/jobs"
	"github.com/opst/gemdclient/pkg/platform"
	"github.com/opst/gemdclient/pkg/session/mock"
)

func TestProject_Dataset(t *testing.T) {
	sess := mock.New()
	sess.Impl.Get = func(_ context.Context, path string, _ url.Values) (json.RawMessage, error) {
		return mock.JSON(map[string]any{
			"type": gemd.TypeMaterialRun,
			"name": "alloy",
			"uids": map[string]string{gemd.CanonicalScope: "run-1"},
		}), nil
	}

	project := platform.New(sess).Project("p-1")
	bound := project.Dataset("d-1")

	assert.Equal(t, "p-1", bound.ID())
	assert.Equal(t, "d-1", bound.DatasetID())
	assert.Equal(t, "", project.DatasetID(), "Dataset does not change the receiver")

	ctx := context.Background()

	_, err := bound.MaterialRuns().Get(ctx, "run-1")
	require.NoError(t, err)
	_, err = project.MaterialRuns().Get(ctx, "run-1")
	require.NoError(t, err)

	require.Equal(t, uint(2), sess.Calls.Get.Times())
	assert.Equal(t, "projects/p-1/datasets/d-1/material-runs/id/run-1", sess.Calls.Get[0].Path)
	assert.Equal(t, "projects/p-1/material-runs/id/run-1", sess.Calls.Get[1].Path)
}

func TestProject_Writes_NeedDataset(t *testing.T) {
	sess := mock.New()
	_, err := platform.New(sess).Project("p-1").MaterialSpecs().
		Register(context.Background(), &gemd.MaterialSpec{}, false)
	assert.ErrorIs(t, err, xe.ErrNoDataset)
	assert.Equal(t, uint(0), sess.Calls.Post.Times())
}

func TestProject_DataConcepts(t *testing.T) {
	project := platform.New(mock.New()).Project("p-1").Dataset("d-1")

	for _, k := range dataconcepts.Kinds() {
		t.Run(k.Tag, func(t *testing.T) {
			c, err := project.DataConcepts(k.Tag)
			require.NoError(t, err)
			assert.Equal(t, k, c.Kind())
			assert.Equal(t, "d-1", c.Dataset())
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := project.DataConcepts("no_such_kind")
		assert.Error(t, err)
	})
}

func TestProject_Modules(t *testing.T) {
	sess := mock.New()
	sess.Impl.Get = func(context.Context, string, url.Values) (json.RawMessage, error) {
		return mock.JSON(map[string]any{"response": []any{}}), nil
	}
	project := platform.New(sess).Project("p-1")

	ctx := context.Background()
	_, err := project.Predictors().List(ctx, collection.ListOptions{}).Slice()
	require.NoError(t, err)
	_, err = project.DesignWorkflows().List(ctx, collection.ListOptions{}).Slice()
	require.NoError(t, err)

	require.Equal(t, uint(2), sess.Calls.Get.Times())
	assert.Equal(t, "projects/p-1/predictors", sess.Calls.Get[0].Path)
	assert.Equal(t, "projects/p-1/design-workflows", sess.Calls.Get[1].Path)

	_, err = project.Executions("").Trigger(ctx, "pred-1", 0)
	assert.Error(t, err, "triggering needs a workflow")
}

func TestProject_Jobs(t *testing.T) {
	sess := mock.New()
	sess.Impl.Get = func(context.Context, string, url.Values) (json.RawMessage, error) {
		return mock.JSON(map[string]any{"job_type": "batch-delete", "status": "Success"}), nil
	}

	st, err := platform.New(sess).Project("p-1").Jobs().
		Poll(context.Background(), "job-1", jobs.PollOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Success", st.Status)

	require.Equal(t, uint(1), sess.Calls.Get.Times())
	assert.Equal(t, "projects/p-1/execution/job-status", sess.Calls.Get[0].Path)
	assert.Equal(t, "job-1", sess.Calls.Get[0].Params.Get("job_id"))
}
