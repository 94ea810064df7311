package modules_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/opst/gemdclient/pkg/api/types/modules"
	"github.com/opst/gemdclient/pkg/collection"
	xe "github.com/opst/gemdclient/pkg/errors"
	"github.com/opst/gemdclient/pkg/modules"
	"github.com/opst/gemdclient/pkg/session/mock"
)

func TestPredictors(t *testing.T) {
	predictors := []types.Predictor{}
	for i := range 150 {
		predictors = append(predictors, types.Predictor{ID: fmt.Sprintf("pred-%d", i), Name: "p"})
	}

	sess := mock.New()
	sess.Impl.Get = func(_ context.Context, _ string, params url.Values) (json.RawMessage, error) {
		page, _ := strconv.Atoi(params.Get("page"))
		perPage, _ := strconv.Atoi(params.Get("per_page"))
		from := min((page-1)*perPage, len(predictors))
		to := min(from+perPage, len(predictors))
		return mock.JSON(map[string]any{"response": predictors[from:to]}), nil
	}

	got, err := modules.Predictors(sess, "p-1").List(context.Background(), collection.ListOptions{}).Slice()
	require.NoError(t, err)
	assert.Len(t, got, 150)
	assert.Equal(t, "pred-149", got[149].ID)

	require.Equal(t, uint(2), sess.Calls.Get.Times())
	assert.Equal(t, "projects/p-1/predictors", sess.Calls.Get[0].Path)
	assert.Equal(t, "100", sess.Calls.Get[0].Params.Get("per_page"))
}

func TestDesignWorkflows(t *testing.T) {
	sess := mock.New()
	sess.Impl.Post = func(_ context.Context, _ string, body any, _ url.Values) (json.RawMessage, error) {
		w := body.(types.DesignWorkflow)
		w.ID = "dw-1"
		w.Status = types.StatusCreated
		return mock.JSON(w), nil
	}
	got, err := modules.DesignWorkflows(sess, "p-1").Register(
		context.Background(), types.DesignWorkflow{Name: "screen", PredictorID: "pred-1"},
	)
	require.NoError(t, err)
	assert.Equal(t, "dw-1", got.ID)
	assert.Equal(t, types.StatusCreated, got.Status)
	assert.Equal(t, "projects/p-1/design-workflows", sess.Calls.Post[0].Path)
}

func TestExecutions(t *testing.T) {
	t.Run("trigger", func(t *testing.T) {
		sess := mock.New()
		sess.Impl.Post = func(context.Context, string, any, url.Values) (json.RawMessage, error) {
			return json.RawMessage(`{"id": "ex-1", "workflow_id": "wf-1", "predictor_id": "pred-1", "status": "INPROGRESS"}`), nil
		}
		got, err := modules.NewExecutions(sess, "p-1", "wf-1").Trigger(context.Background(), "pred-1", 2)
		require.NoError(t, err)
		assert.Equal(t, "ex-1", got.ID)

		req := sess.Calls.Post[0]
		assert.Equal(t, "projects/p-1/predictor-evaluation-workflows/wf-1/executions", req.Path)
		assert.Equal(t, types.PredictorRef{PredictorID: "pred-1", PredictorVersion: 2}, req.Body)
	})

	t.Run("trigger without workflow", func(t *testing.T) {
		sess := mock.New()
		_, err := modules.NewExecutions(sess, "p-1", "").Trigger(context.Background(), "pred-1", 0)
		assert.Error(t, err)
		assert.Equal(t, uint(0), sess.Calls.Post.Times())
	})

	t.Run("list with filters", func(t *testing.T) {
		sess := mock.New()
		sess.Impl.Get = func(context.Context, string, url.Values) (json.RawMessage, error) {
			return json.RawMessage(`{"response": [{"id": "ex-1"}, {"id": "ex-2"}]}`), nil
		}
		got, err := modules.NewExecutions(sess, "p-1", "wf-1").
			List(context.Background(), modules.ListOptions{PredictorID: "pred-1"}).Slice()
		require.NoError(t, err)
		assert.Len(t, got, 2)

		req := sess.Calls.Get[0]
		assert.Equal(t, "projects/p-1/predictor-evaluation-executions", req.Path)
		assert.Equal(t, "wf-1", req.Params.Get("workflow_id"))
		assert.Equal(t, "pred-1", req.Params.Get("predictor_id"))
		assert.False(t, req.Params.Has("predictor_version"))
	})

	t.Run("archive and restore", func(t *testing.T) {
		sess := mock.New()
		sess.Impl.Put = func(context.Context, string, any, url.Values) (json.RawMessage, error) {
			return nil, nil
		}
		testee := modules.NewExecutions(sess, "p-1", "")
		require.NoError(t, testee.Archive(context.Background(), "ex-1"))
		require.NoError(t, testee.Restore(context.Background(), "ex-1"))

		require.Equal(t, uint(2), sess.Calls.Put.Times())
		assert.Equal(t, "projects/p-1/predictor-evaluation-executions/archive", sess.Calls.Put[0].Path)
		assert.Equal(t, "projects/p-1/predictor-evaluation-executions/restore", sess.Calls.Put[1].Path)
		assert.Equal(t, types.ModuleRef{ModuleUID: "ex-1"}, sess.Calls.Put[1].Body)
	})

	t.Run("writes are not supported", func(t *testing.T) {
		testee := modules.NewExecutions(mock.New(), "p-1", "wf-1")
		_, err := testee.Register(context.Background(), types.PredictorEvaluationExecution{})
		assert.ErrorIs(t, err, xe.ErrNotSupported)
		_, err = testee.Update(context.Background(), types.PredictorEvaluationExecution{ID: "ex-1"})
		assert.ErrorIs(t, err, xe.ErrNotSupported)
		assert.ErrorIs(t, testee.Delete(context.Background(), "ex-1"), xe.ErrNotSupported)
	})
}
