package dataconcepts_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opst/gemdclient/pkg/api/types/gemd"
	"github.com/opst/gemdclient/pkg/dataconcepts"
	xe "github.com/opst/gemdclient/pkg/errors"
	"github.com/opst/gemdclient/pkg/jobs"
	"github.com/opst/gemdclient/pkg/session/mock"
)

func TestDelete(t *testing.T) {
	for name, testcase := range map[string]struct {
		dataset string
		dryRun  bool
		path    string
	}{
		"in dataset": {dataset: dataset, path: "projects/p-1/datasets/d-1/process-runs/id/pr-1"},
		"in project": {path: "projects/p-1/process-runs/id/pr-1", dryRun: true},
	} {
		t.Run(name, func(t *testing.T) {
			sess := mock.New()
			sess.Impl.Delete = func(context.Context, string, url.Values) (json.RawMessage, error) {
				return nil, nil
			}
			err := dataconcepts.ProcessRuns(sess, project, testcase.dataset).
				Delete(context.Background(), "pr-1", testcase.dryRun)
			require.NoError(t, err)
			assert.Equal(t, testcase.path, sess.Calls.Delete[0].Path)
			assert.Equal(t, fmt.Sprint(testcase.dryRun), sess.Calls.Delete[0].Params.Get("dry_run"))
		})
	}
}

func refs(n int) []any {
	ret := make([]any, n)
	for i := range ret {
		ret[i] = fmt.Sprintf("obj-%03d", i)
	}
	return ret
}

func runs(n int) []any {
	ret := make([]any, n)
	for i := range ret {
		ret[i] = &gemd.MaterialRun{Base: gemd.Base{Uids: map[string]string{"id": fmt.Sprintf("obj-%03d", i)}}}
	}
	return ret
}

// deletionRequests reads ids of each batch-delete request.
func deletionRequests(t *testing.T, calls []mock.Request) [][]string {
	t.Helper()
	ret := [][]string{}
	for _, c := range calls {
		req := struct {
			IDs []gemd.Link `json:"ids"`
		}{}
		require.NoError(t, json.Unmarshal(mock.JSON(c.Body), &req))
		ids := make([]string, 0, len(req.IDs))
		for _, l := range req.IDs {
			ids = append(ids, l.ID)
		}
		ret = append(ret, ids)
	}
	return ret
}

func TestBatchDelete(t *testing.T) {
	t.Run("it sends batches of 50 and gathers failures", func(t *testing.T) {
		sess := mock.New()
		sess.Impl.Post = func(_ context.Context, _ string, body any, _ url.Values) (json.RawMessage, error) {
			b := mock.JSON(body)
			req := struct {
				IDs []gemd.Link `json:"ids"`
			}{}
			if err := json.Unmarshal(b, &req); err != nil {
				return nil, err
			}
			first := req.IDs[0]
			return json.RawMessage(fmt.Sprintf(
				`{"failures": [{"id": {"scope": %q, "id": %q}, "cause": {"code": 400, "message": "referred"}}]}`,
				first.Scope, first.ID,
			)), nil
		}

		failures, err := dataconcepts.MaterialRuns(sess, project, dataset).
			BatchDelete(context.Background(), runs(120))
		require.NoError(t, err)

		require.Equal(t, uint(3), sess.Calls.Post.Times())
		sizes := []int{}
		for _, c := range sess.Calls.Post {
			assert.Equal(t, "projects/p-1/gemd/batch-delete", c.Path)
			req := map[string]any{}
			require.NoError(t, json.Unmarshal(mock.JSON(c.Body), &req))
			assert.Equal(t, dataset, req["dataset_id"])
			sizes = append(sizes, len(req["ids"].([]any)))
		}
		assert.Equal(t, []int{50, 50, 20}, sizes)

		require.Len(t, failures, 3)
		assert.Equal(t, gemd.NewLink("id", "obj-000"), failures[0].Link)
		assert.Equal(t, gemd.NewLink("id", "obj-050"), failures[1].Link)
		assert.Equal(t, "referred", failures[2].Cause.Message)
	})

	t.Run("many objects are deleted from runs to templates", func(t *testing.T) {
		objects := []any{}
		for i := range 20 {
			objects = append(objects, &gemd.ProcessTemplate{Base: gemd.Base{Uids: map[string]string{"id": fmt.Sprintf("pt-%02d", i)}}})
		}
		for i := range 20 {
			objects = append(objects, &gemd.ProcessSpec{Base: gemd.Base{Uids: map[string]string{"id": fmt.Sprintf("ps-%02d", i)}}})
		}
		for i := range 20 {
			objects = append(objects, &gemd.MaterialRun{Base: gemd.Base{Uids: map[string]string{"id": fmt.Sprintf("mr-%02d", i)}}})
		}

		sess := mock.New()
		sess.Impl.Post = func(context.Context, string, any, url.Values) (json.RawMessage, error) {
			return json.RawMessage(`{"failures": []}`), nil
		}
		failures, err := dataconcepts.BatchDelete(context.Background(), sess, project, "", objects)
		require.NoError(t, err)
		assert.Empty(t, failures)

		batches := deletionRequests(t, sess.Calls.Post)
		require.Len(t, batches, 2)
		require.Len(t, batches[0], 50)
		assert.Equal(t, "mr-00", batches[0][0])
		assert.Equal(t, "mr-19", batches[0][19])
		assert.Equal(t, "ps-00", batches[0][20])
		assert.Equal(t, "ps-19", batches[0][39])
		assert.Equal(t, "pt-00", batches[0][40])
		assert.Equal(t, []string{"pt-10", "pt-11", "pt-12", "pt-13", "pt-14", "pt-15", "pt-16", "pt-17", "pt-18", "pt-19"}, batches[1])
	})

	t.Run("a few references are kept in order", func(t *testing.T) {
		sess := mock.New()
		sess.Impl.Post = func(context.Context, string, any, url.Values) (json.RawMessage, error) {
			return json.RawMessage(`{"failures": []}`), nil
		}
		objects := []any{
			&gemd.ProcessTemplate{Base: gemd.Base{Uids: map[string]string{"id": "pt"}}},
			"mr",
		}
		_, err := dataconcepts.BatchDelete(context.Background(), sess, project, "", objects)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"pt", "mr"}}, deletionRequests(t, sess.Calls.Post))
	})

	t.Run("many ids without objects are rejected before any request", func(t *testing.T) {
		sess := mock.New()
		_, err := dataconcepts.BatchDelete(context.Background(), sess, project, "", refs(dataconcepts.BatchDeleteSize+1))
		assert.ErrorIs(t, err, xe.ErrUnsupportedReference)
		assert.Equal(t, uint(0), sess.Calls.Post.Times())
	})

	t.Run("unsupported reference is rejected before any request", func(t *testing.T) {
		sess := mock.New()
		_, err := dataconcepts.BatchDelete(context.Background(), sess, project, "", []any{"a", 3.14})
		assert.Error(t, err)
		assert.Equal(t, uint(0), sess.Calls.Post.Times())
	})
}

func TestAsyncBatchDelete(t *testing.T) {
	sess := mock.New()
	sess.Impl.Post = func(context.Context, string, any, url.Values) (json.RawMessage, error) {
		return json.RawMessage(`{"job_id": "job-del"}`), nil
	}
	sess.Impl.Get = func(_ context.Context, path string, params url.Values) (json.RawMessage, error) {
		return mock.JSON(map[string]any{
			"status": "Success",
			"output": map[string]string{
				"failures": `[{"id": {"scope": "id", "id": "obj-001"}, "cause": {"code": 400, "message": "referred"}}]`,
			},
		}), nil
	}

	failures, err := dataconcepts.AsyncBatchDelete(
		context.Background(), sess, project, "", refs(120),
		jobs.PollOptions{Timeout: time.Second, Delay: time.Millisecond},
	)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, gemd.NewLink("id", "obj-001"), failures[0].Link)

	require.Equal(t, uint(1), sess.Calls.Post.Times(), "all objects are sent with one job")
	assert.Equal(t, "projects/p-1/gemd/async-batch-delete", sess.Calls.Post[0].Path)
	assert.Len(t, deletionRequests(t, sess.Calls.Post)[0], 120)
	assert.Equal(t, uint(1), sess.Calls.Get.Times())
	assert.Equal(t, "job-del", sess.Calls.Get[0].Params.Get("job_id"))
}
