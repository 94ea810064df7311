package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/opst/gemdclient/pkg/api/types/jobs"
	xe "github.com/opst/gemdclient/pkg/errors"
	"github.com/opst/gemdclient/pkg/jobs"
	"github.com/opst/gemdclient/pkg/session/mock"
)

// sequence answers statuses in order, repeating the last one.
func sequence(statuses ...types.Status) func(context.Context, string, url.Values) (json.RawMessage, error) {
	i := 0
	return func(context.Context, string, url.Values) (json.RawMessage, error) {
		st := statuses[min(i, len(statuses)-1)]
		i += 1
		return mock.JSON(st), nil
	}
}

func TestPoll(t *testing.T) {
	running := types.Status{JobType: "update", Status: "Running"}
	fast := jobs.PollOptions{Timeout: time.Second, Delay: time.Millisecond}

	t.Run("it returns the status when the job succeeds", func(t *testing.T) {
		for name, opts := range map[string]jobs.PollOptions{
			"fixed interval": fast,
			"backoff":        {Timeout: time.Second, Delay: time.Millisecond, Backoff: 2, MaxDelay: 4 * time.Millisecond},
		} {
			t.Run(name, func(t *testing.T) {
				sess := mock.New()
				sess.Impl.Get = sequence(running, running, types.Status{Status: "Success", Output: map[string]string{"n": "1"}})

				got, err := jobs.New(sess, "p-1").Poll(context.Background(), "job-1", opts)
				require.NoError(t, err)
				assert.Equal(t, types.StateSucceeded, got.State())
				assert.Equal(t, map[string]string{"n": "1"}, got.Output)

				require.Equal(t, uint(3), sess.Calls.Get.Times())
				for _, c := range sess.Calls.Get {
					assert.Equal(t, "projects/p-1/execution/job-status", c.Path)
					assert.Equal(t, "job-1", c.Params.Get("job_id"))
				}
			})
		}
	})

	t.Run("failure carries reasons", func(t *testing.T) {
		sess := mock.New()
		sess.Impl.Get = sequence(running, types.Status{
			Status: "FAILURE",
			Tasks: []types.Task{
				{ID: "t1", Status: "Success"},
				{ID: "t2", Status: "Failure", FailureReason: "material run is invalid"},
				{ID: "t3", Status: "Failure", FailureReason: "spec is missing"},
			},
		})

		_, err := jobs.New(sess, "p-1").Poll(context.Background(), "job-1", fast)
		var failure *xe.JobFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, "job-1", failure.JobID)
		assert.Equal(t, []string{"material run is invalid", "spec is missing"}, failure.Reasons)

		var timeout *xe.JobTimeout
		assert.False(t, errors.As(err, &timeout))
	})

	t.Run("unfinished job times out", func(t *testing.T) {
		sess := mock.New()
		sess.Impl.Get = sequence(running)

		_, err := jobs.New(sess, "p-1").Poll(
			context.Background(), "job-1",
			jobs.PollOptions{Timeout: 30 * time.Millisecond, Delay: 5 * time.Millisecond},
		)
		var timeout *xe.JobTimeout
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, "job-1", timeout.JobID)
		assert.Equal(t, "Running", timeout.LastStatus)

		var failure *xe.JobFailure
		assert.False(t, errors.As(err, &failure))
	})

	t.Run("cancel returns the context error", func(t *testing.T) {
		sess := mock.New()
		sess.Impl.Get = sequence(running)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		_, err := jobs.New(sess, "p-1").Poll(ctx, "job-1", jobs.PollOptions{Timeout: time.Minute, Delay: 5 * time.Millisecond})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("status error stops polling", func(t *testing.T) {
		sess := mock.New()
		sess.Impl.Get = func(context.Context, string, url.Values) (json.RawMessage, error) {
			return nil, &xe.HTTPError{Method: http.MethodGet, StatusCode: http.StatusNotFound}
		}
		_, err := jobs.New(sess, "p-1").Poll(context.Background(), "job-1", fast)
		assert.ErrorIs(t, err, xe.ErrNotFound)
		assert.Equal(t, uint(1), sess.Calls.Get.Times())
	})
}

func TestState(t *testing.T) {
	for status, want := range map[string]types.State{
		"Success":   types.StateSucceeded,
		"SUCCESS":   types.StateSucceeded,
		"Failure":   types.StateFailed,
		"FAILURE":   types.StateFailed,
		"Running":   types.StateInProgress,
		"Submitted": types.StateInProgress,
		"":          types.StateInProgress,
	} {
		t.Run(status, func(t *testing.T) {
			got := types.Status{Status: status}.State()
			assert.Equal(t, want, got)
			assert.Equal(t, want != types.StateInProgress, got.Terminal())
		})
	}
}
