// Package jobs waits for asynchronous jobs on the platform.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	types "github.com/opst/gemdclient/pkg/api/types/jobs"
	xe "github.com/opst/gemdclient/pkg/errors"
	"github.com/opst/gemdclient/pkg/logger"
	"github.com/opst/gemdclient/pkg/session"
	"github.com/opst/gemdclient/pkg/utils/retry"
)

const (
	DefaultTimeout = 2 * time.Minute
	DefaultDelay   = time.Second
)

// PollOptions controls Poll.
type PollOptions struct {
	// Timeout bounds the whole polling. Zero means DefaultTimeout.
	Timeout time.Duration

	// Delay is the interval between status requests. Zero means DefaultDelay.
	Delay time.Duration

	// Backoff multiplies Delay after each request when it is greater than 1.
	// Otherwise the interval is fixed.
	Backoff float64

	// MaxDelay caps the interval grown by Backoff. Zero means no cap.
	MaxDelay time.Duration
}

func (o PollOptions) withDefaults() PollOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	return o
}

// Poller reads job statuses of a project.
type Poller struct {
	session session.Session
	project string
	log     logger.Logger
}

type Option func(*Poller) *Poller

func WithLogger(l logger.Logger) Option {
	return func(p *Poller) *Poller {
		p.log = l
		return p
	}
}

func New(sess session.Session, projectID string, opts ...Option) *Poller {
	p := &Poller{session: sess, project: projectID, log: logger.Null()}
	for _, opt := range opts {
		p = opt(p)
	}
	return p
}

func (p *Poller) path() string {
	return "projects/" + url.PathEscape(p.project) + "/execution/job-status"
}

// Status reads the current status of a job once.
func (p *Poller) Status(ctx context.Context, jobID string) (types.Status, error) {
	raw, err := p.session.Get(ctx, p.path(), url.Values{"job_id": {jobID}})
	if err != nil {
		return types.Status{}, err
	}
	st := types.Status{}
	if err := json.Unmarshal(raw, &st); err != nil {
		return types.Status{}, fmt.Errorf("%w: status of job %s: %w", xe.ErrInvalidShape, jobID, err)
	}
	return st, nil
}

// Poll waits for a job to finish.
//
// # Returns
//
// - types.Status: the final status, when the job succeeded.
//
// - error: *errors.JobFailure when the job failed,
// *errors.JobTimeout when it does not finish within Timeout,
// or ctx.Err() when ctx is done. Errors reading the status stop polling.
func (p *Poller) Poll(ctx context.Context, jobID string, opts PollOptions) (types.Status, error) {
	opts = opts.withDefaults()

	tctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var last types.Status
	var observed bool
	var stop error
	condition := func(ctx context.Context) (bool, error) {
		st, err := p.Status(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			stop = err
			return false, err
		}
		last, observed = st, true
		p.log.Debugf("job %s: %s", jobID, st.Status)

		switch st.State() {
		case types.StateSucceeded:
			return true, nil
		case types.StateFailed:
			stop = &xe.JobFailure{JobID: jobID, Reasons: st.FailureReasons()}
			return false, stop
		default:
			return false, nil
		}
	}

	var err error
	if 1 < opts.Backoff {
		err = pollWithBackoff(tctx, retry.ExponentialBackoff(opts.Delay, opts.Backoff, opts.MaxDelay), condition)
	} else {
		err = wait.PollUntilContextCancel(tctx, opts.Delay, true, condition)
	}

	switch {
	case stop != nil:
		return last, stop
	case err == nil:
		return last, nil
	case ctx.Err() != nil:
		return last, ctx.Err()
	case tctx.Err() != nil:
		timeout := &xe.JobTimeout{JobID: jobID}
		if observed {
			timeout.LastStatus = last.Status
		}
		p.log.Warnf("job %s: not finished in %s", jobID, opts.Timeout)
		return last, timeout
	default:
		return last, err
	}
}

func pollWithBackoff(ctx context.Context, b retry.Backoff, condition wait.ConditionWithContextFunc) error {
	for {
		done, err := condition(ctx)
		if err != nil || done {
			return err
		}
		if err := b(ctx); err != nil {
			return err
		}
	}
}
