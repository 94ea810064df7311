package dataconcepts

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"

	apierr "github.com/opst/gemdclient/pkg/api/types/errors"
	"github.com/opst/gemdclient/pkg/api/types/gemd"
	jobtypes "github.com/opst/gemdclient/pkg/api/types/jobs"
	xe "github.com/opst/gemdclient/pkg/errors"
	"github.com/opst/gemdclient/pkg/jobs"
	"github.com/opst/gemdclient/pkg/session"
)

// BatchDeleteSize is the max number of objects deleted with one request.
const BatchDeleteSize = 50

// Delete removes an object.
//
// ref is anything gemd.ToLink accepts.
func (c *Collection[T]) Delete(ctx context.Context, ref any, dryRun bool) error {
	link, err := gemd.ToLink(ref, gemd.CanonicalScope)
	if err != nil {
		return err
	}
	path, err := c.base.Path()
	if err != nil {
		return err
	}
	_, err = c.session.Delete(ctx, linkPath(path, link), dryRunParam(dryRun))
	return err
}

// DeletionFailure is an object which could not be deleted.
type DeletionFailure struct {
	Link  gemd.Link
	Cause apierr.ApiError
}

func (f DeletionFailure) String() string {
	return fmt.Sprintf("%s: %s", f.Link, f.Cause)
}

type deletionFailure struct {
	ID struct {
		Scope string `json:"scope"`
		ID    string `json:"id"`
	} `json:"id"`
	Cause apierr.ApiError `json:"cause"`
}

// decodeFailures reads {"failures": [...]} or a bare array of failures.
func decodeFailures(raw []byte) ([]DeletionFailure, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []DeletionFailure{}, nil
	}

	list := []deletionFailure{}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: deletion failures: %w", xe.ErrInvalidShape, err)
		}
	} else {
		payload := struct {
			Failures []deletionFailure `json:"failures"`
		}{}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("%w: deletion failures: %w", xe.ErrInvalidShape, err)
		}
		list = payload.Failures
	}

	ret := make([]DeletionFailure, 0, len(list))
	for _, f := range list {
		ret = append(ret, DeletionFailure{Link: gemd.NewLink(f.ID.Scope, f.ID.ID), Cause: f.Cause})
	}
	return ret, nil
}

type deletionRequest struct {
	IDs       []gemd.Link `json:"ids"`
	DatasetID string      `json:"dataset_id,omitempty"`
}

func toLinks(refs []any) ([]gemd.Link, error) {
	links := make([]gemd.Link, 0, len(refs))
	for _, r := range refs {
		l, err := gemd.ToLink(r, gemd.CanonicalScope)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, nil
}

// deletionOrder sorts objects so that referring objects come before referred ones:
// runs, then specs, then templates.
//
// It needs objects themselves, since a link does not tell its kind.
func deletionOrder(refs []any) ([]any, error) {
	type ranked struct {
		ref  any
		rank int
	}
	rs := make([]ranked, 0, len(refs))
	for _, r := range refs {
		res, ok := r.(gemd.Resource)
		if !ok {
			return nil, fmt.Errorf(
				"%w: deleting more than %d objects needs objects, not %T",
				xe.ErrUnsupportedReference, BatchDeleteSize, r,
			)
		}
		rank, ok := writeRank(res.TypeTag())
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a data-concepts object", xe.ErrUnsupportedReference, res.TypeTag())
		}
		rs = append(rs, ranked{ref: r, rank: rank})
	}
	slices.SortStableFunc(rs, func(a, b ranked) int { return cmp.Compare(b.rank, a.rank) })

	ret := make([]any, len(rs))
	for i := range rs {
		ret[i] = rs[i].ref
	}
	return ret, nil
}

// BatchDelete removes objects of any kinds in the project.
//
// Objects are sent in batches of BatchDeleteSize. An object which is referred
// from others is not deleted, and reported as a DeletionFailure.
// datasetID is sent when it is not empty.
//
// When refs has more than BatchDeleteSize elements, they should be gemd.Resource
// (errors.ErrUnsupportedReference otherwise). They are deleted from runs to templates,
// so that references across batches do not block deletions.
// For more objects in one go, use AsyncBatchDelete.
func BatchDelete(ctx context.Context, sess session.Session, projectID, datasetID string, refs []any) ([]DeletionFailure, error) {
	if BatchDeleteSize < len(refs) {
		sorted, err := deletionOrder(refs)
		if err != nil {
			return nil, err
		}
		refs = sorted
	}
	links, err := toLinks(refs)
	if err != nil {
		return nil, err
	}

	path := "projects/" + url.PathEscape(projectID) + "/gemd/batch-delete"
	failures := []DeletionFailure{}
	for from := 0; from < len(links); from += BatchDeleteSize {
		to := min(from+BatchDeleteSize, len(links))
		raw, err := sess.Post(ctx, path, deletionRequest{IDs: links[from:to], DatasetID: datasetID}, nil)
		if err != nil {
			return failures, err
		}
		fs, err := decodeFailures(raw)
		if err != nil {
			return failures, err
		}
		failures = append(failures, fs...)
	}
	return failures, nil
}

// AsyncBatchDelete is BatchDelete with an asynchronous job.
//
// All objects are sent in one request, and the platform orders deletions.
// Failures are read from the "failures" output of the job.
func AsyncBatchDelete(ctx context.Context, sess session.Session, projectID, datasetID string, refs []any, opts jobs.PollOptions) ([]DeletionFailure, error) {
	links, err := toLinks(refs)
	if err != nil {
		return nil, err
	}

	path := "projects/" + url.PathEscape(projectID) + "/gemd/async-batch-delete"
	raw, err := sess.Post(ctx, path, deletionRequest{IDs: links, DatasetID: datasetID}, nil)
	if err != nil {
		return nil, err
	}
	sub := jobtypes.Submission{}
	if err := json.Unmarshal(raw, &sub); err != nil || sub.JobID == "" {
		return nil, fmt.Errorf("%w: batch deletion returned no job_id", xe.ErrInvalidShape)
	}

	st, err := jobs.New(sess, projectID).Poll(ctx, sub.JobID, opts)
	if err != nil {
		return nil, err
	}
	return decodeFailures([]byte(st.Output["failures"]))
}

// BatchDelete removes objects with BatchDelete in the project and dataset of the collection.
func (c *Collection[T]) BatchDelete(ctx context.Context, refs []any) ([]DeletionFailure, error) {
	return BatchDelete(ctx, c.session, c.project, c.dataset, refs)
}

// AsyncBatchDelete removes objects with AsyncBatchDelete in the project and dataset of the collection.
func (c *Collection[T]) AsyncBatchDelete(ctx context.Context, refs []any, opts jobs.PollOptions) ([]DeletionFailure, error) {
	return AsyncBatchDelete(ctx, c.session, c.project, c.dataset, refs, opts)
}
