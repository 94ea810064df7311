// Package session is the transport to the platform.
//
// Session is the capability collections depend on. Client implements it over HTTP.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	xe "github.com/opst/gemdclient/pkg/errors"
	"github.com/opst/gemdclient/pkg/utils/stream"
)

// Session issues requests to the platform.
//
// Paths are relative to the api root, like "projects/{id}/material-runs".
// Responses are returned as raw JSON; an empty body is nil.
//
// Errors for non-2xx responses are *errors.HTTPError, matching sentinels
// (errors.ErrNotFound, errors.ErrBadRequest, ...) with errors.Is.
type Session interface {
	Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any, params url.Values) (json.RawMessage, error)
	Put(ctx context.Context, path string, body any, params url.Values) (json.RawMessage, error)
	Delete(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
}

const DefaultCursorPerPage = 100

type CursorOptions struct {
	// PerPage is the size of a page. Zero means DefaultCursorPerPage.
	PerPage int

	// Backward traverses from the end.
	Backward bool

	// Params are sent with every request, in addition to paging parameters.
	Params url.Values
}

type cursorPage struct {
	Contents []json.RawMessage `json:"contents"`
	Next     *string           `json:"next"`
}

// CursorPaged lists records of a cursor-paginated resource lazily.
//
// Each page is requested with "per_page", "forward", "ascending" and, after the first page,
// "cursor" set to the "next" token of the previous page, which is forwarded as is.
// It stops when a page has no "next" or an empty one.
func CursorPaged(ctx context.Context, s Session, path string, opts CursorOptions) *stream.Iterator[json.RawMessage] {
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = DefaultCursorPerPage
	}
	forward := strconv.FormatBool(!opts.Backward)

	var buffer []json.RawMessage
	var cursor *string
	started := false

	return stream.New(ctx, func(ctx context.Context, _ *stream.Diagnostics) (json.RawMessage, bool, error) {
		for len(buffer) == 0 {
			if started && (cursor == nil || *cursor == "") {
				return nil, false, nil
			}

			params := url.Values{}
			for k, v := range opts.Params {
				params[k] = append([]string(nil), v...)
			}
			params.Set("per_page", strconv.Itoa(perPage))
			params.Set("forward", forward)
			params.Set("ascending", forward)
			if started {
				params.Set("cursor", *cursor)
			}

			raw, err := s.Get(ctx, path, params)
			if err != nil {
				return nil, false, err
			}
			page := cursorPage{}
			if err := json.Unmarshal(raw, &page); err != nil {
				return nil, false, fmt.Errorf("%w: cursor page of %s: %w", xe.ErrInvalidShape, path, err)
			}
			started = true
			buffer = page.Contents
			cursor = page.Next
		}

		head := buffer[0]
		buffer = buffer[1:]
		return head, true, nil
	})
}
