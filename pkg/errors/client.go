package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrBadRequest: the server rejected the payload (HTTP 400).
	//
	// For data-concepts updates this also means "needs deep validation".
	ErrBadRequest = errors.New("bad request")

	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTooManyRequests = errors.New("too many requests")
	ErrServer          = errors.New("server error")

	// ErrNoDataset is returned by dataset-scoped writes on a collection
	// without dataset. It is always returned before any request is sent.
	ErrNoDataset = errors.New("no dataset is bound to the collection")

	// ErrNoIdentifiers: a resource without any uid was used where a link is required.
	ErrNoIdentifiers = errors.New("resource has no identifiers")

	// ErrUnsupportedReference: a value which can not be converted to a link.
	ErrUnsupportedReference = errors.New("unsupported reference")

	// ErrNotSupported: the operation is not provided by the collection.
	ErrNotSupported = errors.New("operation not supported")

	// ErrInvalidShape: the payload does not have the expected shape.
	ErrInvalidShape = errors.New("invalid shape")
)

// HTTPError is a non-2xx response.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int

	// Reason is the server message, if any.
	Reason string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is makes an HTTPError match the sentinel for its status code.
func (e *HTTPError) Is(target error) bool {
	return target != nil && target == sentinelFor(e.StatusCode)
}

func sentinelFor(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrTooManyRequests
	}
	if 500 <= code && code < 600 {
		return ErrServer
	}
	return nil
}

// IsRetryable tells whether err is a transient failure.
//
// HTTP errors are retryable when they are 429 or 5xx.
// Errors which are not HTTP errors at all (network failures) are retryable too,
// unless they are context errors or one of the client-side failures defined in this package.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode == http.StatusTooManyRequests || 500 <= herr.StatusCode
	}
	for _, fatal := range []error{
		context.Canceled, context.DeadlineExceeded,
		ErrNoDataset, ErrNoIdentifiers, ErrUnsupportedReference,
		ErrNotSupported, ErrInvalidShape,
	} {
		if errors.Is(err, fatal) {
			return false
		}
	}
	var ut *UnrecognizedType
	return !errors.As(err, &ut)
}

// UnrecognizedType is returned when a payload has no "type" or an unknown one.
type UnrecognizedType struct {
	// Tag is the value of "type". Empty when it is missing.
	Tag string
}

func (e *UnrecognizedType) Error() string {
	if e.Tag == "" {
		return `unrecognized type: "type" is missing`
	}
	return fmt.Sprintf("unrecognized type: %q", e.Tag)
}

// Unwrap makes UnrecognizedType a kind of ErrInvalidShape.
func (e *UnrecognizedType) Unwrap() error {
	return ErrInvalidShape
}

// RegistrationFailed is a non-retryable rejection of a write.
type RegistrationFailed struct {
	// Kind is the resource type being registered.
	Kind  string
	Cause error
}

func (e *RegistrationFailed) Error() string {
	return fmt.Sprintf("failed to register %s: %s", e.Kind, e.Cause)
}

func (e *RegistrationFailed) Unwrap() error {
	return e.Cause
}

// JobFailure: an asynchronous job ended in failure.
type JobFailure struct {
	JobID   string
	Reasons []string
}

func (e *JobFailure) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("job %s failed", e.JobID)
	}
	return fmt.Sprintf("job %s failed: %s", e.JobID, strings.Join(e.Reasons, "; "))
}

// JobTimeout: a job did not reach a terminal state in time.
//
// It is never a JobFailure; the job may still complete on the server.
type JobTimeout struct {
	JobID string
	// LastStatus is the status observed last. Empty when no status has been read.
	LastStatus string
}

func (e *JobTimeout) Error() string {
	return fmt.Sprintf("job %s did not finish in time (last status: %q)", e.JobID, e.LastStatus)
}
