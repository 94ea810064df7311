// Package errors provides the error vocabulary of gemdclient.
//
// It has two parts.
//
// Caller-annotated wrappers: Wrap and WrapWithNote return an error which
// records the file, line and function where it was wrapped.
// Reading such a message, replace
//
//	s/<-/\n/
//
// and it gives you the "stack" of the places which marked it.
//
// Typed failures: sentinels (ErrNotFound, ErrBadRequest, ...) and structured
// errors (*HTTPError, *UnrecognizedType, *RegistrationFailed, *JobFailure,
// *JobTimeout). Test them with errors.Is / errors.As of the standard library.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

type ErrWithCaller struct {
	file     string
	line     int
	funcname string
	note     string
	err      error
}

func (e *ErrWithCaller) File() string {
	return e.file
}

func (e *ErrWithCaller) Line() int {
	return e.line
}

func (e *ErrWithCaller) Error() string {
	if e.note == "" {
		return fmt.Sprintf(`@ %s "%s" l%d <- %s`, e.funcname, e.file, e.line, e.err.Error())
	}
	return fmt.Sprintf(`@ %s "%s" l%d (%s) <- %s`, e.funcname, e.file, e.line, e.note, e.err.Error())
}

func (e *ErrWithCaller) Unwrap() error {
	return e.err
}

// New creates an error with message and marks the caller.
func New(text string) error {
	return wrap("", errors.New(text), 1)
}

// Wrap marks err with the caller.
//
// Wrap(nil) is nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return wrap("", err, 1)
}

// WrapWithNote marks err with the caller and a short note.
//
// WrapWithNote(_, nil) is nil.
func WrapWithNote(note string, err error) error {
	if err == nil {
		return nil
	}
	return wrap(note, err, 1)
}

func wrap(note string, err error, depth int) error {
	pc, file, line, ok := runtime.Caller(depth + 1)
	funcname := "(unknown func)"
	if !ok {
		file = "?"
		line = -1
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcname = fn.Name()
	}

	return &ErrWithCaller{
		funcname: funcname,
		file:     file,
		line:     line,
		note:     note,
		err:      err,
	}
}

// Is, As, Join and Unwrap are re-exported so that callers need only one errors import.
var (
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
	Unwrap = errors.Unwrap
)
