// Package mock provides a programmable session.Session.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"

	"github.com/opst/gemdclient/pkg/session"
)

type CallLog[T any] []T

func (l CallLog[T]) Times() uint {
	return uint(len(l))
}

type Request struct {
	Path   string
	Body   any
	Params url.Values
}

// Session records requests and answers them with Impl.
//
// Calling a method without its Impl panics.
type Session struct {
	Impl struct {
		Get    func(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
		Post   func(ctx context.Context, path string, body any, params url.Values) (json.RawMessage, error)
		Put    func(ctx context.Context, path string, body any, params url.Values) (json.RawMessage, error)
		Delete func(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
	}
	Calls struct {
		Get    CallLog[Request]
		Post   CallLog[Request]
		Put    CallLog[Request]
		Delete CallLog[Request]
	}

	mu sync.Mutex
}

var _ session.Session = &Session{}

func New() *Session {
	return &Session{}
}

func (s *Session) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	s.mu.Lock()
	s.Calls.Get = append(s.Calls.Get, Request{Path: path, Params: params})
	s.mu.Unlock()
	if s.Impl.Get != nil {
		return s.Impl.Get(ctx, path, params)
	}
	panic(errors.New("it should not be called"))
}

func (s *Session) Post(ctx context.Context, path string, body any, params url.Values) (json.RawMessage, error) {
	s.mu.Lock()
	s.Calls.Post = append(s.Calls.Post, Request{Path: path, Body: body, Params: params})
	s.mu.Unlock()
	if s.Impl.Post != nil {
		return s.Impl.Post(ctx, path, body, params)
	}
	panic(errors.New("it should not be called"))
}

func (s *Session) Put(ctx context.Context, path string, body any, params url.Values) (json.RawMessage, error) {
	s.mu.Lock()
	s.Calls.Put = append(s.Calls.Put, Request{Path: path, Body: body, Params: params})
	s.mu.Unlock()
	if s.Impl.Put != nil {
		return s.Impl.Put(ctx, path, body, params)
	}
	panic(errors.New("it should not be called"))
}

func (s *Session) Delete(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	s.mu.Lock()
	s.Calls.Delete = append(s.Calls.Delete, Request{Path: path, Params: params})
	s.mu.Unlock()
	if s.Impl.Delete != nil {
		return s.Impl.Delete(ctx, path, params)
	}
	panic(errors.New("it should not be called"))
}

// JSON marshals v, or panics.
func JSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
