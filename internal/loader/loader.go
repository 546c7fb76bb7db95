// Package loader models the request state of a data-fetching view.
//
// Every list and detail page resolves its data through Load, which runs the
// fetch exactly once and reports the outcome as a State. Pages render by
// switching on the state instead of juggling separate loading, error and
// data variables.
package loader

import (
	"context"
)

type State int

const (
	Idle State = iota
	Loading
	Success
	Empty
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Empty:
		return "empty"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one fetch.
type Result[T any] struct {
	State State
	Data  T
	Err   error
}

func (r Result[T]) Ok() bool {
	return r.State == Success || r.State == Empty
}

func (r Result[T]) Failed() bool {
	return r.State == Failed
}

func (r Result[T]) IsEmpty() bool {
	return r.State == Empty
}

// Partial reports a fetch that returned data along with an error. The data is
// usable; Err says what is missing.
func (r Result[T]) Partial() bool {
	return r.State == Success && r.Err != nil
}

// Load runs fetch and classifies the outcome. isEmpty may be nil, in which
// case a successful fetch is always Success.
func Load[T any](ctx context.Context, fetch func(context.Context) (T, error), isEmpty func(T) bool) Result[T] {
	if err := ctx.Err(); err != nil {
		return Result[T]{State: Failed, Err: err}
	}

	data, err := fetch(ctx)
	if err != nil {
		var zero T
		return Result[T]{State: Failed, Data: zero, Err: err}
	}
	if isEmpty != nil && isEmpty(data) {
		return Result[T]{State: Empty, Data: data}
	}
	return Result[T]{State: Success, Data: data}
}

// Collection loads a slice. A failed fetch always yields a non-nil, empty
// slice so callers can range over Data unconditionally. A fetch that returns
// items together with an error is a partial Success that keeps both.
func Collection[T any](ctx context.Context, fetch func(context.Context) ([]T, error)) Result[[]T] {
	var partial []T
	result := Load(ctx, func(ctx context.Context) ([]T, error) {
		items, err := fetch(ctx)
		if err != nil && len(items) > 0 {
			partial = items
		}
		return items, err
	}, func(items []T) bool { return len(items) == 0 })
	if partial != nil {
		result = Result[[]T]{State: Success, Data: partial, Err: result.Err}
	}
	if result.Data == nil {
		result.Data = []T{}
	}
	return result
}
