package services

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNetwork covers transport failures and non-2xx responses
	ErrNetwork = errors.New("network failure")
	// ErrDecode covers malformed or unexpected response bodies
	ErrDecode = errors.New("decode failure")
	// ErrEmptyInput marks a short-circuited call. It is not reported as a failure.
	ErrEmptyInput = errors.New("empty input")
)

// FailureKind classifies why a fetch did not produce a value
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNetwork
	FailureDecode
	FailureEmptyInput
	FailureUnknown
)

// String returns the label used in logs and metrics
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "ok"
	case FailureNetwork:
		return "network"
	case FailureDecode:
		return "decode"
	case FailureEmptyInput:
		return "empty_input"
	default:
		return "unknown"
	}
}

// KindOf maps an error onto the failure taxonomy
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrEmptyInput):
		return FailureEmptyInput
	case errors.Is(err, ErrDecode):
		return FailureDecode
	case errors.Is(err, ErrNetwork), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return FailureNetwork
	default:
		return FailureUnknown
	}
}

// FetchResult is either a value or a classified failure
type FetchResult[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value
func Ok[T any](v T) FetchResult[T] {
	return FetchResult[T]{value: v}
}

// Failed wraps an error. A nil error is treated as an unknown failure.
func Failed[T any](err error) FetchResult[T] {
	if err == nil {
		err = errors.New("fetch failed without an error")
	}
	return FetchResult[T]{err: err}
}

func (r FetchResult[T]) IsOk() bool { return r.err == nil }

func (r FetchResult[T]) Err() error { return r.err }

func (r FetchResult[T]) Kind() FailureKind { return KindOf(r.err) }

// Value returns the wrapped value and reports whether the fetch succeeded
func (r FetchResult[T]) Value() (T, bool) {
	return r.value, r.err == nil
}

// OrElse returns the value on success and fallback otherwise
func (r FetchResult[T]) OrElse(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// fetch runs fn and folds its outcome into a FetchResult. Panics are reported as failures.
func fetch[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (res FetchResult[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = Failed[T](fmt.Errorf("fetch panicked: %v", p))
		}
	}()

	if err := ctx.Err(); err != nil {
		return Failed[T](fmt.Errorf("%w: %w", ErrNetwork, err))
	}

	v, err := fn(ctx)
	if err != nil {
		return Failed[T](err)
	}
	return Ok(v)
}
