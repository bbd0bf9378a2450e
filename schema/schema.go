// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package schema provides runtime checkable descriptions of the values a
// route accepts and returns.
//
// A [Schema] parses a loosely typed decoded value, e.g. the result of
// decoding a JSON body into an interface value, into a concrete Go type,
// rejecting values which do not conform.
package schema

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
)

// Schema validates and converts a decoded value into T.
type Schema[T any] interface {
	Parse(ctx context.Context, v any) (T, error)
}

// SelfChecker is implemented by schemas which can report whether they are
// themselves well formed.
type SelfChecker interface {
	Validate(ctx context.Context) error
}

// Func is an adapter to allow the use of ordinary functions as [Schema]s.
type Func[T any] func(context.Context, any) (T, error)

// Parse implements the [Schema] interface.
func (f Func[T]) Parse(ctx context.Context, v any) (T, error) {
	return f(ctx, v)
}

// ErrInputNotExpected is returned by [Void] when a value is present.
var ErrInputNotExpected = errors.New("schema: no input expected but a value was provided")

// VoidSchema is the schema of a route which takes no input.
type VoidSchema struct{}

// Void returns the schema of a route which takes no input. Only an absent
// (nil) value is accepted.
func Void() VoidSchema {
	return VoidSchema{}
}

// Parse implements the [Schema] interface.
func (VoidSchema) Parse(_ context.Context, v any) (struct{}, error) {
	if v != nil {
		return struct{}{}, ErrInputNotExpected
	}
	return struct{}{}, nil
}

// IsVoid reports whether s is the no input schema.
func IsVoid(s any) bool {
	_, ok := s.(VoidSchema)
	if ok {
		return true
	}
	_, ok = s.(*VoidSchema)
	return ok
}

// Convert converts a decoded value into T. Values already of type T are
// returned as is, nil yields the zero value and anything else is converted
// through its JSON form.
func Convert[T any](v any) (T, error) {
	var t T
	if v == nil {
		return t, nil
	}
	if x, ok := v.(T); ok {
		return x, nil
	}

	b, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return t, err
	}
	err = sonic.ConfigStd.Unmarshal(b, &t)
	return t, err
}
