// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides composable, typed readers for configuration values.
//
// A [Reader] produces a [Value] which may or may not be set. Readers are
// combined with helpers like [Default], [Or] and the conversion readers
// such as [Int64FromString] to describe where a value comes from.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ErrValueNotSet is returned by [Read] when the [Reader] produced no value.
var ErrValueNotSet = errors.New("config: value not set")

// Value is the result of reading a configuration value.
type Value[T any] struct {
	v   T
	set bool
}

// ValueOf returns a [Value] which is set to v.
func ValueOf[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// Value returns the underlying value and whether it was set.
func (v Value[T]) Value() (T, bool) {
	return v.v, v.set
}

// Reader reads a configuration value.
type Reader[T any] interface {
	Read(context.Context) (Value[T], error)
}

// ReaderFunc is a func which implements the [Reader] interface.
type ReaderFunc[T any] func(context.Context) (Value[T], error)

// Read implements the [Reader] interface.
func (f ReaderFunc[T]) Read(ctx context.Context) (Value[T], error) {
	return f(ctx)
}

// Read reads the value from r. It returns [ErrValueNotSet] if r did not
// produce a value.
func Read[T any](ctx context.Context, r Reader[T]) (T, error) {
	val, err := r.Read(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	v, ok := val.Value()
	if !ok {
		return v, ErrValueNotSet
	}
	return v, nil
}

// Must is like [Read] but panics on error.
func Must[T any](ctx context.Context, r Reader[T]) T {
	v, err := Read(ctx, r)
	if err != nil {
		panic(fmt.Errorf("config: failed to read required value: %w", err))
	}
	return v
}

// MustOr returns def when r fails or does not produce a value.
func MustOr[T any](ctx context.Context, def T, r Reader[T]) T {
	v, err := Read(ctx, r)
	if err != nil {
		return def
	}
	return v
}

// Or returns the first set value from the given readers. An error from any
// reader is returned immediately.
func Or[T any](readers ...Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		for _, r := range readers {
			val, err := r.Read(ctx)
			if err != nil {
				return Value[T]{}, err
			}
			if _, ok := val.Value(); ok {
				return val, nil
			}
		}
		return Value[T]{}, nil
	})
}

// Default falls back to def when r does not produce a value.
func Default[T any](def T, r Reader[T]) Reader[T] {
	return Or(r, ReaderOf(def))
}

// EmptyReader never produces a value.
func EmptyReader[T any]() Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return Value[T]{}, nil
	})
}

// ReaderOf always produces v.
func ReaderOf[T any](v T) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return ValueOf(v), nil
	})
}

// Env reads the environment variable with the given name. An unset variable
// produces no value, while an empty one is still set.
func Env(name string) Reader[string] {
	return ReaderFunc[string](func(ctx context.Context) (Value[string], error) {
		v, ok := os.LookupEnv(name)
		if !ok {
			return Value[string]{}, nil
		}
		return ValueOf(v), nil
	})
}

// Map converts the value produced by r with f. Unset values are passed
// through without calling f.
func Map[A, B any](r Reader[A], f func(A) (B, error)) Reader[B] {
	return ReaderFunc[B](func(ctx context.Context) (Value[B], error) {
		val, err := r.Read(ctx)
		if err != nil {
			return Value[B]{}, err
		}
		a, ok := val.Value()
		if !ok {
			return Value[B]{}, nil
		}
		b, err := f(a)
		if err != nil {
			return Value[B]{}, err
		}
		return ValueOf(b), nil
	})
}

// File reads the contents of the named file. A file which does not exist
// produces no value.
func File(name string) Reader[io.Reader] {
	return ReaderFunc[io.Reader](func(ctx context.Context) (Value[io.Reader], error) {
		b, err := os.ReadFile(name)
		if errors.Is(err, fs.ErrNotExist) {
			return Value[io.Reader]{}, nil
		}
		if err != nil {
			return Value[io.Reader]{}, fmt.Errorf("config: failed to read %s: %w", name, err)
		}
		return ValueOf[io.Reader](bytes.NewReader(b)), nil
	})
}
