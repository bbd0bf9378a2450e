// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ParseError is returned when a string value can not be converted.
type ParseError struct {
	Value string
	Type  string
	Cause error
}

// Error implements the [error] interface.
func (e ParseError) Error() string {
	return fmt.Sprintf("config: failed to parse %q as %s: %s", e.Value, e.Type, e.Cause)
}

// Unwrap returns the underlying parse error.
func (e ParseError) Unwrap() error {
	return e.Cause
}

// BoolFromString parses the string produced by r with [strconv.ParseBool].
func BoolFromString(r Reader[string]) Reader[bool] {
	return Map(r, func(s string) (bool, error) {
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return false, ParseError{Value: s, Type: "bool", Cause: err}
		}
		return b, nil
	})
}

// Int64FromString parses the string produced by r as a base 10 integer.
func Int64FromString(r Reader[string]) Reader[int64] {
	return Map(r, func(s string) (int64, error) {
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, ParseError{Value: s, Type: "int64", Cause: err}
		}
		return i, nil
	})
}

// IntFromString parses the string produced by r as a base 10 int.
func IntFromString(r Reader[string]) Reader[int] {
	return Map(r, func(s string) (int, error) {
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, ParseError{Value: s, Type: "int", Cause: err}
		}
		return i, nil
	})
}

// DurationFromString parses the string produced by r with [time.ParseDuration].
func DurationFromString(r Reader[string]) Reader[time.Duration] {
	return Map(r, func(s string) (time.Duration, error) {
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return 0, ParseError{Value: s, Type: "duration", Cause: err}
		}
		return d, nil
	})
}

// Int64FromBytes reads exactly 8 bytes from the [io.Reader] produced by r
// and decodes them with the given byte order.
func Int64FromBytes[R io.Reader](order binary.ByteOrder, r Reader[R]) Reader[int64] {
	return Map(r, func(src R) (int64, error) {
		var i int64
		err := binary.Read(src, order, &i)
		if err != nil {
			return 0, fmt.Errorf("config: failed to read int64: %w", err)
		}
		return i, nil
	})
}
