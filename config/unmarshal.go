// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

// UnmarshalJSON decodes the JSON read from the [io.Reader] produced by r into a T.
func UnmarshalJSON[T any, R io.Reader](r Reader[R]) Reader[T] {
	return unmarshal[T](r, "json", sonic.Unmarshal)
}

// UnmarshalYAML decodes the YAML read from the [io.Reader] produced by r into a T.
func UnmarshalYAML[T any, R io.Reader](r Reader[R]) Reader[T] {
	return unmarshal[T](r, "yaml", yaml.Unmarshal)
}

func unmarshal[T any, R io.Reader](r Reader[R], format string, f func([]byte, any) error) Reader[T] {
	return Map(r, func(src R) (T, error) {
		var v T
		b, err := io.ReadAll(src)
		if err != nil {
			return v, fmt.Errorf("config: failed to read %s: %w", format, err)
		}
		err = f(b, &v)
		if err != nil {
			return v, fmt.Errorf("config: failed to unmarshal %s: %w", format, err)
		}
		return v, nil
	})
}
