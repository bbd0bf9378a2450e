// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// FromEnv parses the process environment into a T using `env` struct tags.
// Every variable name is looked up with the given prefix prepended.
func FromEnv[T any](prefix string) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		v, err := env.ParseAsWithOptions[T](env.Options{
			Prefix: prefix,
		})
		if err != nil {
			return Value[T]{}, fmt.Errorf("config: failed to parse environment: %w", err)
		}
		return ValueOf(v), nil
	})
}

// LoadDotEnv loads the given .env files into the process environment
// without overriding variables which are already set. Files which do
// not exist are skipped.
func LoadDotEnv(filenames ...string) error {
	for _, name := range filenames {
		err := godotenv.Load(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("config: failed to load %s: %w", name, err)
		}
	}
	return nil
}
