// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Run("will return ErrValueNotSet", func(t *testing.T) {
		t.Run("if the reader produces no value", func(t *testing.T) {
			_, err := Read(context.Background(), EmptyReader[string]())

			require.ErrorIs(t, err, ErrValueNotSet)
		})

		t.Run("if the environment variable is unset", func(t *testing.T) {
			_, err := Read(context.Background(), Env("TYPEDAPI_CONFIG_TEST_UNSET"))

			require.ErrorIs(t, err, ErrValueNotSet)
		})
	})

	t.Run("will return the reader error", func(t *testing.T) {
		readErr := errors.New("failed")
		r := ReaderFunc[int](func(ctx context.Context) (Value[int], error) {
			return Value[int]{}, readErr
		})

		_, err := Read(context.Background(), r)

		require.ErrorIs(t, err, readErr)
	})

	t.Run("will treat an empty environment variable as set", func(t *testing.T) {
		t.Setenv("TYPEDAPI_CONFIG_TEST_EMPTY", "")

		v, err := Read(context.Background(), Default("fallback", Env("TYPEDAPI_CONFIG_TEST_EMPTY")))

		require.NoError(t, err)
		assert.Equal(t, "", v)
	})
}

func TestMust(t *testing.T) {
	t.Run("will panic", func(t *testing.T) {
		t.Run("if the value is not set", func(t *testing.T) {
			assert.Panics(t, func() {
				Must(context.Background(), EmptyReader[int]())
			})
		})
	})

	t.Run("will return the value", func(t *testing.T) {
		v := Must(context.Background(), ReaderOf("hello"))

		assert.Equal(t, "hello", v)
	})
}

func TestMustOr(t *testing.T) {
	t.Run("will return the default", func(t *testing.T) {
		t.Run("if the value fails to parse", func(t *testing.T) {
			t.Setenv("TYPEDAPI_CONFIG_TEST_INT", "not a number")

			v := MustOr(context.Background(), 5, Int64FromString(Env("TYPEDAPI_CONFIG_TEST_INT")))

			assert.Equal(t, int64(5), v)
		})
	})
}

func TestOr(t *testing.T) {
	t.Run("will return the first set value", func(t *testing.T) {
		r := Or(EmptyReader[string](), ReaderOf("second"), ReaderOf("third"))

		v, err := Read(context.Background(), r)

		require.NoError(t, err)
		assert.Equal(t, "second", v)
	})

	t.Run("will stop at the first error", func(t *testing.T) {
		readErr := errors.New("failed")
		r := Or(
			ReaderFunc[string](func(ctx context.Context) (Value[string], error) {
				return Value[string]{}, readErr
			}),
			ReaderOf("second"),
		)

		_, err := Read(context.Background(), r)

		require.ErrorIs(t, err, readErr)
	})
}

func TestFromString(t *testing.T) {
	t.Run("will parse a bool", func(t *testing.T) {
		v, err := Read(context.Background(), BoolFromString(ReaderOf(" true ")))

		require.NoError(t, err)
		assert.True(t, v)
	})

	t.Run("will parse a duration", func(t *testing.T) {
		v, err := Read(context.Background(), DurationFromString(ReaderOf("1m30s")))

		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, v)
	})

	t.Run("will return a ParseError", func(t *testing.T) {
		_, err := Read(context.Background(), BoolFromString(ReaderOf("maybe")))

		var perr ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "maybe", perr.Value)
		assert.Equal(t, "bool", perr.Type)
	})

	t.Run("will not parse an unset value", func(t *testing.T) {
		_, err := Read(context.Background(), DurationFromString(EmptyReader[string]()))

		require.ErrorIs(t, err, ErrValueNotSet)
	})
}

func TestUnmarshal(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the yaml is malformed", func(t *testing.T) {
			type cfg struct {
				Port int `yaml:"port"`
			}

			_, err := Read(context.Background(), UnmarshalYAML[cfg](ReaderOf(strings.NewReader("port: [1"))))

			require.Error(t, err)
		})

		t.Run("if the json does not match the type", func(t *testing.T) {
			type cfg struct {
				Port int `json:"port"`
			}

			_, err := Read(context.Background(), UnmarshalJSON[cfg](ReaderOf(strings.NewReader(`{"port":"abc"}`))))

			require.Error(t, err)
		})
	})
}

func TestFromEnv(t *testing.T) {
	type server struct {
		Host    string        `env:"HOST" envDefault:"localhost"`
		Port    int           `env:"PORT,required"`
		Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
	}

	t.Run("will parse prefixed variables", func(t *testing.T) {
		t.Setenv("TYPEDAPI_TEST_PORT", "8080")

		v, err := Read(context.Background(), FromEnv[server]("TYPEDAPI_TEST_"))

		require.NoError(t, err)
		assert.Equal(t, server{Host: "localhost", Port: 8080, Timeout: 5 * time.Second}, v)
	})

	t.Run("will return an error if a required variable is missing", func(t *testing.T) {
		_, err := Read(context.Background(), FromEnv[server]("TYPEDAPI_MISSING_"))

		require.Error(t, err)
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("will skip missing files", func(t *testing.T) {
		err := LoadDotEnv(filepath.Join(t.TempDir(), ".env"))

		require.NoError(t, err)
	})

	t.Run("will not override existing variables", func(t *testing.T) {
		dir := t.TempDir()
		name := filepath.Join(dir, ".env")
		err := os.WriteFile(name, []byte("TYPEDAPI_DOTENV_A=from-file\nTYPEDAPI_DOTENV_B=from-file\n"), 0o600)
		require.NoError(t, err)

		t.Setenv("TYPEDAPI_DOTENV_A", "from-env")
		t.Setenv("TYPEDAPI_DOTENV_B", "")
		os.Unsetenv("TYPEDAPI_DOTENV_B")

		err = LoadDotEnv(name)
		require.NoError(t, err)

		assert.Equal(t, "from-env", os.Getenv("TYPEDAPI_DOTENV_A"))
		assert.Equal(t, "from-file", os.Getenv("TYPEDAPI_DOTENV_B"))
	})
}

func TestFile(t *testing.T) {
	t.Run("will produce no value if the file does not exist", func(t *testing.T) {
		_, err := Read(context.Background(), File(filepath.Join(t.TempDir(), "missing.yaml")))

		require.ErrorIs(t, err, ErrValueNotSet)
	})

	t.Run("will read the file contents", func(t *testing.T) {
		type cfg struct {
			Out string `yaml:"out"`
		}
		name := filepath.Join(t.TempDir(), "typedapi.yaml")
		require.NoError(t, os.WriteFile(name, []byte("out: ./api\n"), 0o600))

		v, err := Read(context.Background(), UnmarshalYAML[cfg](File(name)))

		require.NoError(t, err)
		assert.Equal(t, cfg{Out: "./api"}, v)
	})
}
