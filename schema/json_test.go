// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createUser struct {
	Name string `json:"name" required:"true" minLength:"1"`
	Age  int    `json:"age" minimum:"0"`
}

func TestReflect(t *testing.T) {
	s, err := Reflect[createUser]()
	require.NoError(t, err)

	t.Run("accepts conforming documents", func(t *testing.T) {
		u, err := s.Parse(context.Background(), map[string]any{
			"name": "gopher",
			"age":  json.Number("3"),
		})
		require.NoError(t, err)
		assert.Equal(t, createUser{Name: "gopher", Age: 3}, u)
	})

	t.Run("rejects missing required properties", func(t *testing.T) {
		_, err := s.Parse(context.Background(), map[string]any{
			"age": 3.0,
		})
		assert.Error(t, err)
	})

	t.Run("rejects constraint violations", func(t *testing.T) {
		_, err := s.Parse(context.Background(), map[string]any{
			"name": "",
		})
		assert.Error(t, err)

		_, err = s.Parse(context.Background(), map[string]any{
			"name": "gopher",
			"age":  -1,
		})
		assert.Error(t, err)
	})

	t.Run("rejects values of the wrong type", func(t *testing.T) {
		_, err := s.Parse(context.Background(), "gopher")
		assert.Error(t, err)
	})

	t.Run("describes the type", func(t *testing.T) {
		def := s.Definition()
		require.NotNil(t, def)
		assert.Contains(t, def.Properties, "name")
		assert.Contains(t, def.Required, "name")
	})
}

func TestReflect_Interface(t *testing.T) {
	t.Run("accepts anything", func(t *testing.T) {
		s := MustReflect[any]()

		v, err := s.Parse(context.Background(), map[string]any{"x": 1.0})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"x": 1.0}, v)
	})
}

func TestObject(t *testing.T) {
	def := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewIntegerSchema()).
		WithProperty("email", openapi3.NewStringSchema().WithPattern(`^[^@]+@[^@]+$`)).
		WithRequired([]string{"id"})

	s := Object[map[string]any](def)

	t.Run("accepts conforming documents", func(t *testing.T) {
		v, err := s.Parse(context.Background(), map[string]any{"id": 1, "email": "a@b"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": 1, "email": "a@b"}, v)
	})

	t.Run("rejects non conforming documents", func(t *testing.T) {
		_, err := s.Parse(context.Background(), map[string]any{"id": 1.5})
		assert.Error(t, err)

		_, err = s.Parse(context.Background(), map[string]any{"id": 1, "email": "nope"})
		assert.Error(t, err)
	})

	t.Run("collects every violation with MultiErrors", func(t *testing.T) {
		ctx := Engine{Options: []openapi3.SchemaValidationOption{openapi3.MultiErrors()}}.Bind(context.Background())

		_, err := s.Parse(ctx, map[string]any{"id": 1.5, "email": "nope"})
		require.Error(t, err)

		var me openapi3.MultiError
		require.True(t, errors.As(err, &me))
		assert.GreaterOrEqual(t, len(me), 2)
	})
}

func TestJSON_Validate(t *testing.T) {
	t.Run("well formed schema", func(t *testing.T) {
		assert.NoError(t, String().Validate(context.Background()))
	})

	t.Run("malformed schema", func(t *testing.T) {
		s := Object[any](&openapi3.Schema{ReadOnly: true, WriteOnly: true})
		assert.Error(t, s.Validate(context.Background()))
	})
}

func TestString(t *testing.T) {
	testCases := []struct {
		Name   string
		Schema *JSON[string]
		Value  any
		Ok     bool
	}{
		{Name: "plain string", Schema: String(), Value: "abc", Ok: true},
		{Name: "not a string", Schema: String(), Value: 12.0, Ok: false},
		{Name: "min length", Schema: String(MinLength(3)), Value: "ab", Ok: false},
		{Name: "max length", Schema: String(MaxLength(3)), Value: "abcd", Ok: false},
		{Name: "pattern match", Schema: String(Pattern(`^Bearer .+$`)), Value: "Bearer token", Ok: true},
		{Name: "pattern mismatch", Schema: String(Pattern(`^Bearer .+$`)), Value: "Basic abc", Ok: false},
		{Name: "enum member", Schema: String(OneOf("en", "fr")), Value: "fr", Ok: true},
		{Name: "enum non member", Schema: String(OneOf("en", "fr")), Value: "de", Ok: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			v, err := testCase.Schema.Parse(context.Background(), testCase.Value)
			if !testCase.Ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.Value, v)
		})
	}
}

func TestCapability(t *testing.T) {
	t.Run("kin openapi is an engine", func(t *testing.T) {
		_, ok := KinOpenAPI().(Engine)
		assert.True(t, ok)
	})

	t.Run("unavailable is not an engine", func(t *testing.T) {
		_, ok := Unavailable().(NoEngine)
		assert.True(t, ok)
	})
}
