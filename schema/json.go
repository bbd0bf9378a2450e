// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"context"
	"fmt"
	"reflect"

	"github.com/bytedance/sonic"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggest/jsonschema-go"
	swgopenapi3 "github.com/swaggest/openapi-go/openapi3"

	"github.com/z5labs/typedapi/codec"
)

// JSON is a [Schema] backed by an OpenAPI 3 schema object.
type JSON[T any] struct {
	def *openapi3.Schema
}

// Object returns a [Schema] which validates values against def before
// converting them into T.
func Object[T any](def *openapi3.Schema) *JSON[T] {
	return &JSON[T]{def: def}
}

// Reflect derives a [Schema] for T from its Go type. Struct fields are named
// by their json tags and may use the `required`, `minLength`, `pattern`, ...
// tags understood by github.com/swaggest/jsonschema-go.
func Reflect[T any]() (*JSON[T], error) {
	def, err := reflectDef(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return &JSON[T]{def: def}, nil
}

// MustReflect is like [Reflect] but panics on error.
func MustReflect[T any]() *JSON[T] {
	s, err := Reflect[T]()
	if err != nil {
		panic(err)
	}
	return s
}

func reflectDef(t reflect.Type) (*openapi3.Schema, error) {
	if t.Kind() == reflect.Interface {
		return &openapi3.Schema{}, nil
	}

	var reflector jsonschema.Reflector
	jsonSchema, err := reflector.Reflect(reflect.New(t).Elem().Interface(), jsonschema.InlineRefs)
	if err != nil {
		return nil, fmt.Errorf("schema: failed to reflect %s: %w", t, err)
	}

	var schemaOrRef swgopenapi3.SchemaOrRef
	schemaOrRef.FromJSONSchema(jsonSchema.ToSchemaOrBool())

	b, err := sonic.ConfigStd.Marshal(schemaOrRef)
	if err != nil {
		return nil, fmt.Errorf("schema: failed to marshal schema for %s: %w", t, err)
	}

	def := &openapi3.Schema{}
	err = def.UnmarshalJSON(b)
	if err != nil {
		return nil, fmt.Errorf("schema: failed to load schema for %s: %w", t, err)
	}
	return def, nil
}

// Definition returns the underlying OpenAPI schema object.
func (s *JSON[T]) Definition() *openapi3.Schema {
	return s.def
}

// Validate reports whether the underlying schema object is itself valid.
func (s *JSON[T]) Validate(ctx context.Context) error {
	return s.def.Validate(ctx)
}

// Parse implements the [Schema] interface.
func (s *JSON[T]) Parse(ctx context.Context, v any) (T, error) {
	var t T

	doc, err := document(v)
	if err != nil {
		return t, err
	}

	err = s.def.VisitJSON(doc, validationOptions(ctx)...)
	if err != nil {
		return t, err
	}
	return Convert[T](v)
}

// document converts v into the plain JSON document form the validator
// understands.
func document(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}

	b, err := codec.JSON.Marshal(v)
	if err != nil {
		return nil, err
	}

	var doc any
	err = codec.JSON.Unmarshal(b, &doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// StringOption configures the schema returned by [String].
type StringOption func(*openapi3.Schema)

// MinLength sets the minimum length of the string.
func MinLength(n int64) StringOption {
	return func(s *openapi3.Schema) {
		s.WithMinLength(n)
	}
}

// MaxLength sets the maximum length of the string.
func MaxLength(n int64) StringOption {
	return func(s *openapi3.Schema) {
		s.WithMaxLength(n)
	}
}

// Pattern requires the string to match the given ECMA 262 regular expression.
func Pattern(pattern string) StringOption {
	return func(s *openapi3.Schema) {
		s.WithPattern(pattern)
	}
}

// OneOf restricts the string to the given values.
func OneOf(values ...string) StringOption {
	return func(s *openapi3.Schema) {
		vs := make([]any, len(values))
		for i, v := range values {
			vs[i] = v
		}
		s.WithEnum(vs...)
	}
}

// String returns a string [Schema], typically used for headers.
func String(opts ...StringOption) *JSON[string] {
	def := openapi3.NewStringSchema()
	for _, opt := range opts {
		opt(def)
	}
	return &JSON[string]{def: def}
}
