// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"errors"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, m Manifest, opts GenerateOptions) string {
	t.Helper()

	tree, err := Build(m)
	require.NoError(t, err)

	src, err := Generate(tree, opts)
	require.NoError(t, err)

	_, err = parser.ParseFile(token.NewFileSet(), "client.go", src, parser.AllErrors)
	require.NoError(t, err)
	return string(src)
}

var timeRef = TypeRef{
	Expr:    "time.Time",
	Imports: []Import{{Path: "time", Name: "time"}},
}

func TestGenerate(t *testing.T) {
	m := manifestOf(
		EndpointSpec{
			Endpoint: "users",
			Verbs: []VerbSpec{
				{Verb: "GET", NoInput: true, Output: TypeRef{Expr: "[]string"}},
				{Verb: "POST", Input: timeRef, Output: timeRef},
			},
		},
		EndpointSpec{
			Endpoint: "users/[id]/posts",
			Verbs:    []VerbSpec{{Verb: "GET", NoInput: true}},
		},
		EndpointSpec{
			Endpoint: "files/[...path]",
			Verbs:    []VerbSpec{{Verb: All}},
		},
	)

	src := generate(t, m, GenerateOptions{Package: "petstore"})

	t.Run("will mark the file as generated", func(t *testing.T) {
		assert.Contains(t, src, "// Code generated by typedapi. DO NOT EDIT.")
		assert.Contains(t, src, "package petstore")
	})

	t.Run("will import the packages of the declared types", func(t *testing.T) {
		assert.Contains(t, src, `"time"`)
		assert.Contains(t, src, `"context"`)
		assert.Contains(t, src, `"net/http"`)
		assert.Contains(t, src, `"github.com/z5labs/typedapi/client"`)
	})

	t.Run("will nest fields per segment", func(t *testing.T) {
		assert.Contains(t, src, "func New(c *client.Client) Client {")
		assert.Regexp(t, `Users\s+UsersRoutes`, src)
		assert.Regexp(t, `WithID\s+UsersWithIDRoutes`, src)
		assert.Regexp(t, `Posts\s+UsersWithIDPostsRoutes`, src)
		assert.Regexp(t, `WithAllPath\s+FilesWithAllPathRoutes`, src)
	})

	t.Run("will expose verbs as leaves", func(t *testing.T) {
		assert.Regexp(t, `GET\s+UsersGET`, src)
		assert.Regexp(t, `POST\s+UsersPOST`, src)
		assert.Contains(t, src, "func (r UsersGET) Fetch(ctx context.Context, opts ...client.Option) ([]string, error) {")
		assert.Contains(t, src, "func (r UsersPOST) Fetch(ctx context.Context, input time.Time, opts ...client.Option) (time.Time, error) {")
		assert.Contains(t, src, "func (r UsersPOST) FetchRaw(ctx context.Context, input time.Time, opts ...client.Option) (*http.Response, error) {")
	})

	t.Run("will require params under parameter segments", func(t *testing.T) {
		assert.Contains(t, src, "type UsersWithIDPostsParams struct {")
		assert.Contains(t, src, "func (r UsersWithIDPostsGET) Fetch(ctx context.Context, params UsersWithIDPostsParams, opts ...client.Option) (any, error) {")
		assert.Contains(t, src, `"id": params.ID,`)
		assert.Regexp(t, `NoInput:\s+true`, src)
	})

	t.Run("will require a method for ALL", func(t *testing.T) {
		assert.Contains(t, src, "func (r FilesWithAllPathALL) Fetch(ctx context.Context, method string, params FilesWithAllPathParams, input any, opts ...client.Option) (any, error) {")
		assert.Regexp(t, `Method:\s+method,`, src)
		assert.Contains(t, src, `"path": params.Path,`)
	})
}

func TestGenerate_RouterShape(t *testing.T) {
	t.Run("will take params but no method for GET [id]/sub", func(t *testing.T) {
		src := generate(t, manifestOf(EndpointSpec{
			Endpoint: EndpointFromFile("[id]/sub.ts"),
			Verbs:    []VerbSpec{{Verb: "GET"}},
		}), GenerateOptions{})

		assert.Contains(t, src, "package api")
		assert.Contains(t, src, "func (r WithIDSubGET) Fetch(ctx context.Context, params WithIDSubParams, input any, opts ...client.Option) (any, error) {")
		assert.NotContains(t, src, "method string")
	})

	t.Run("will take params and a method for ALL [...rest]", func(t *testing.T) {
		src := generate(t, manifestOf(EndpointSpec{
			Endpoint: EndpointFromFile("[...rest].ts"),
			Verbs:    []VerbSpec{{Verb: All}},
		}), GenerateOptions{})

		assert.Contains(t, src, "func (r WithAllRestALL) Fetch(ctx context.Context, method string, params WithAllRestParams, input any, opts ...client.Option) (any, error) {")
		assert.Contains(t, src, "type WithAllRestParams struct {")
	})

	t.Run("will name root verbs after the root", func(t *testing.T) {
		src := generate(t, manifestOf(EndpointSpec{
			Endpoint: "",
			Verbs:    []VerbSpec{{Verb: "GET", NoInput: true}},
		}), GenerateOptions{})

		assert.Contains(t, src, "func (r RootGET) Fetch(ctx context.Context, opts ...client.Option) (any, error) {")
	})

	t.Run("will not import unused packages for an empty tree", func(t *testing.T) {
		src := generate(t, Manifest{}, GenerateOptions{})

		assert.NotContains(t, src, `"net/http"`)
		assert.NotContains(t, src, `"context"`)
		assert.Contains(t, src, "type Client struct")
	})
}

func TestGenerate_Errors(t *testing.T) {
	testCases := []struct {
		Name     string
		Manifest Manifest
		Options  GenerateOptions
	}{
		{
			Name: "segments mapping to the same field",
			Manifest: manifestOf(
				EndpointSpec{Endpoint: "user-id", Verbs: []VerbSpec{{Verb: "GET"}}},
				EndpointSpec{Endpoint: "user_id", Verbs: []VerbSpec{{Verb: "GET"}}},
			),
		},
		{
			Name: "parameters mapping to the same field",
			Manifest: manifestOf(
				EndpointSpec{Endpoint: "[a-b]/[a_b]", Verbs: []VerbSpec{{Verb: "GET"}}},
			),
		},
		{
			Name: "paths mapping to the same type",
			Manifest: manifestOf(
				EndpointSpec{Endpoint: "users/posts", Verbs: []VerbSpec{{Verb: "GET"}}},
				EndpointSpec{Endpoint: "usersPosts", Verbs: []VerbSpec{{Verb: "GET"}}},
			),
		},
		{
			Name: "package names referring to different imports",
			Manifest: manifestOf(
				EndpointSpec{Endpoint: "a", Verbs: []VerbSpec{{
					Verb:   "GET",
					Output: TypeRef{Expr: "rand.Rand", Imports: []Import{{Path: "math/rand", Name: "rand"}}},
				}}},
				EndpointSpec{Endpoint: "b", Verbs: []VerbSpec{{
					Verb:   "GET",
					Output: TypeRef{Expr: "rand.Rand", Imports: []Import{{Path: "math/rand/v2", Name: "rand"}}},
				}}},
			),
		},
		{
			Name: "package names shadowed by generated code",
			Manifest: manifestOf(
				EndpointSpec{Endpoint: "a", Verbs: []VerbSpec{{
					Verb:   "GET",
					Output: TypeRef{Expr: "input.Value", Imports: []Import{{Path: "example.com/input", Name: "input"}}},
				}}},
			),
		},
		{
			Name:     "invalid package names",
			Manifest: Manifest{},
			Options:  GenerateOptions{Package: "my-api"},
		},
		{
			Name: "segments which cannot be named",
			Manifest: manifestOf(
				EndpointSpec{Endpoint: "---", Verbs: []VerbSpec{{Verb: "GET"}}},
			),
		},
	}

	for _, testCase := range testCases {
		t.Run("will fail on "+testCase.Name, func(t *testing.T) {
			tree, err := Build(testCase.Manifest)
			require.NoError(t, err)

			_, err = Generate(tree, testCase.Options)

			var gerr GenerateError
			require.True(t, errors.As(err, &gerr))
			assert.NotEmpty(t, gerr.Reason)
		})
	}
}

func TestPascal(t *testing.T) {
	testCases := map[string]string{
		"users":     "Users",
		"user-id":   "UserID",
		"api_keys":  "APIKeys",
		"v2":        "V2",
		"2fa":       "N2fa",
		"orderItem": "OrderItem",
	}

	for in, out := range testCases {
		t.Run("will convert "+in, func(t *testing.T) {
			assert.Equal(t, out, pascal(in))
		})
	}
}
