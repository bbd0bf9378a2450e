// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z5labs/typedapi/schema"
)

type createUserRequest struct {
	Name string `json:"name" required:"true" minLength:"1"`
}

type user struct {
	ID   string `json:"id" required:"true" minLength:"1"`
	Name string `json:"name"`
}

func postJSON(target, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	r.Header.Set("Accept", "application/json")
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestDefine_Input(t *testing.T) {
	t.Run("business function receives the parsed input", func(t *testing.T) {
		var got createUserRequest
		rt := Define(Definition[createUserRequest, user]{
			Input:  schema.MustReflect[createUserRequest](),
			Output: schema.MustReflect[user](),
			Fetch: func(c *Context, in createUserRequest) (user, error) {
				got = in
				return user{ID: "1", Name: in.Name}, nil
			},
		})

		w := httptest.NewRecorder()
		rt.ServeHTTP(w, postJSON("/api/users", `{"name":"gopher"}`))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, createUserRequest{Name: "gopher"}, got)
		assert.JSONEq(t, `{"id":"1","name":"gopher"}`, w.Body.String())
	})

	t.Run("rejected input never reaches the business function", func(t *testing.T) {
		called := false
		rt := Define(Definition[createUserRequest, user]{
			Input: schema.MustReflect[createUserRequest](),
			Fetch: func(c *Context, in createUserRequest) (user, error) {
				called = true
				return user{}, nil
			},
		})

		w := httptest.NewRecorder()
		rt.ServeHTTP(w, postJSON("/api/users", `{"name":""}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "TypesafeAPIError.InputValidationFailed")
		assert.False(t, called)
	})

	t.Run("schema parsed value replaces the raw input", func(t *testing.T) {
		upper := schema.Func[string](func(ctx context.Context, v any) (string, error) {
			m, ok := v.(map[string]any)
			if !ok {
				return "", errors.New("expected object")
			}
			s, _ := m["name"].(string)
			return strings.ToUpper(s), nil
		})

		var got string
		rt := Define(Definition[string, string]{
			Input: upper,
			Fetch: func(c *Context, in string) (string, error) {
				got = in
				return in, nil
			},
		})

		w := httptest.NewRecorder()
		rt.ServeHTTP(w, postJSON("/api/users", `{"name":"gopher"}`))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "GOPHER", got)
	})

	t.Run("void input rejects present input", func(t *testing.T) {
		rt := Define(Definition[struct{}, string]{
			Input: schema.Void(),
			Fetch: func(c *Context, _ struct{}) (string, error) {
				return "pong", nil
			},
		})

		w := httptest.NewRecorder()
		rt.ServeHTTP(w, postJSON("/api/ping", `{"unexpected":true}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		r := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		r.Header.Set("Accept", "application/json")
		w = httptest.NewRecorder()
		rt.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `"pong"`, w.Body.String())
	})
}

func TestDefine_Output(t *testing.T) {
	t.Run("rejected output is not returned", func(t *testing.T) {
		rt := Define(Definition[struct{}, user]{
			Input:  schema.Void(),
			Output: schema.MustReflect[user](),
			Fetch: func(c *Context, _ struct{}) (user, error) {
				return user{Name: "secret"}, nil
			},
		})

		r := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		r.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		rt.ServeHTTP(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "TypesafeAPIError.OutputValidationFailed")
		assert.NotContains(t, w.Body.String(), "secret")
	})
}

func TestDefine_Headers(t *testing.T) {
	newRoute := func(seen *string) *Route[struct{}, string] {
		return Define(Definition[struct{}, string]{
			Input: schema.Void(),
			Headers: map[string]schema.Schema[string]{
				"x-api-key": schema.String(schema.MinLength(8)),
			},
			Fetch: func(c *Context, _ struct{}) (string, error) {
				*seen = c.Header("X-Api-Key")
				return "ok", nil
			},
		})
	}

	t.Run("valid header is exposed to the business function", func(t *testing.T) {
		var seen string
		rt := newRoute(&seen)

		r := httptest.NewRequest(http.MethodGet, "/api/secure", nil)
		r.Header.Set("Accept", "application/json")
		r.Header.Set("X-Api-Key", "0123456789")
		w := httptest.NewRecorder()
		rt.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "0123456789", seen)
	})

	t.Run("missing header", func(t *testing.T) {
		var seen string
		rt := newRoute(&seen)

		r := httptest.NewRequest(http.MethodGet, "/api/secure", nil)
		r.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		rt.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "TypesafeAPIError.InvalidHeaderEncountered")
	})

	t.Run("rejected header", func(t *testing.T) {
		var seen string
		rt := newRoute(&seen)

		r := httptest.NewRequest(http.MethodGet, "/api/secure", nil)
		r.Header.Set("Accept", "application/json")
		r.Header.Set("X-Api-Key", "short")
		w := httptest.NewRecorder()
		rt.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "TypesafeAPIError.InvalidHeaderEncountered")
	})

	t.Run("headers are checked before input", func(t *testing.T) {
		rt := Define(Definition[createUserRequest, string]{
			Input: schema.MustReflect[createUserRequest](),
			Headers: map[string]schema.Schema[string]{
				"Authorization": schema.String(),
			},
			Fetch: func(c *Context, in createUserRequest) (string, error) {
				return "", nil
			},
		})

		w := httptest.NewRecorder()
		rt.ServeHTTP(w, postJSON("/api/users", `{"name":""}`))

		assert.Contains(t, w.Body.String(), "TypesafeAPIError.InvalidHeaderEncountered")
		assert.NotContains(t, w.Body.String(), "InputValidationFailed")
	})

	t.Run("parsed value replaces the raw header", func(t *testing.T) {
		trim := schema.Func[string](func(ctx context.Context, v any) (string, error) {
			return strings.TrimSpace(v.(string)), nil
		})

		var raw string
		rt := Define(Definition[struct{}, string]{
			Input:   schema.Void(),
			Headers: map[string]schema.Schema[string]{"X-Tenant": trim},
			Fetch: func(c *Context, _ struct{}) (string, error) {
				raw = c.Request.Header.Get("X-Tenant")
				return c.Header("x-tenant"), nil
			},
		})

		r := httptest.NewRequest(http.MethodGet, "/api/t", nil)
		r.Header.Set("Accept", "application/json")
		r.Header.Set("X-Tenant", "  acme  ")
		w := httptest.NewRecorder()
		rt.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "acme", raw)
		assert.Equal(t, `"acme"`, w.Body.String())
	})
}

func TestDefine_Fetch(t *testing.T) {
	get := func(rt http.Handler) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/users/42", nil)
		r.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		rt.ServeHTTP(w, r)
		return w
	}

	t.Run("business errors are wrapped as procedure failures", func(t *testing.T) {
		rt := Define(Definition[any, any]{
			Fetch: func(c *Context, in any) (any, error) {
				return nil, errors.New("database is down")
			},
		})

		w := get(rt)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "TypesafeAPIError.ProcedureFailed")
		assert.Contains(t, w.Body.String(), `"cause":null`)
	})

	t.Run("exposed causes", func(t *testing.T) {
		rt := Define(Definition[any, any]{
			Fetch: func(c *Context, in any) (any, error) {
				return nil, errors.New("database is down")
			},
		}, ExposeCauses())

		w := get(rt)

		assert.Contains(t, w.Body.String(), `"cause":"database is down"`)
	})

	t.Run("panics are procedure failures", func(t *testing.T) {
		rt := Define(Definition[any, any]{
			Fetch: func(c *Context, in any) (any, error) {
				panic("boom")
			},
		})

		w := get(rt)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "TypesafeAPIError.ProcedureFailed")
	})

	t.Run("application errors pass through", func(t *testing.T) {
		rt := Define(Definition[any, any]{
			Fetch: func(c *Context, in any) (any, error) {
				return nil, NewError(NotFound, "no such user")
			},
		})

		w := get(rt)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"status":404,"cause":null,"details":null,"message":"no such user"}`, w.Body.String())
	})

	t.Run("missing fetch function", func(t *testing.T) {
		rt := Define(Definition[any, any]{})

		w := get(rt)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestDefine_Capability(t *testing.T) {
	t.Run("declared schemas fail closed without a validator", func(t *testing.T) {
		called := false
		rt := Define(Definition[createUserRequest, string]{
			Input: schema.MustReflect[createUserRequest](),
			Fetch: func(c *Context, in createUserRequest) (string, error) {
				called = true
				return "", nil
			},
		}, WithValidator(schema.Unavailable()))

		w := httptest.NewRecorder()
		rt.ServeHTTP(w, postJSON("/api/users", `{"name":"gopher"}`))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "TypesafeAPIError.ValidatorNotInstalled")
		assert.False(t, called)
	})

	t.Run("routes without schemas do not need a validator", func(t *testing.T) {
		rt := Define(Definition[any, string]{
			Fetch: func(c *Context, in any) (string, error) {
				return "ok", nil
			},
		}, WithValidator(schema.Unavailable()))

		w := httptest.NewRecorder()
		rt.ServeHTTP(w, postJSON("/api/users", `{}`))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid schemas fail closed", func(t *testing.T) {
		rt := Define(Definition[any, any]{
			Input: schema.Object[any](&openapi3.Schema{ReadOnly: true, WriteOnly: true}),
			Fetch: func(c *Context, in any) (any, error) {
				return in, nil
			},
		})

		w := httptest.NewRecorder()
		rt.ServeHTTP(w, postJSON("/api/users", `{}`))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "TypesafeAPIError.InvalidSchema")
	})
}

func TestRoute_Describe(t *testing.T) {
	t.Run("typed route", func(t *testing.T) {
		rt := Define(Definition[createUserRequest, user]{
			Input:  schema.MustReflect[createUserRequest](),
			Output: schema.MustReflect[user](),
			Headers: map[string]schema.Schema[string]{
				"Authorization": schema.String(),
			},
			Meta: &Meta{
				Summary: "Create a user",
				Headers: map[string]HeaderMeta{
					"Authorization": {Description: "bearer token"},
				},
			},
			Fetch: func(c *Context, in createUserRequest) (user, error) {
				return user{}, nil
			},
		})

		d := rt.Describe()
		assert.Equal(t, reflect.TypeFor[createUserRequest](), d.InputType)
		assert.Equal(t, reflect.TypeFor[user](), d.OutputType)
		assert.False(t, d.NoInput)
		assert.NotNil(t, d.InputSchema)
		assert.NotNil(t, d.OutputSchema)
		require.Len(t, d.Headers, 1)
		assert.Equal(t, "bearer token", d.Headers[0].Meta.Description)
		assert.Equal(t, "Create a user", d.Meta.Summary)
		assert.Equal(t, "Create a user", rt.Definition().Meta.Summary)
	})

	t.Run("void route", func(t *testing.T) {
		rt := Define(Definition[struct{}, string]{
			Input: schema.Void(),
			Fetch: func(c *Context, _ struct{}) (string, error) {
				return "", nil
			},
		})

		d := rt.Describe()
		assert.True(t, d.NoInput)
		assert.Nil(t, d.InputType)
	})
}
