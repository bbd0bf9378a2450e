// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	t.Run("will parse static segments", func(t *testing.T) {
		e, err := ParseEndpoint("/users/me/")
		require.NoError(t, err)

		assert.Equal(t, []Segment{{Kind: Static, Name: "users"}, {Kind: Static, Name: "me"}}, e.Segments)
		assert.Equal(t, "users/me", e.String())
		assert.Empty(t, e.Params())
	})

	t.Run("will parse parameter and catch-all segments", func(t *testing.T) {
		e, err := ParseEndpoint("users/[id]/files/[...path]")
		require.NoError(t, err)

		require.Len(t, e.Segments, 4)
		assert.Equal(t, Param, e.Segments[1].Kind)
		assert.Equal(t, CatchAll, e.Segments[3].Kind)
		assert.Equal(t, []string{"id", "path"}, e.Params())
		assert.Equal(t, "users/[id]/files/[...path]", e.String())
	})

	t.Run("will treat the empty identifier as the root endpoint", func(t *testing.T) {
		e, err := ParseEndpoint("")
		require.NoError(t, err)

		assert.Empty(t, e.Segments)
		assert.Equal(t, "", e.String())
	})

	testCases := []struct {
		Name string
		ID   string
	}{
		{Name: "empty segment", ID: "users//posts"},
		{Name: "mixed brackets", ID: "users/a[id]"},
		{Name: "unterminated parameter", ID: "users/[id"},
		{Name: "empty parameter name", ID: "users/[]"},
		{Name: "invalid parameter name", ID: "users/[1id]"},
		{Name: "catch-all not last", ID: "files/[...path]/meta"},
		{Name: "duplicate parameter", ID: "[id]/posts/[id]"},
	}

	for _, testCase := range testCases {
		t.Run("will fail on "+testCase.Name, func(t *testing.T) {
			_, err := ParseEndpoint(testCase.ID)

			var perr ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, testCase.ID, perr.Endpoint)
		})
	}
}

func TestMustParseEndpoint(t *testing.T) {
	t.Run("will panic on an invalid identifier", func(t *testing.T) {
		assert.Panics(t, func() {
			MustParseEndpoint("[oops")
		})
	})
}

func TestSegment_Key(t *testing.T) {
	t.Run("will not collide parameters with static segments", func(t *testing.T) {
		static := Segment{Kind: Static, Name: "id"}
		param := Segment{Kind: Param, Name: "id"}
		catchAll := Segment{Kind: CatchAll, Name: "id"}

		assert.Equal(t, "id", static.Key())
		assert.Equal(t, "_id", param.Key())
		assert.Equal(t, "_id_", catchAll.Key())
	})
}

func TestEndpointFromFile(t *testing.T) {
	testCases := []struct {
		File     string
		Endpoint string
	}{
		{File: "users.go", Endpoint: "users"},
		{File: "users/index.go", Endpoint: "users"},
		{File: "users/[id]/index.go", Endpoint: "users/[id]"},
		{File: "[id]/sub.ts", Endpoint: "[id]/sub"},
		{File: "[...rest].ts", Endpoint: "[...rest]"},
		{File: "[...rest]", Endpoint: "[...rest]"},
		{File: "index.go", Endpoint: ""},
		{File: `users\[id].go`, Endpoint: "users/[id]"},
	}

	for _, testCase := range testCases {
		t.Run("will map "+testCase.File, func(t *testing.T) {
			assert.Equal(t, testCase.Endpoint, EndpointFromFile(testCase.File))
		})
	}
}

func TestIsVerb(t *testing.T) {
	t.Run("will accept uppercase methods and ALL", func(t *testing.T) {
		assert.True(t, IsVerb("GET"))
		assert.True(t, IsVerb(All))
		assert.False(t, IsVerb("get"))
		assert.False(t, IsVerb("FETCH"))
	})

	t.Run("will not treat ALL as a method", func(t *testing.T) {
		assert.True(t, IsMethod("DELETE"))
		assert.False(t, IsMethod(All))
	})
}
