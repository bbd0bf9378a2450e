// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(err error) Monitor {
	return MonitorFunc(func(ctx context.Context) (bool, error) {
		return false, err
	})
}

func TestAll(t *testing.T) {
	t.Run("will return unhealthy", func(t *testing.T) {
		t.Run("if one of the monitors is unhealthy", func(t *testing.T) {
			var a, b Binary
			a.MarkHealthy()

			healthy, err := All(&a, &b).Healthy(context.Background())

			require.NoError(t, err)
			assert.False(t, healthy)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if one of the monitors fails", func(t *testing.T) {
			var a Binary
			a.MarkHealthy()
			healthErr := errors.New("failed to check health status")

			healthy, err := All(&a, failing(healthErr)).Healthy(context.Background())

			require.ErrorIs(t, err, healthErr)
			assert.False(t, healthy)
		})
	})

	t.Run("will be healthy without monitors", func(t *testing.T) {
		healthy, err := All().Healthy(context.Background())

		require.NoError(t, err)
		assert.True(t, healthy)
	})
}

func TestAny(t *testing.T) {
	t.Run("will ignore errors if another monitor is healthy", func(t *testing.T) {
		var a Binary
		a.MarkHealthy()

		healthy, err := Any(failing(errors.New("down")), &a).Healthy(context.Background())

		require.NoError(t, err)
		assert.True(t, healthy)
	})

	t.Run("will join the errors if no monitor is healthy", func(t *testing.T) {
		var a Binary
		healthErr := errors.New("failed to check health status")

		healthy, err := Any(&a, failing(healthErr)).Healthy(context.Background())

		require.ErrorIs(t, err, healthErr)
		assert.False(t, healthy)
	})
}

func TestHandler(t *testing.T) {
	t.Run("will return 503 if the monitor fails", func(t *testing.T) {
		w := httptest.NewRecorder()

		Handler(failing(errors.New("down"))).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"healthy":false}`, w.Body.String())
	})
}
