package binder_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launderly/launderly/pkg/binder"
)

func TestBindJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name"`
	}

	t.Run("decodes a valid body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"ada"}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var p payload
		require.NoError(t, binder.BindJSON(r, &p))
		assert.Equal(t, "ada", p.Name)
	})

	t.Run("rejects missing content type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))

		var p payload
		require.ErrorIs(t, binder.BindJSON(r, &p), binder.ErrUnsupportedMediaType)
	})

	t.Run("rejects wrong content type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader("name=ada"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var p payload
		require.ErrorIs(t, binder.BindJSON(r, &p), binder.ErrUnsupportedMediaType)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"nmae":"ada"}`))
		r.Header.Set("Content-Type", "application/json")

		var p payload
		require.ErrorIs(t, binder.BindJSON(r, &p), binder.ErrFailedToParseJSON)
	})

	t.Run("rejects empty body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(""))
		r.Header.Set("Content-Type", "application/json")

		var p payload
		require.ErrorIs(t, binder.BindJSON(r, &p), binder.ErrFailedToParseJSON)
	})
}
