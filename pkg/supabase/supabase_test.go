// pkg/supabase/supabase_test.go

package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steadyops/botstrap/pkg/strap_err"
)

func TestPing(t *testing.T) {
	t.Run("sends apikey header", func(t *testing.T) {
		var gotKey string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("apikey")
			assert.Equal(t, "/rest/v1/", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		status, err := Ping(context.Background(), srv.URL, "service-key")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "service-key", gotKey)
	})

	t.Run("401 still counts as reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		status, err := Ping(context.Background(), srv.URL, "wrong-key")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("5xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := Ping(context.Background(), srv.URL, "")
		require.Error(t, err)
	})

	t.Run("connection failure never leaks the key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		_, err := Ping(context.Background(), srv.URL, "eyJsecret.key.material")
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "eyJsecret.key.material")

		var classified *strap_err.ClassifiedError
		require.True(t, cerr.As(err, &classified))
		assert.Equal(t, strap_err.CategoryNetwork, classified.Category)
	})

	t.Run("empty URL rejected", func(t *testing.T) {
		_, err := Ping(context.Background(), "", "key")
		require.Error(t, err)
	})
}
