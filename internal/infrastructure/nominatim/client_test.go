package nominatim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aidbridge-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, "aidbridge-test/1.0", 0, 2*time.Second, 16, opts...)
	require.NoError(t, err)
	return c
}

func TestReverse_ReturnsDisplayName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "12.34", r.URL.Query().Get("lat"))
		assert.Equal(t, "56.78", r.URL.Query().Get("lon"))
		assert.Equal(t, "aidbridge-test/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"display_name":"Main Street, Springfield"}`))
	})

	addr, err := c.Reverse(context.Background(), 12.34, 56.78)
	require.NoError(t, err)
	assert.Equal(t, "Main Street, Springfield", addr)
}

func TestReverse_CachesRoundedCoordinates(t *testing.T) {
	var calls atomic.Int32
	var outcomes []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"display_name":"Somewhere"}`))
	}, WithObserver(func(o string) { outcomes = append(outcomes, o) }))

	_, err := c.Reverse(context.Background(), 10.123451, 20.5)
	require.NoError(t, err)
	_, err = c.Reverse(context.Background(), 10.1234509, 20.5000001)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{OutcomeOK, OutcomeHit}, outcomes)
}

func TestReverse_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		_, err := c.Reverse(context.Background(), 1, 2)
		assert.True(t, errors.Is(err, domain.ErrNetwork))
	})
	t.Run("no result", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
		})
		_, err := c.Reverse(context.Background(), 1, 2)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
	t.Run("malformed body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		})
		_, err := c.Reverse(context.Background(), 1, 2)
		assert.True(t, errors.Is(err, domain.ErrNetwork))
	})
}

func TestReverse_ThrottleRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"display_name":"x"}`))
	}))
	defer srv.Close()
	c, err := New(srv.URL, "", 0.001, time.Second, 16)
	require.NoError(t, err)

	_, err = c.Reverse(context.Background(), 1, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Reverse(ctx, 2, 2)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
}
