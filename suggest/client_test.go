package suggest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theplant/casefilter/suggest"
)

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func fastRetries() suggest.Option {
	return suggest.WithRetryWait(time.Millisecond, time.Millisecond)
}

func TestSuggest(t *testing.T) {
	srv, hits := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/fields/billing country/suggestions", r.URL.Path)
		require.Equal(t, "U&", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["US","UA"]`))
	})

	client := suggest.NewClient(srv.URL + "/")
	values, err := client.Suggest(context.Background(), "billing country", "U&")
	require.NoError(t, err)
	require.Equal(t, []string{"US", "UA"}, values)
	require.EqualValues(t, 1, hits.Load())
}

func TestSuggestEmpty(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	values, err := suggest.NewClient(srv.URL).Suggest(context.Background(), "country", "")
	require.NoError(t, err)
	require.Equal(t, []string{}, values)

	_, err = suggest.NewClient(srv.URL).Suggest(context.Background(), "", "")
	require.ErrorContains(t, err, "field id is empty")
}

func TestSuggestRetries(t *testing.T) {
	t.Run("recovers from a server error", func(t *testing.T) {
		var calls atomic.Int32
		srv, hits := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`["CA"]`))
		})

		values, err := suggest.NewClient(srv.URL, fastRetries()).Suggest(context.Background(), "country", "C")
		require.NoError(t, err)
		require.Equal(t, []string{"CA"}, values)
		require.EqualValues(t, 2, hits.Load())
	})

	t.Run("gives up", func(t *testing.T) {
		srv, hits := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := suggest.NewClient(srv.URL, fastRetries(), suggest.WithRetryMax(1)).
			Suggest(context.Background(), "country", "C")
		require.ErrorContains(t, err, "giving up after 2 attempt(s)")
		require.EqualValues(t, 2, hits.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		srv, hits := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unknown field", http.StatusNotFound)
		})

		_, err := suggest.NewClient(srv.URL, fastRetries()).Suggest(context.Background(), "nope", "")
		require.ErrorContains(t, err, "fetch suggestions for field nope: unexpected status 404: unknown field")
		require.EqualValues(t, 1, hits.Load())
	})

	t.Run("malformed body", func(t *testing.T) {
		srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"values":[]}`))
		})

		_, err := suggest.NewClient(srv.URL).Suggest(context.Background(), "country", "")
		require.ErrorContains(t, err, "decode suggestion response")
	})

	t.Run("canceled context", func(t *testing.T) {
		srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := suggest.NewClient(srv.URL, fastRetries()).Suggest(ctx, "country", "")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSuggestCache(t *testing.T) {
	srv, hits := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["US"]`))
	})

	client := suggest.NewClient(srv.URL, suggest.WithCache(10, time.Minute), suggest.WithTimeout(time.Second))
	for i := 0; i < 3; i++ {
		values, err := client.Suggest(context.Background(), "country", "U")
		require.NoError(t, err)
		require.Equal(t, []string{"US"}, values)
		values[0] = "mutated"
	}
	require.EqualValues(t, 1, hits.Load())

	_, err := client.Suggest(context.Background(), "country", "X")
	require.NoError(t, err)
	require.EqualValues(t, 2, hits.Load())
}
