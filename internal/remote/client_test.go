package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"planscope/internal/cancelctl"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestQueryPrimarySendsBearerAndDecodes(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[{"planCode":"A1","planName":"plan a","saleStartDate":"2020-01-01","saleEndDate":"9999-12-31"}]}`))
	})

	c := NewClient(srv.URL, "tok-123", 5*time.Second, nil)
	recs, err := c.QueryPrimary(context.Background(), PrimaryQuery{PlanCode: "A1"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "A1", recs[0].PlanCode)
	require.Equal(t, "plan a", recs[0].PlanName)
}

func TestQueryDetailJoinsAndDeduplicates(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"records":[{"detail":"rate x"},{"detail":" "},{"detail":"rate y"},{"detail":"rate x"}]}`))
	})

	c := NewClient(srv.URL, "tok", 5*time.Second, nil)
	got, err := c.QueryDetail(context.Background(), "A1")
	require.NoError(t, err)
	require.Equal(t, "rate x, rate y", got)
}

func TestQueryChannelsSortsByCode(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"records":[{"channel":"OT"},{"channel":"AG"}]}`))
	})

	c := NewClient(srv.URL, "tok", 5*time.Second, nil)
	recs, err := c.QueryChannels(context.Background(), "A1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "AG", recs[0].Channel)
}

func TestNonSuccessStatusIsAPIError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	c := NewClient(srv.URL, "tok", 5*time.Second, nil)
	_, err := c.QueryPrimary(context.Background(), PrimaryQuery{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.False(t, cancelctl.IsAborted(err), "a remote failure must not look like a cancellation")
}

func TestUnparsableBodyIsAPIError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	})

	c := NewClient(srv.URL, "tok", 5*time.Second, nil)
	_, err := c.QueryDetail(context.Background(), "A1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
}

func TestCancelledTokenAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("http://127.0.0.1:0", "tok", time.Second, nil)
	_, err := c.QueryPrimary(ctx, PrimaryQuery{})
	require.ErrorIs(t, err, cancelctl.ErrAborted)
}

func TestCancellationDuringFlightAborts(t *testing.T) {
	started := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"records":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	c := NewClient(srv.URL, "tok", 5*time.Second, nil)
	_, err := c.QueryPrimary(ctx, PrimaryQuery{})
	require.ErrorIs(t, err, cancelctl.ErrAborted)
}
