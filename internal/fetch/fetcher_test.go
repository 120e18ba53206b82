package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/6529-Collections/flipscan/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Value string `json:"value"`
}

func fastFetcher(opts ...Option) *Fetcher {
	base := []Option{
		WithTimeout(2 * time.Second),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}),
	}
	return New(append(base, opts...)...)
}

func TestFetcher_GetJSON_Success(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":"hello"}`))
	}))
	defer srv.Close()

	m := metrics.NewMetrics()
	f := fastFetcher(WithMetrics(m))

	var out samplePayload
	err := f.GetJSON(context.Background(), srv.URL+"/v3/key/getNFTSales?existing=1", url.Values{"limit": {"10"}, "order": {"asc"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Value)
	assert.Equal(t, "10", gotQuery.Get("limit"))
	assert.Equal(t, "asc", gotQuery.Get("order"))
	assert.Equal(t, "1", gotQuery.Get("existing"))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("ok")))
}

func TestFetcher_GetJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"value":"late"}`))
	}))
	defer srv.Close()

	var out samplePayload
	err := fastFetcher().GetJSON(context.Background(), srv.URL, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "late", out.Value)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcher_GetJSON_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var out samplePayload
	err := fastFetcher().GetJSON(context.Background(), srv.URL, nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcher_GetJSON_UnauthorizedIsFatal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var out samplePayload
	err := fastFetcher().GetJSON(context.Background(), srv.URL, nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFatal)
	assert.Equal(t, OutcomeFatal, Classify(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcher_GetJSON_MalformedBodyNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	var out samplePayload
	err := fastFetcher().GetJSON(context.Background(), srv.URL, nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, OutcomeNoData, Classify(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcher_GetJSON_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := New(
		WithTimeout(30*time.Millisecond),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}),
	)
	var out samplePayload
	err := f.GetJSON(context.Background(), srv.URL, nil, &out)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFetcher_GetJSON_InvalidURL(t *testing.T) {
	var out samplePayload
	err := fastFetcher().GetJSON(context.Background(), "://bad", nil, &out)
	assert.ErrorIs(t, err, ErrFatal)
}

func TestFetcher_Options(t *testing.T) {
	custom := &http.Client{}
	f := New(WithHTTPClient(custom), WithTimeout(5*time.Second))
	assert.Same(t, custom, f.HTTPClient())
	assert.Equal(t, 5*time.Second, f.HTTPClient().Timeout)
	assert.Equal(t, DefaultMaxAttempts, f.RetryPolicy().MaxAttempts)
	assert.Equal(t, DefaultBaseDelay, f.RetryPolicy().BaseDelay)
}

func TestDescribe_HidesKey(t *testing.T) {
	u, err := url.Parse("https://eth-mainnet.g.alchemy.com/nft/v3/SECRET/getNFTSales?limit=1")
	require.NoError(t, err)
	assert.Equal(t, "GET eth-mainnet.g.alchemy.com/getNFTSales", describe(u))
}
