package alchemy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/6529-Collections/flipscan/internal/fetch"
	"github.com/6529-Collections/flipscan/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	limit           string
	order           string
	pageKey         string
	contractAddress string
	tokenID         string
}

// salesServer serves numbered pages. Page i (0-based) holds perPage items and
// carries a pageKey unless it is the last of totalPages.
type salesServer struct {
	mu         sync.Mutex
	requests   []recordedRequest
	perPage    int
	totalPages int
	failFrom   int
	status     int
}

func (s *salesServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		limit:           q.Get("limit"),
		order:           q.Get("order"),
		pageKey:         q.Get("pageKey"),
		contractAddress: q.Get("contractAddress"),
		tokenID:         q.Get("tokenId"),
	})
	s.mu.Unlock()

	page := 0
	if pk := q.Get("pageKey"); pk != "" {
		page, _ = strconv.Atoi(pk)
	}
	if s.failFrom > 0 && page >= s.failFrom {
		w.WriteHeader(s.status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"nftSales":[`)
	for i := 0; i < s.perPage; i++ {
		if i > 0 {
			fmt.Fprint(w, ",")
		}
		n := page*s.perPage + i
		fmt.Fprintf(w, `{"contractAddress":"0xABC","tokenId":"%d","blockNumber":%d,"buyerAddress":"0xB%d","sellerAddress":"0xS%d","transactionHash":"0xT%d"}`,
			n, 1000+n, n, n, n)
	}
	fmt.Fprint(w, `]`)
	if page+1 < s.totalPages {
		fmt.Fprintf(w, `,"pageKey":"%d"`, page+1)
	} else {
		fmt.Fprint(w, `,"pageKey":null`)
	}
	fmt.Fprint(w, `}`)
}

func (s *salesServer) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

func newTestClient(t *testing.T, handler http.Handler, m *metrics.Metrics) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := fetch.New(
		fetch.WithTimeout(2*time.Second),
		fetch.WithRetryPolicy(fetch.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}),
	)
	return NewClient(f, Options{BaseURL: srv.URL + "/nft/v3/key", Metrics: m})
}

func TestGetRecentSales_SinglePage(t *testing.T) {
	srv := &salesServer{perPage: 3, totalPages: 1}
	m := metrics.NewMetrics()
	client := newTestClient(t, srv, m)

	sales, err := client.GetRecentSales(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, sales, 3)

	reqs := srv.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "10", reqs[0].limit)
	assert.Equal(t, "desc", reqs[0].order)
	assert.Empty(t, reqs[0].contractAddress)

	assert.Equal(t, "0xabc", sales[0].Contract)
	assert.Equal(t, "0", sales[0].TokenID)
	assert.Equal(t, uint64(1000), sales[0].BlockNumber)
	assert.Equal(t, "0xb0", sales[0].Buyer)
	assert.Equal(t, "0xs0", sales[0].Seller)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.SalesFetched.WithLabelValues("recent")))
}

func TestGetRecentSales_StopsAtLimit(t *testing.T) {
	srv := &salesServer{perPage: 4, totalPages: 10}
	client := newTestClient(t, srv, nil)

	sales, err := client.GetRecentSales(context.Background(), 6)
	require.NoError(t, err)
	assert.Len(t, sales, 6)

	reqs := srv.recorded()
	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[0].pageKey)
	assert.Equal(t, "1", reqs[1].pageKey)
}

func TestGetRecentSales_FollowsPagesUntilNoKey(t *testing.T) {
	srv := &salesServer{perPage: 2, totalPages: 3}
	client := newTestClient(t, srv, nil)

	sales, err := client.GetRecentSales(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, sales, 6)
	assert.Len(t, srv.recorded(), 3)
}

func TestGetRecentSales_PageSizeCapped(t *testing.T) {
	srv := &salesServer{perPage: 1, totalPages: 1}
	client := newTestClient(t, srv, nil)

	_, err := client.GetRecentSales(context.Background(), 5000)
	require.NoError(t, err)
	reqs := srv.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, strconv.Itoa(MaxPageSize), reqs[0].limit)
}

func TestGetRecentSales_FirstPageFailureYieldsEmpty(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	client := newTestClient(t, handler, nil)

	sales, err := client.GetRecentSales(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestGetRecentSales_KeepsPartialResults(t *testing.T) {
	srv := &salesServer{perPage: 2, totalPages: 5, failFrom: 1, status: http.StatusInternalServerError}
	client := newTestClient(t, srv, nil)

	sales, err := client.GetRecentSales(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, sales, 2)
	// first page once, second page exhausted retries
	assert.Len(t, srv.recorded(), 3)
}

func TestGetRecentSales_FatalErrorReturned(t *testing.T) {
	srv := &salesServer{perPage: 2, totalPages: 5, failFrom: 1, status: http.StatusUnauthorized}
	client := newTestClient(t, srv, nil)

	sales, err := client.GetRecentSales(context.Background(), 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrFatal)
	assert.Nil(t, sales)
}

func TestGetRecentSales_ZeroLimit(t *testing.T) {
	srv := &salesServer{perPage: 2, totalPages: 1}
	client := newTestClient(t, srv, nil)

	sales, err := client.GetRecentSales(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, sales)
	assert.Empty(t, srv.recorded())
}

func TestGetSalesForToken_Params(t *testing.T) {
	srv := &salesServer{perPage: 2, totalPages: 1}
	m := metrics.NewMetrics()
	client := newTestClient(t, srv, m)

	sales, err := client.GetSalesForToken(context.Background(), "0xabc", "42", 200)
	require.NoError(t, err)
	assert.Len(t, sales, 2)

	reqs := srv.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "asc", reqs[0].order)
	assert.Equal(t, "0xabc", reqs[0].contractAddress)
	assert.Equal(t, "42", reqs[0].tokenID)
	assert.Equal(t, "200", reqs[0].limit)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SalesFetched.WithLabelValues("token")))
}

func TestGetSalesForToken_CanceledDuringPageDelay(t *testing.T) {
	srv := &salesServer{perPage: 1, totalPages: 5}
	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()

	client := NewClient(fetch.New(), Options{BaseURL: httpSrv.URL, PageDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := client.GetSalesForToken(ctx, "0xabc", "1", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetRecentSales_DropsIncompleteItems(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"nftSales":[
			{"contractAddress":"0xA","tokenId":7,"blockNumber":"0x10"},
			{"contractAddress":"0xA","tokenId":"8"},
			{"tokenId":"9","blockNumber":5},
			{"contractAddress":"0xA","tokenId":"10","blockNumber":"not-a-number"},
			{"contractAddress":"0xA","tokenId":"11","blockNumber":"12"}
		]}`))
	})
	client := newTestClient(t, handler, nil)

	sales, err := client.GetRecentSales(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "7", sales[0].TokenID)
	assert.Equal(t, uint64(16), sales[0].BlockNumber)
	assert.Equal(t, "11", sales[1].TokenID)
	assert.Equal(t, uint64(12), sales[1].BlockNumber)
}

func TestGetRecentSales_DroppedItemsCountTowardLimit(t *testing.T) {
	var calls int
	var mu sync.Mutex
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		// one valid and one incomplete item per page, always another page
		fmt.Fprintf(w, `{"nftSales":[
			{"contractAddress":"0xA","tokenId":"%d","blockNumber":%d},
			{"contractAddress":"0xA","tokenId":"x%d"}
		],"pageKey":"%d"}`, n, 100+n, n, n)
	})
	client := newTestClient(t, handler, nil)

	sales, err := client.GetRecentSales(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, sales, 2)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}
