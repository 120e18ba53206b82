package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/6529-Collections/flipscan/internal/metrics"
)

const DefaultTimeout = 30 * time.Second

// Fetcher issues JSON requests with a fixed timeout and bounded retries.
type Fetcher struct {
	client  *http.Client
	retry   RetryPolicy
	metrics *metrics.Metrics
}

type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(f *Fetcher) {
		f.retry = p
	}
}

// WithHTTPClient replaces the underlying client. Apply before WithTimeout
// if both are used.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: DefaultTimeout},
		retry:  DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.retry.Metrics == nil {
		f.retry.Metrics = f.metrics
	}
	return f
}

// HTTPClient returns the timeout-configured client so other transports can
// share it.
func (f *Fetcher) HTTPClient() *http.Client {
	return f.client
}

func (f *Fetcher) RetryPolicy() RetryPolicy {
	return f.retry
}

// GetJSON performs a GET on rawURL with params appended and decodes the
// body into out.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid url: %v", ErrFatal, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	target := u.String()

	return f.retry.Do(ctx, describe(u), func(ctx context.Context) error {
		return f.getOnce(ctx, target, out)
	})
}

func (f *Fetcher) getOnce(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Permanent(fmt.Errorf("%w: %v", ErrFatal, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.metrics.ObserveRequest("network_error")
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		drain(resp.Body)
		f.metrics.ObserveRequest("fatal")
		return Permanent(fmt.Errorf("%w: %w", ErrFatal, &StatusError{StatusCode: resp.StatusCode}))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		drain(resp.Body)
		f.metrics.ObserveRequest("http_error")
		return &StatusError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		f.metrics.ObserveRequest("malformed")
		return Permanent(fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	f.metrics.ObserveRequest("ok")
	return nil
}

func drain(body io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
}

// describe names a request for logs without the path segments that carry
// the API key.
func describe(u *url.URL) string {
	return fmt.Sprintf("GET %s/%s", u.Host, path.Base(u.Path))
}
