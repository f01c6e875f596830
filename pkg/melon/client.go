package melon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/melonchart/pkg/cache"
	"github.com/matzehuels/melonchart/pkg/httputil"
	"github.com/matzehuels/melonchart/pkg/observability"
)

// maxBodySize caps how much of a response is read. A full chart is well
// under 1 MiB.
const maxBodySize = 16 << 20

// cachePrefix namespaces chart responses in a shared cache backend.
const cachePrefix = "melon:"

// Client issues chart requests. It owns the HTTP client, request headers,
// optional response cache and retry policy.
//
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	cfg     Config
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
	retry   httputil.Policy
	url     string
	headers map[string]string
}

// NewClient creates a Client for cfg. Zero Config fields take their defaults.
//
// Parameters:
//   - cfg: endpoint and upstream identity (see [DefaultConfig])
//   - backend: response cache; nil disables caching
//   - ttl: how long a cached response stays fresh; 0 keeps it until replaced
//
// Returns an INVALID_CONFIG / INVALID_URL error if cfg fails validation.
func NewClient(cfg Config, backend cache.Cache, ttl time.Duration) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u, err := cfg.RequestURL()
	if err != nil {
		return nil, err
	}
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &Client{
		cfg:     cfg,
		http:    cfg.httpClient(),
		cache:   cache.NewScoped(backend, cachePrefix),
		ttl:     ttl,
		retry:   cfg.retryPolicy(),
		url:     u,
		headers: map[string]string{"User-Agent": cfg.UserAgent()},
	}, nil
}

// Config returns the effective configuration, defaults applied.
func (c *Client) Config() Config { return c.cfg }

// Fetch returns the raw chart response body.
//
// If refresh is false a fresh cached body is returned when available.
// Otherwise the endpoint is requested under the retry policy and a
// successful body is written to the cache.
//
// Errors are *RequestError values: a non-200 status, or StatusCode 0 for
// transport failures. Context cancellation is returned as-is.
func (c *Client) Fetch(ctx context.Context, refresh bool) ([]byte, error) {
	key := cache.HTTPKey(c.url)
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, key)
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, key)
	}

	var body []byte
	err := c.retry.Do(ctx, func() error {
		b, err := c.get(ctx)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		var re *httputil.RetryableError
		if errors.As(err, &re) {
			return nil, re.Err
		}
		return nil, err
	}

	if err := c.cache.Set(ctx, key, body, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, key, len(body))
	}
	return body, nil
}

// Invalidate drops the cached response, e.g. after it failed to parse.
func (c *Client) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, cache.HTTPKey(c.url))
}

// Close releases the cache backend.
func (c *Client) Close() error {
	return c.cache.Close()
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &RequestError{Endpoint: c.cfg.Endpoint, Cause: err}
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, httputil.Retryable(&RequestError{Endpoint: c.cfg.Endpoint, Cause: stripURL(err)})
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := c.checkStatus(resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, httputil.Retryable(&RequestError{
			StatusCode: resp.StatusCode,
			Endpoint:   c.cfg.Endpoint,
			Cause:      fmt.Errorf("read body: %w", err),
		})
	}
	return body, nil
}

func (c *Client) checkStatus(code int) error {
	if code == http.StatusOK {
		return nil
	}
	err := &RequestError{StatusCode: code, Endpoint: c.cfg.Endpoint}
	if code >= 500 || code == http.StatusTooManyRequests {
		return httputil.Retryable(err)
	}
	return err
}

// stripURL drops the *url.Error wrapper, whose message repeats the full
// request URL including cpKey.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
