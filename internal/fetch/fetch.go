package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jobscout/internal/model"
)

// Ensure Client implements model.PageFetcher.
var _ model.PageFetcher = (*Client)(nil)

// Client fetches raw pages over HTTP. Non-2xx responses come back as
// *model.HTTPError so retry logic can classify them; an empty body counts
// as a failed fetch because no extractor can do anything with it.
type Client struct {
	httpClient *http.Client
	userAgent  string
	headers    map[string]string // per-source extra headers
}

// NewClient returns a page fetcher using the given http.Client. The extra
// headers are sent on every request, after the User-Agent.
func NewClient(httpClient *http.Client, userAgent string, headers map[string]string) *Client {
	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
		headers:    headers,
	}
}

// FetchPage retrieves the body at url.
func (c *Client) FetchPage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("fetch %s", url),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch %s: empty response body", url)
	}
	return body, nil
}

// ParseRetryAfter reads a Retry-After value given in seconds. HTTP-date
// values and garbage come back as zero.
func ParseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
