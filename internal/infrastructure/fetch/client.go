// Package fetch wraps the retrying HTTP client the source fetchers share.
// A download either succeeds within the configured attempt budget or the
// run gives up on that feed.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"zipmarket/internal/domain"
)

const userAgent = "zipmarket/1.0"

// Client performs bounded-retry GETs against the public feed endpoints.
type Client struct {
	http *retryablehttp.Client
}

// NewClient builds a client that tries each request up to attempts times.
// A *slog.Logger plugs straight into retryablehttp's leveled logging.
func NewClient(attempts int, timeout time.Duration, logger *slog.Logger) *Client {
	if attempts < 1 {
		attempts = 1
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = attempts - 1
	rc.RetryWaitMin = 1 * time.Second
	rc.RetryWaitMax = 10 * time.Second
	rc.HTTPClient.Timeout = timeout
	if logger != nil {
		rc.Logger = logger
	} else {
		rc.Logger = nil
	}

	return &Client{http: rc}
}

// Get fetches the full body of url. Exhausted retries or a non-200 status
// surface as domain.ErrFeedUnavailable.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", url, domain.ErrFeedUnavailable, err)
	}
	return body, nil
}

// Download streams url into dest, for feed files too large to hold in
// memory. A partial file is removed before the error is returned.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	resp, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("download %s: %w: %w", url, domain.ErrFeedUnavailable, err)
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("close %s: %w", dest, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w: %w", url, domain.ErrFeedUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("get %s: status %s: %w", url, resp.Status, domain.ErrFeedUnavailable)
	}
	return resp, nil
}
