package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "goldradar/1.1 (+github pages bot)"

// ParseFunc validates and decodes a fetched payload. A non-nil error counts
// the attempt as failed, the same as a network error or bad status.
type ParseFunc func(body []byte) error

// ExhaustedError reports that every candidate URL ran out of attempts. Last
// preserves the underlying cause for diagnostics.
type ExhaustedError struct {
	URLs []string
	Last error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all candidates exhausted (%s): %v", strings.Join(e.URLs, ", "), e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Client performs all outbound HTTP for the pipeline.
type Client struct {
	Http *resty.Client
	// Sleep is the delay hook between failed attempts, replaceable in tests.
	Sleep func(time.Duration)
}

// NewClient creates a fetch client with optional proxy support.
func NewClient(timeout time.Duration, proxyURL string) *Client {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", defaultUserAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	if proxyURL != "" {
		c.SetProxy(proxyURL)
	}
	return &Client{Http: c, Sleep: time.Sleep}
}

// Fetch performs a single GET. Non-2xx status and empty bodies are errors.
func (c *Client) Fetch(rawURL string) ([]byte, error) {
	res, err := c.Http.R().Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", rawURL, res.StatusCode())
	}
	body := res.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("get %s: empty body", rawURL)
	}
	return body, nil
}

// FetchRetry fetches one URL with up to attempts tries, sleeping backoff after
// each failure. Exhaustion returns an *ExhaustedError.
func (c *Client) FetchRetry(rawURL string, attempts int, backoff time.Duration) ([]byte, error) {
	return c.FetchRetryFunc(rawURL, attempts, backoff, nil)
}

// FetchRetryFunc is FetchRetry with a decode step inside the retry loop: a
// payload that fails parse burns an attempt like any network failure.
func (c *Client) FetchRetryFunc(rawURL string, attempts int, backoff time.Duration, parse ParseFunc) ([]byte, error) {
	var last error
	for i := 0; i < attempts; i++ {
		body, err := c.Fetch(rawURL)
		if err == nil && parse != nil {
			err = parse(body)
		}
		if err == nil {
			return body, nil
		}
		last = err
		c.Sleep(backoff)
	}
	return nil, &ExhaustedError{URLs: []string{rawURL}, Last: last}
}

// FetchFirst tries each candidate URL's full retry budget in order and returns
// the first success along with the URL that served it.
func (c *Client) FetchFirst(urls []string, attempts int, backoff time.Duration) ([]byte, string, error) {
	return c.FetchFirstFunc(urls, attempts, backoff, nil)
}

// FetchFirstFunc is FetchFirst with a decode step per attempt.
func (c *Client) FetchFirstFunc(urls []string, attempts int, backoff time.Duration, parse ParseFunc) ([]byte, string, error) {
	var last error
	for _, u := range urls {
		body, err := c.FetchRetryFunc(u, attempts, backoff, parse)
		if err == nil {
			return body, u, nil
		}
		var ex *ExhaustedError
		if errors.As(err, &ex) {
			last = ex.Last
		} else {
			last = err
		}
	}
	return nil, "", &ExhaustedError{URLs: urls, Last: last}
}
