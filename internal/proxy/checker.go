package proxy

import (
	"context"
	"net/http"
	"time"
)

const (
	defaultTestURL     = "https://www.youtube.com"
	defaultTestTimeout = 10 * time.Second
)

// Checker probes whether an endpoint relays HTTP traffic. Probe results are
// recorded on the endpoint; the checker itself is stateless.
type Checker struct {
	// TestURL is fetched through the candidate proxy. Defaults to the
	// platform front page so a "working" proxy is one that reaches it.
	TestURL string

	// Timeout bounds one probe. Defaults to 10s.
	Timeout time.Duration
}

// Test fetches TestURL through e and records the result on the endpoint.
func (c *Checker) Test(ctx context.Context, e *Endpoint) bool {
	testURL := c.TestURL
	if testURL == "" {
		testURL = defaultTestURL
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTestTimeout
	}

	client := &http.Client{
		Transport: transportFor(e),
		Timeout:   timeout,
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, testURL, nil)
	if err != nil {
		e.recordTest(false)
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		e.recordTest(false)
		return false
	}
	defer resp.Body.Close()

	ok := resp.StatusCode < http.StatusBadRequest
	e.recordTest(ok)
	return ok
}

func transportFor(e *Endpoint) http.RoundTripper {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return http.DefaultTransport
	}
	transport := baseTransport.Clone()
	transport.Proxy = http.ProxyURL(e.URL)
	return transport
}
