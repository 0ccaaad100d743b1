// Package proxy holds the in-memory pool of candidate proxy endpoints used
// by the download pipeline's retry-with-rotation policy. The pool lives for
// the process lifetime only; nothing is persisted across runs.
package proxy

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// Endpoint is one proxy candidate parsed from a config file or CLI flag.
type Endpoint struct {
	Raw string
	URL *url.URL

	lastResult bool
	lastTested time.Time
}

// Address returns host:port.
func (e *Endpoint) Address() string { return e.URL.Host }

// Protocol returns the endpoint scheme (http, https, socks5).
func (e *Endpoint) Protocol() string { return e.URL.Scheme }

// LastTestResult reports the outcome and time of the most recent health
// probe. ok is false when the endpoint was never probed.
func (e *Endpoint) LastTestResult() (ok bool, at time.Time) {
	return e.lastResult, e.lastTested
}

func (e *Endpoint) recordTest(ok bool) {
	e.lastResult = ok
	e.lastTested = time.Now()
}

// Redacted returns the endpoint without credentials, for log output.
func (e *Endpoint) Redacted() string {
	if e.URL.User == nil {
		return e.Raw
	}
	u := *e.URL
	u.User = url.User(e.URL.User.Username())
	return u.Scheme + "://" + u.User.Username() + ":***@" + u.Host
}

// ParseEndpoint parses a protocol://[user:pass@]host:port line. A missing
// scheme defaults to http://.
func ParseEndpoint(raw string) (*Endpoint, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("empty proxy entry")
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy %q: missing host", raw)
	}
	// socks4 is excluded: the health probe's http.Transport cannot relay it.
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("invalid proxy %q: unsupported scheme %q", raw, u.Scheme)
	}
	return &Endpoint{Raw: s, URL: u}, nil
}

// Pool tracks candidate endpoints and which of them failed during the
// current run. Selection is an ordered walk with an exclusion set; there is
// no cyclic state.
type Pool struct {
	mu        sync.Mutex
	endpoints []*Endpoint
	failed    map[string]struct{}
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{failed: make(map[string]struct{})}
}

// Add parses and appends a single endpoint.
func (p *Pool) Add(raw string) error {
	e, err := ParseEndpoint(raw)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.endpoints = append(p.endpoints, e)
	p.mu.Unlock()
	return nil
}

// Load reads endpoints from r, one per line. Blank lines, comments and
// malformed entries are skipped. Returns the number of endpoints added.
func (p *Pool) Load(r io.Reader) (int, error) {
	added := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := p.Add(line); err != nil {
			continue
		}
		added++
	}
	if err := scanner.Err(); err != nil {
		return added, err
	}
	return added, nil
}

// LoadFile reads endpoints from the named proxy list file.
func (p *Pool) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return p.Load(f)
}

// Next returns the first endpoint that is neither in the exclusion set nor
// marked failed within the current run. ok is false on exhaustion.
func (p *Pool) Next(exclude map[string]struct{}) (*Endpoint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.endpoints {
		if _, skip := exclude[e.Raw]; skip {
			continue
		}
		if _, bad := p.failed[e.Raw]; bad {
			continue
		}
		return e, true
	}
	return nil, false
}

// MarkFailed excludes the endpoint from selection for the rest of the run.
func (p *Pool) MarkFailed(e *Endpoint) {
	if e == nil {
		return
	}
	p.mu.Lock()
	p.failed[e.Raw] = struct{}{}
	p.mu.Unlock()
	e.recordTest(false)
}

// Len returns the number of loaded endpoints.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.endpoints)
}

// FailedCount returns how many endpoints were marked failed this run.
func (p *Pool) FailedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.failed)
}

// HasProxies reports whether any endpoints are loaded.
func (p *Pool) HasProxies() bool { return p.Len() > 0 }
