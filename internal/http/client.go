package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Common errors.
var (
	ErrNotFound     = errors.New("http: resource not found")
	ErrForbidden    = errors.New("http: access forbidden")
	ErrUnauthorized = errors.New("http: unauthorized")
	ErrServerError  = errors.New("http: server error")
	ErrReadTimeout  = errors.New("http: read timeout")
)

// DefaultUserAgent is sent with every request. The Census file server
// rejects some non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Options configures the HTTP client.
type Options struct {
	// UserAgent is sent as the User-Agent header.
	// Default: DefaultUserAgent
	UserAgent string

	// ConnectTimeout bounds dialing the remote host.
	// Default: 30s
	ConnectTimeout time.Duration

	// ReadTimeout bounds the wait for response headers and for each
	// read of the response body.
	// Default: 300s
	ReadTimeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 2
	MaxIdleConnsPerHost int
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:           DefaultUserAgent,
		ConnectTimeout:      30 * time.Second,
		ReadTimeout:         300 * time.Second,
		MaxIdleConnsPerHost: 2,
	}
}

// FileInfo contains metadata about a remote file.
type FileInfo struct {
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Client is a reusable HTTP client configured once with headers and
// timeouts. Requests are made one at a time and are not retried here;
// callers own their retry policy.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
// Zero fields fall back to DefaultOptions.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = def.ConnectTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = def.ReadTimeout
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}

	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
		MaxIdleConns:          opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		client: &http.Client{Transport: transport},
		opts:   opts,
	}
}

// Head performs a HEAD request to get file metadata.
func (c *Client) Head(ctx context.Context, url string) (*FileInfo, error) {
	req, err := c.newRequest(ctx, http.MethodHead, url)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	info := &FileInfo{
		Size:        resp.ContentLength,
		ETag:        cleanETag(resp.Header.Get("ETag")),
		ContentType: resp.Header.Get("Content-Type"),
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			info.LastModified = t
		}
	}
	return info, nil
}

// Get performs a single GET request. The returned body enforces the
// read timeout between successive reads and must be closed.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		cancel()
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		cancel()
		return nil, err
	}

	return newIdleReader(resp.Body, c.opts.ReadTimeout, cancel), nil
}

func (c *Client) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "*/*")
	return req, nil
}

// checkStatus returns an appropriate error for non-success status codes.
func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500:
		return fmt.Errorf("%w: %s", ErrServerError, resp.Status)
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}

// cleanETag removes quotes from an ETag value.
func cleanETag(etag string) string {
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, `"`)
	return etag
}

// idleReader cancels the request when no read completes within timeout.
type idleReader struct {
	rc      io.ReadCloser
	timeout time.Duration
	cancel  context.CancelFunc
	timer   *time.Timer

	mu      sync.Mutex
	expired bool
}

func newIdleReader(rc io.ReadCloser, timeout time.Duration, cancel context.CancelFunc) *idleReader {
	r := &idleReader{rc: rc, timeout: timeout, cancel: cancel}
	r.timer = time.AfterFunc(timeout, r.expire)
	return r
}

func (r *idleReader) expire() {
	r.mu.Lock()
	r.expired = true
	r.mu.Unlock()
	r.cancel()
}

func (r *idleReader) Read(p []byte) (int, error) {
	r.timer.Reset(r.timeout)
	n, err := r.rc.Read(p)
	if err != nil && err != io.EOF {
		r.mu.Lock()
		expired := r.expired
		r.mu.Unlock()
		if expired {
			return n, fmt.Errorf("%w after %s: %v", ErrReadTimeout, r.timeout, err)
		}
	}
	return n, err
}

func (r *idleReader) Close() error {
	r.timer.Stop()
	err := r.rc.Close()
	r.cancel()
	return err
}
