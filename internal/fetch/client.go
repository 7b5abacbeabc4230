package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default client settings.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = 10 * 1024 * 1024
	DefaultUserAgent   = "mirrorsync/1.0 (+https://github.com/nao1215/mirrorsync)"
)

// Client performs HTTP requests against upstream sources and mirrors.
type Client struct {
	http        *http.Client
	tor         *http.Client
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger

	// dialRetries is the number of extra attempts made when connecting
	// times out, before the error is handed to the caller.
	dialRetries    int
	dialRetryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTorClient routes requests to .onion hosts through hc.
func WithTorClient(hc *http.Client) Option {
	return func(c *Client) {
		c.tor = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodySize limits how many bytes of a response body are read.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithConnectRetry retries a GET up to n extra times, waiting delay
// between attempts, when establishing the connection times out.
func WithConnectRetry(n int, delay time.Duration) Option {
	return func(c *Client) {
		c.dialRetries = n
		c.dialRetryDelay = delay
	}
}

// NewClient returns a Client whose requests time out after timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = newHTTPClient(timeout)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}
}

// clientFor picks the Tor client for .onion hosts when one is configured.
func (c *Client) clientFor(rawURL string) *http.Client {
	if c.tor == nil {
		return c.http
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return c.http
	}
	if strings.HasSuffix(strings.ToLower(u.Hostname()), ".onion") {
		return c.tor
	}
	return c.http
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// Get fetches rawURL and returns the response body.
// Non-2xx responses are returned as *StatusError.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		body, err := c.get(ctx, rawURL, headers)
		if err == nil || attempt >= c.dialRetries || !isConnectTimeout(err) {
			return body, err
		}
		c.logger.Debug("connect timeout, retrying",
			"url", rawURL,
			"attempt", attempt+1,
		)
		if err := sleep(ctx, c.dialRetryDelay); err != nil {
			return nil, err
		}
	}
}

func (c *Client) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, headers)
	if err != nil {
		return nil, err
	}

	resp, err := c.clientFor(rawURL).Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrBodyTooLarge)
	}
	return body, nil
}

// Header issues a GET to rawURL and returns the value of the named
// response header. The status code is not checked: mirrors announce
// their alternative locations on error pages too.
func (c *Client) Header(ctx context.Context, rawURL, name string) (string, bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, err
	}

	resp, err := c.clientFor(rawURL).Do(req)
	if err != nil {
		return "", false, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	values := resp.Header.Values(name)
	if len(values) == 0 {
		return "", false, nil
	}
	return values[0], true, nil
}

// Head reports whether https://<domain> answers a HEAD request at all.
// Any HTTP response counts; only transport failures mark it unreachable.
func (c *Client) Head(ctx context.Context, domain string) bool {
	rawURL := "https://" + domain
	req, err := c.newRequest(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.clientFor(rawURL).Do(req)
	if err != nil {
		c.logger.Debug("liveness probe failed", "domain", domain, "error", err)
		return false
	}
	_ = resp.Body.Close()
	return true
}

func isConnectTimeout(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" && opErr.Timeout() {
		return true
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
