// ABOUTME: HTTP fetcher with conditional requests using ETag and Last-Modified headers
// ABOUTME: Used for feed polling and article extraction, with SSRF and response-size protection

package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
	DefaultTimeout  = 30 * time.Second
	userAgent       = "readlist/1.0 (+https://github.com/harper/readlist)"
)

// Result contains the response from an HTTP fetch operation.
type Result struct {
	Body         []byte
	ContentType  string
	FinalURL     string
	ETag         string
	LastModified string
	NotModified  bool
}

// Fetcher performs bounded GET requests.
type Fetcher struct {
	client  *http.Client
	maxSize int64
}

// New returns a Fetcher whose requests time out after timeout. A zero
// timeout uses DefaultTimeout.
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: MaxResponseSize,
	}
}

var defaultFetcher = New(DefaultTimeout)

// Fetch retrieves a URL with the default fetcher.
func Fetch(ctx context.Context, urlStr string, etag, lastModified *string) (*Result, error) {
	return defaultFetcher.Fetch(ctx, urlStr, etag, lastModified)
}

// isPrivateIP checks if an IP address is in a private range (excluding loopback for tests).
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() {
		return false
	}
	return ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// Fetch retrieves urlStr. A non-empty etag sets If-None-Match and a
// non-empty lastModified sets If-Modified-Since; a 304 reply yields
// NotModified=true. Any other non-200 status is an error. Hosts resolving
// to private ranges are refused.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string, etag, lastModified *string) (*Result, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", parsedURL.Scheme)
	}

	if ips, err := net.DefaultResolver.LookupIP(ctx, "ip", parsedURL.Hostname()); err == nil {
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return nil, fmt.Errorf("access to private IP ranges is not allowed")
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	if etag != nil && *etag != "" {
		req.Header.Set("If-None-Match", *etag)
	}

	if lastModified != nil && *lastModified != "" {
		req.Header.Set("If-Modified-Since", *lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &Result{NotModified: true, FinalURL: resp.Request.URL.String()}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > f.maxSize {
		return nil, fmt.Errorf("response too large (exceeds %d bytes)", f.maxSize)
	}

	return &Result{
		Body:         body,
		ContentType:  resp.Header.Get("Content-Type"),
		FinalURL:     resp.Request.URL.String(),
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}
