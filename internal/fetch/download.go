// Package fetch performs the HTTP retrieval behind runtime and application
// provisioning: small plain-text metadata lookups and whole-payload
// downloads written atomically to disk.
//
// A Downloader never retries on its own. A failed call leaves the
// destination untouched so the provisioning loop can decide whether to try
// again.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "jrelaunch/1.0"
	// maxTextSize caps metadata responses
	maxTextSize = 1 << 20
	// maxRedirects mirrors net/http's default but reports a clear error
	maxRedirects = 10
)

// Downloader handles HTTP retrieval.
type Downloader struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithTimeout bounds every request. Zero leaves requests without a deadline
// beyond the caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Downloader) {
		d.timeout = timeout
	}
}

// WithUserAgent replaces DefaultUserAgent for all requests.
func WithUserAgent(userAgent string) Option {
	return func(d *Downloader) {
		if userAgent != "" {
			d.userAgent = userAgent
		}
	}
}

// WithHTTPClient substitutes the underlying client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.client = client
		}
	}
}

// NewDownloader creates a new downloader
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RequestOptions tweak a single request.
type RequestOptions struct {
	// UserAgent overrides the downloader's User-Agent for this request, for
	// endpoints that gate on client identity.
	UserAgent string
}

// FetchText retrieves a small plain-text resource and returns its body with
// surrounding whitespace trimmed. Failures are *RemoteLookupError.
func (d *Downloader) FetchText(ctx context.Context, url string, opts RequestOptions) (string, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	resp, err := d.get(ctx, url, opts)
	if err != nil {
		return "", &RemoteLookupError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTextSize))
	if err != nil {
		return "", &RemoteLookupError{URL: url, Err: fmt.Errorf("read response body: %w", err)}
	}

	return strings.TrimSpace(string(body)), nil
}

// DownloadToFile downloads url to destPath, creating parent directories.
// The body is written to destPath+".tmp" and renamed into place, so
// destPath is either absent or complete. Failures are *DownloadError.
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath string, opts RequestOptions) error {
	if err := d.downloadOnce(ctx, url, destPath, opts); err != nil {
		return &DownloadError{URL: url, Path: destPath, Err: err}
	}
	return nil
}

func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string, opts RequestOptions) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	resp, err := d.get(ctx, url, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// get issues the request and rejects non-2xx responses. On success the
// caller owns resp.Body.
func (d *Downloader) get(ctx context.Context, url string, opts RequestOptions) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	userAgent := d.userAgent
	if opts.UserAgent != "" {
		userAgent = opts.UserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &HTTPStatusError{Code: resp.StatusCode}
	}

	return resp, nil
}

func (d *Downloader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.timeout)
}

// HTTPStatusError reports a non-2xx response.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// RemoteLookupError is a failed metadata query.
type RemoteLookupError struct {
	URL string
	Err error
}

func (e *RemoteLookupError) Error() string {
	return fmt.Sprintf("remote lookup %s: %v", e.URL, e.Err)
}

func (e *RemoteLookupError) Unwrap() error { return e.Err }

// DownloadError is a failed payload download.
type DownloadError struct {
	URL  string
	Path string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s to %s: %v", e.URL, e.Path, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// IsRemoteFailure reports whether err came from the network or the remote
// service rather than local state.
func IsRemoteFailure(err error) bool {
	var lookup *RemoteLookupError
	var download *DownloadError
	return errors.As(err, &lookup) || errors.As(err, &download)
}
