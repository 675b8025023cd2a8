package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cavaliergopher/grab/v3"
	"github.com/rs/zerolog"
)

const (
	// MaxPayloadSize is the hard ceiling on a single download.
	MaxPayloadSize = 300 << 20
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts = 3
	// DefaultTimeout bounds one HTTP attempt.
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is sent when no version-specific agent is set.
	DefaultUserAgent = "jas"
)

var errPayloadTooLarge = errors.New("payload exceeds size limit")

// Downloader fetches release assets into memory with retry on timeouts.
type Downloader struct {
	client  *grab.Client
	maxSize int64
	token   string
	log     zerolog.Logger

	// sleep waits between attempts. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) {
		d.client.HTTPClient = &limitedClient{inner: c, max: &d.maxSize}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) DownloaderOption {
	return func(d *Downloader) { d.client.UserAgent = ua }
}

// WithToken sends a bearer token to GitHub hosts.
func WithToken(token string) DownloaderOption {
	return func(d *Downloader) { d.token = token }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(log zerolog.Logger) DownloaderOption {
	return func(d *Downloader) { d.log = log }
}

// WithMaxSize overrides MaxPayloadSize.
func WithMaxSize(n int64) DownloaderOption {
	return func(d *Downloader) { d.maxSize = n }
}

// WithSleep overrides the wait between attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) DownloaderOption {
	return func(d *Downloader) { d.sleep = fn }
}

// NewDownloader creates a downloader with the default limits.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client:  grab.NewClient(),
		maxSize: MaxPayloadSize,
		log:     zerolog.Nop(),
		sleep:   sleepContext,
	}
	d.client.UserAgent = DefaultUserAgent
	d.client.HTTPClient = &limitedClient{
		inner: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		max: &d.maxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch downloads rawURL into memory.
//
// Only timeouts are retried, waiting i*i+1 seconds before retry i (counting
// from zero). Any other failure, or running out of attempts, returns
// ErrTransport wrapping the cause.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (*Payload, error) {
	name, err := payloadName(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if attempt > 0 {
			retry := attempt - 1
			wait := time.Duration(retry*retry+1) * time.Second
			d.log.Warn().Err(lastErr).Msgf("Request timed out, retrying in %s (attempt %d of %d)", wait, attempt+1, MaxAttempts)
			if err := d.sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrTransport, rawURL, err)
			}
		}

		data, err := d.fetchOnce(ctx, rawURL, name)
		if err == nil {
			d.log.Debug().Str("url", rawURL).Int("bytes", len(data)).Msg("Downloaded")
			return &Payload{Name: name, Data: data}, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isTimeout(err) {
			return nil, fmt.Errorf("%w: %s: %v", ErrTransport, rawURL, err)
		}
	}

	return nil, fmt.Errorf("%w: %s: giving up after %d attempts: %v", ErrTransport, rawURL, MaxAttempts, lastErr)
}

func (d *Downloader) fetchOnce(ctx context.Context, rawURL, name string) ([]byte, error) {
	req, err := grab.NewRequest(name, rawURL)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req = req.WithContext(ctx)
	req.NoStore = true
	req.NoResume = true
	req.BeforeCopy = func(resp *grab.Response) error {
		if n := resp.HTTPResponse.ContentLength; n > d.maxSize {
			return fmt.Errorf("%w: server declared %d bytes, limit is %d", errPayloadTooLarge, n, d.maxSize)
		}
		return nil
	}
	if d.token != "" && isGitHubHost(req.HTTPRequest.URL.Host) {
		req.HTTPRequest.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp := d.client.Do(req)
	if err := resp.Err(); err != nil {
		return nil, err
	}
	data, err := resp.Bytes()
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > d.maxSize {
		return nil, fmt.Errorf("%w: got %d bytes, limit is %d", errPayloadTooLarge, len(data), d.maxSize)
	}
	return data, nil
}

// payloadName returns the file name the payload's format is inferred from.
func payloadName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid URL %q: scheme must be http or https", rawURL)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("invalid URL %q: no file name in path", rawURL)
	}
	return name, nil
}

func isGitHubHost(host string) bool {
	return host == "github.com" || host == "api.github.com"
}

// isTimeout reports whether err is a timeout, either by type or by message.
func isTimeout(err error) bool {
	if errors.Is(err, errPayloadTooLarge) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// limitedClient fails reads once a body grows past max, so an undeclared
// oversized payload is rejected instead of buffered.
type limitedClient struct {
	inner *http.Client
	max   *int64
}

func (c *limitedClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.inner.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body = &limitedBody{ReadCloser: resp.Body, remaining: *c.max + 1, max: *c.max}
	return resp, nil
}

type limitedBody struct {
	io.ReadCloser
	remaining int64
	max       int64
}

func (b *limitedBody) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		return 0, fmt.Errorf("%w: body larger than %d bytes", errPayloadTooLarge, b.max)
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.ReadCloser.Read(p)
	b.remaining -= int64(n)
	return n, err
}
