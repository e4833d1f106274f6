package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
)

// ErrTimeout is returned when connection-level failures persist through the
// final retry attempt. Callers count these separately from HTTP status
// failures.
var ErrTimeout = errors.New("fetch timed out")

// Response is a completed HTTP exchange. It carries both the raw bytes
// (documents need them for hashing) and the decoded text (pages need it for
// parsing).
type Response struct {
	// StatusCode is the HTTP status of the final attempt.
	StatusCode int

	// Headers are the response headers in canonical form.
	Headers http.Header

	// Body is the raw response body, capped at the configured size.
	Body []byte

	// Text is Body decoded using the declared charset, defaulting to UTF-8.
	Text string
}

// OK reports whether the response carries a 200 status.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Header returns the first value of the named header.
func (r *Response) Header(name string) string {
	return r.Headers.Get(name)
}

// Fetcher performs single GETs through the shared rate limiter, retrying
// transient failures with linear backoff.
type Fetcher struct {
	client      *http.Client
	limiter     *DomainRateLimiter
	userAgent   string
	retries     int
	maxBodySize int64
	logger      *slog.Logger

	// backoff computes the delay before the next attempt. Replaceable in
	// tests to keep them fast.
	backoff func(attempt int) time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithRetries sets the number of attempts for transient failures.
// Values below 1 are ignored.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 1 {
			f.retries = n
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// WithMaxBodySize caps response body reads.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithBackoff replaces the backoff function.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(f *Fetcher) {
		f.backoff = fn
	}
}

// NewFetcher creates a Fetcher sharing the given rate limiter.
func NewFetcher(limiter *DomainRateLimiter, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: 20 * time.Second},
		limiter:     limiter,
		userAgent:   "civimon/1.0",
		retries:     3,
		maxBodySize: 20 * 1024 * 1024,
		backoff:     Backoff,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Backoff returns the delay before the next attempt: 1.5s x attempt.
// It is a pure function of the attempt number so the retry policy can be
// verified without a network.
func Backoff(attempt int) time.Duration {
	return time.Duration(attempt) * 1500 * time.Millisecond
}

// IsTransientStatus reports whether an HTTP status is worth retrying.
func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Fetch performs a GET against rawURL. Each attempt first blocks on the
// rate limiter for the URL's host. Transient failures are retried up to the
// configured attempt count; fatal statuses are returned immediately as a
// Response. Connection errors persisting through the last attempt surface
// as an error wrapping ErrTimeout.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	host := u.Host

	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		if err := f.limiter.Wait(ctx, host); err != nil {
			return nil, err
		}

		resp, err := f.attempt(ctx, rawURL)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt == f.retries {
				return nil, fmt.Errorf("%w: %s: %v", ErrTimeout, rawURL, err)
			}
			f.logger.Warn("retrying after connection error",
				"url", rawURL,
				"attempt", attempt,
				"error", err,
			)
			if err := f.sleep(ctx, f.backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		if IsTransientStatus(resp.StatusCode) && attempt < f.retries {
			f.logger.Warn("retrying after transient status",
				"url", rawURL,
				"status", resp.StatusCode,
				"attempt", attempt,
			)
			if err := f.sleep(ctx, f.backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		// Fatal statuses (404 and friends) and exhausted transient
		// statuses both come back as a plain response; the caller counts
		// them as HTTP errors, not timeouts.
		return resp, nil
	}

	// Unreachable: the loop always returns on its last attempt.
	return nil, fmt.Errorf("%w: %s: %v", ErrTimeout, rawURL, lastErr)
}

// attempt performs one GET and reads the body.
func (f *Fetcher) attempt(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		Text:       decodeText(body, resp.Header.Get("Content-Type")),
	}, nil
}

// sleep waits for d or until the context is cancelled.
func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// decodeText decodes body using the charset declared in the Content-Type
// header. Unknown or missing charsets fall back to interpreting the bytes
// as UTF-8, which is what nearly all municipal sites serve anyway.
func decodeText(body []byte, contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body)
	}

	label := strings.TrimSpace(params["charset"])
	if label == "" || strings.EqualFold(label, "utf-8") {
		return string(body)
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return string(body)
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
