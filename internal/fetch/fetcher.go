package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/nao1215/boardcrawl/internal/metrics"
)

// Default values for a Fetcher.
const (
	DefaultMinDelay    = 100 * time.Millisecond
	DefaultMaxDelay    = 1000 * time.Millisecond
	DefaultMaxRetries  = 100
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
	DefaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
)

// Page is a successfully fetched and parsed document.
type Page struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Raw is the response body, kept for diagnostics when extraction fails.
	Raw []byte

	// Doc is the parsed document. Doc.Url is set to the final URL so relative
	// links can be resolved against it.
	Doc *goquery.Document
}

// Fetcher downloads pages with jittered retry.
type Fetcher struct {
	client      *http.Client
	budget      *RetryBudget
	limiter     *rate.Limiter
	minDelay    time.Duration
	maxDelay    time.Duration
	maxRetries  int
	userAgent   string
	headers     http.Header
	maxBodySize int64
	logger      *slog.Logger
	metrics     *metrics.Metrics

	// jitter and sleep are replaced in tests.
	jitter func(minDelay, maxDelay time.Duration) time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBudget shares an existing retry budget with this Fetcher.
func WithBudget(b *RetryBudget) Option {
	return func(f *Fetcher) {
		f.budget = b
	}
}

// WithRetryWindow sets the range the retry delay is drawn from.
func WithRetryWindow(minDelay, maxDelay time.Duration) Option {
	return func(f *Fetcher) {
		f.minDelay = minDelay
		f.maxDelay = maxDelay
	}
}

// WithMaxRetries sets the consecutive failure ceiling.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithRequestInterval gates every attempt behind a limiter that allows one
// request per interval. Zero disables the limiter.
func WithRequestInterval(d time.Duration) Option {
	return func(f *Fetcher) {
		if d <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeaders adds headers sent with every request.
func WithHeaders(h map[string]string) Option {
	return func(f *Fetcher) {
		for k, v := range h {
			f.headers.Set(k, v)
		}
	}
}

// WithMaxBodySize limits how many bytes of a response body are read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithMetrics reports fetch outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// New creates a Fetcher using client. A nil client means http.DefaultClient.
func New(client *http.Client, opts ...Option) (*Fetcher, error) {
	if client == nil {
		client = http.DefaultClient
	}

	f := &Fetcher{
		client:      client,
		minDelay:    DefaultMinDelay,
		maxDelay:    DefaultMaxDelay,
		maxRetries:  DefaultMaxRetries,
		userAgent:   DefaultUserAgent,
		headers:     make(http.Header),
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
		jitter:      uniformJitter,
		sleep:       sleepContext,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.budget == nil {
		f.budget = NewRetryBudget()
	}
	if f.minDelay < 0 || f.minDelay > f.maxDelay {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRetryWindow, f.minDelay, f.maxDelay)
	}
	if f.maxRetries <= 0 {
		return nil, ErrInvalidMaxRetries
	}

	return f, nil
}

// Budget returns the retry budget used by this Fetcher.
func (f *Fetcher) Budget() *RetryBudget {
	return f.budget
}

// Fetch downloads and parses pageURL, retrying until it succeeds, the retry
// ceiling is reached or ctx is cancelled. Cancellation is returned as ctx.Err()
// and does not count as a failure.
//
// While the breaker is open, Fetch waits one retry delay before its single
// attempt.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if f.budget.Count() >= f.maxRetries {
		delay := f.jitter(f.minDelay, f.maxDelay)
		f.logger.Debug("circuit open, delaying half-open attempt",
			"url", pageURL,
			"failures", f.budget.Count(),
			"delay", delay)
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	for attempt := 1; ; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		page, err := f.fetchOnce(ctx, pageURL)
		f.metrics.ObserveFetch(time.Since(start))
		if err == nil {
			f.budget.Reset()
			f.metrics.IncPagesFetched()
			return page, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		failures := f.budget.Fail()
		f.metrics.IncFetchRetries()

		if failures >= f.maxRetries {
			f.metrics.IncCircuitTrips()
			f.logger.Error("retry ceiling reached",
				"url", pageURL,
				"attempt", attempt,
				"failures", failures,
				"error", err)
			return nil, fmt.Errorf("%w after %d consecutive failures fetching %s: %w",
				ErrCircuitOpen, failures, pageURL, err)
		}

		delay := f.jitter(f.minDelay, f.maxDelay)
		f.logger.Warn("fetch failed, retrying",
			"url", pageURL,
			"attempt", attempt,
			"failures", failures,
			"delay", delay,
			"error", err)

		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// fetchOnce performs a single GET and parses the body.
func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.headers {
		req.Header[k] = v
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyDocument
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if doc.Find("body").Children().Length() == 0 && doc.Find("body").Text() == "" {
		return nil, ErrEmptyDocument
	}
	doc.Url = resp.Request.URL

	return &Page{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Raw:        body,
		Doc:        doc,
	}, nil
}

// uniformJitter returns a delay uniformly distributed in [minDelay, maxDelay].
func uniformJitter(minDelay, maxDelay time.Duration) time.Duration {
	if maxDelay <= minDelay {
		return minDelay
	}
	return minDelay + rand.N(maxDelay-minDelay+1) //nolint:gosec // jitter does not need a CSPRNG
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// IsCircuitOpen reports whether err signals a tripped breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
