package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/docstash/internal/model"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
	RateBurst     int
	MaxBodyBytes  int64
	MaxRetries    int
	RetryBackoff  time.Duration
}

// HTTPFetcher fetches web pages with a per-host rate limit.
type HTTPFetcher struct {
	opts   HTTPOptions
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTP creates an HTTPFetcher.
func NewHTTP(opts HTTPOptions) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = "docstash/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RatePerSecond == 0 {
		opts.RatePerSecond = 2
	}
	if opts.RateBurst == 0 {
		opts.RateBurst = 4
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = 32 * 1024 * 1024
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	return &HTTPFetcher{
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout},
		limiters: make(map[string]*rate.Limiter),
	}
}

func (f *HTTPFetcher) limiterFor(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.opts.RatePerSecond), f.opts.RateBurst)
		f.limiters[host] = l
	}
	return l
}

// Fetch retrieves source and extracts plain text. Non-2xx statuses are
// errors; transient failures (timeouts, resets, 429, 5xx) are retried with
// exponential backoff up to MaxRetries.
func (f *HTTPFetcher) Fetch(ctx context.Context, source string) (*model.FetchedPage, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: parse url %s", source)
	}

	if err := f.limiterFor(u.Host).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetch: rate limit wait")
	}

	start := time.Now()
	body, contentType, err := f.get(ctx, source)
	if err != nil {
		return nil, err
	}

	page := &model.FetchedPage{
		URL:         source,
		ContentType: model.ContentTypeWebPage,
		FetchedAt:   time.Now().UTC(),
	}

	raw := string(body)
	if strings.Contains(contentType, "text/html") {
		page.Title = extractTitle(raw)
		page.Text = StripHTML(raw)
	} else {
		page.ContentType = model.ContentTypeText
		page.Text = raw
	}

	zap.L().Debug("fetched page",
		zap.String("url", source),
		zap.Int("chars", len(page.Text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return page, nil
}

// get performs the GET with bounded retries and returns the body and the
// response Content-Type header.
func (f *HTTPFetcher) get(ctx context.Context, source string) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt <= f.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			zap.L().Debug("retrying fetch",
				zap.String("url", source),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			if err := backoffWait(ctx, attempt-1, f.opts.RetryBackoff); err != nil {
				return nil, "", eris.Wrap(err, "fetch: retry wait")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, "", eris.Wrapf(err, "fetch: build request %s", source)
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = eris.Wrapf(err, "fetch: GET %s", source)
			if isTransient(err) {
				continue
			}
			return nil, "", lastErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			lastErr = eris.Errorf("fetch: GET %s: status %d", source, resp.StatusCode)
			if retryableStatus(resp.StatusCode) {
				continue
			}
			return nil, "", lastErr
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
		resp.Body.Close()
		if err != nil {
			lastErr = eris.Wrapf(err, "fetch: read body %s", source)
			if isTransient(err) {
				continue
			}
			return nil, "", lastErr
		}

		return body, resp.Header.Get("Content-Type"), nil
	}
	return nil, "", lastErr
}
