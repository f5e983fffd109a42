// Package collyfetcher implements engine.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/linkdepth/linkdepth/internal/engine"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher fetches single URLs with a cloned Colly collector per request.
// Robots handling, retries and politeness belong to the surrounding
// infrastructure, not here.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// New builds a Fetcher with a pooled HTTP transport.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// The driver legitimately fetches a URL more than once (seed check,
	// then exploration); the frontier's dupe filter owns revisit policy.
	c.AllowURLRevisit = true

	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

type fetchResult struct {
	page engine.Page
	err  error
}

// Fetch executes a single HTTP GET. The visiting goroutine owns the page
// until it is delivered over the channel, so an abandoned fetch after ctx
// cancellation can never write into a page the caller holds.
func (f *Fetcher) Fetch(ctx context.Context, url string) (engine.Page, error) {
	done := make(chan fetchResult, 1)
	go func() {
		var (
			page     engine.Page
			fetchErr error
		)
		collector := f.buildCollector(&page, &fetchErr)
		err := collector.Visit(url)
		switch {
		case err != nil:
			done <- fetchResult{err: fmt.Errorf("colly visit failed: %w", err)}
		case fetchErr != nil:
			done <- fetchResult{err: fmt.Errorf("colly response failed: %w", fetchErr)}
		default:
			done <- fetchResult{page: page}
		}
	}()

	select {
	case <-ctx.Done():
		return engine.Page{}, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case res := <-done:
		return res.page, res.err
	}
}

func (f *Fetcher) buildCollector(result *engine.Page, fetchErr *error) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.IgnoreRobotsTxt = true
	collector.AllowURLRevisit = true
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	collector.WithTransport(f.transport)

	collector.OnResponse(func(r *colly.Response) {
		*result = engine.Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
	return collector
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
