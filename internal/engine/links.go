package engine

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/linkdepth/linkdepth/internal/frontier"
)

// Link is one candidate URL extracted from a page, with the priority it
// should be scheduled at.
type Link struct {
	URL      string
	Priority int
}

// paginationSelectors match the markup most sites use for pager widgets.
var paginationSelectors = []string{
	"a[rel=next]",
	"a[rel=prev]",
	"link[rel=next]",
	".pagination a[href]",
	".pager a[href]",
	".paginate a[href]",
	"ul.page-numbers a[href]",
	"nav.pagination a[href]",
	"#pagination a[href]",
}

// LinkExtractor pulls candidate links out of fetched pages. With the
// pagination-first strategy, links that look like pager controls are
// promoted ahead of ordinary links; detail pages usually sit behind list
// pages, so paginating early finds them sooner.
type LinkExtractor struct {
	strategy frontier.LinkStrategy
	logger   *zap.Logger
}

// NewLinkExtractor constructs a LinkExtractor.
func NewLinkExtractor(strategy frontier.LinkStrategy, logger *zap.Logger) *LinkExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkExtractor{strategy: strategy, logger: logger}
}

// Extract returns the page's candidate links, pagination candidates first.
// Unparseable documents yield no links; that is not an error worth failing
// a crawl over.
func (x *LinkExtractor) Extract(page Page) []Link {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		x.logger.Debug("unparseable page", zap.String("url", page.URL), zap.Error(err))
		return nil
	}
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}

	var links []Link
	seen := make(map[string]struct{})
	add := func(href string, priority int) {
		resolved, ok := resolveHref(base, href)
		if !ok {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, Link{URL: resolved, Priority: priority})
	}

	if x.strategy == frontier.StrategyPaginationFirst {
		found := 0
		for _, sel := range paginationSelectors {
			doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
				if href, ok := s.Attr("href"); ok {
					add(href, frontier.PriorityPagination)
					found++
				}
			})
		}
		if found > 0 {
			x.logger.Info("pagination detected", zap.String("url", page.URL), zap.Int("links", found))
		}
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			add(href, frontier.PriorityLink)
		}
	})

	return links
}

func resolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}
