package engine

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/linkdepth/linkdepth/internal/frontier"
	"github.com/linkdepth/linkdepth/internal/metrics"
	"github.com/linkdepth/linkdepth/internal/seeds"
)

// Page is a fetched response as seen by the driver loop.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher fetches a single URL. Implementations must honor ctx.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// FoundSink receives one record per ground-truth URL located, the crawl's
// result feed. A nil sink disables the feed.
type FoundSink interface {
	Write(info *frontier.RequestInfo) error
	Close() error
}

// Config controls a crawl run.
type Config struct {
	CrawlID  string
	Strategy frontier.LinkStrategy
}

// Engine owns the driver loop. All scheduler and tracker mutation happens on
// the goroutine that calls Run, so none of the frontier state needs locks.
type Engine struct {
	sched   *frontier.Scheduler
	tracker *frontier.Tracker
	fetcher Fetcher
	clock   frontier.Clock
	found   FoundSink
	links   *LinkExtractor
	cfg     Config
	logger  *zap.Logger
	status  atomic.Pointer[Status]
}

// DomainStatus is one domain's progress as reported by the status API.
type DomainStatus struct {
	Domain           string `json:"domain"`
	PendingSeeds     int    `json:"pending_seeds"`
	RemainingTargets int    `json:"remaining_targets"`
}

// Status is a point-in-time view of the crawl, published after every
// processed request so other goroutines can read it without touching the
// single-threaded frontier state.
type Status struct {
	CrawlID      string         `json:"crawl"`
	FrontierSize int            `json:"frontier_size"`
	Stats        frontier.Stats `json:"stats"`
	Domains      []DomainStatus `json:"domains"`
}

// New constructs an Engine. found may be nil to disable the result feed.
func New(
	sched *frontier.Scheduler,
	tracker *frontier.Tracker,
	fetcher Fetcher,
	clock frontier.Clock,
	found FoundSink,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		sched:   sched,
		tracker: tracker,
		fetcher: fetcher,
		clock:   clock,
		found:   found,
		links:   NewLinkExtractor(cfg.Strategy, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// Bootstrap registers every seed with the tracker and enqueues its
// validation request. Seed checks bypass the dupe filter and carry no
// decision-log info; they are bookkeeping, not crawl intent.
func (e *Engine) Bootstrap(seedList []seeds.Seed) error {
	for _, s := range seedList {
		slot, err := frontier.Netloc(s.URL)
		if err != nil {
			return err
		}
		if err := e.tracker.RegisterSeed(s.URL, s.Start, s.StartDepth); err != nil {
			return err
		}
		e.sched.Enqueue(&frontier.Request{
			URL:        s.URL,
			Kind:       frontier.KindSeedCheck,
			Priority:   frontier.PrioritySeedCheck,
			Slot:       slot,
			DontFilter: true,
		})
	}
	e.logger.Info("seeds registered",
		zap.Int("seeds", len(seedList)),
		zap.Int("domains", len(e.tracker.Domains())),
	)
	return nil
}

// Run processes the frontier until it drains or the context ends.
func (e *Engine) Run(ctx context.Context) error {
	e.publishStatus()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		req, ok := e.sched.Dequeue()
		if !ok {
			break
		}
		if e.sched.ShouldDrop(req) {
			// The domain completed while this request waited in the queue.
			e.logger.Debug("dropping stale request", zap.String("url", req.URL))
			e.publishStatus()
			continue
		}
		e.process(ctx, req)
		e.publishStatus()
	}
	stats := e.sched.Stats()
	e.logger.Info("frontier drained",
		zap.Int("accepted", stats.Accepted),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("domain_complete", stats.DomainComplete),
		zap.Int("admission_denied", stats.AdmissionDenied),
	)
	return nil
}

// Status returns the most recently published crawl snapshot. Safe to call
// from any goroutine.
func (e *Engine) Status() Status {
	if s := e.status.Load(); s != nil {
		return *s
	}
	return Status{CrawlID: e.cfg.CrawlID}
}

func (e *Engine) publishStatus() {
	domains := e.tracker.Domains()
	statuses := make([]DomainStatus, 0, len(domains))
	for _, d := range domains {
		statuses = append(statuses, DomainStatus{
			Domain:           d,
			PendingSeeds:     e.tracker.PendingSeeds(d),
			RemainingTargets: e.tracker.Remaining(d),
		})
	}
	e.status.Store(&Status{
		CrawlID:      e.cfg.CrawlID,
		FrontierSize: e.sched.Size(),
		Stats:        e.sched.Stats(),
		Domains:      statuses,
	})
}

func (e *Engine) process(ctx context.Context, req *frontier.Request) {
	switch req.Kind {
	case frontier.KindSeedCheck:
		e.processSeedCheck(ctx, req)
	case frontier.KindExplore:
		e.processExplore(ctx, req)
	default:
		e.logger.Warn("unknown request kind", zap.String("kind", string(req.Kind)))
	}
}

func (e *Engine) processSeedCheck(ctx context.Context, req *frontier.Request) {
	_, err := e.fetcher.Fetch(ctx, req.URL)
	if err != nil && ctx.Err() != nil {
		// Shutdown or crawl timeout mid-fetch says nothing about the seed;
		// leave it pending instead of marking it unreachable.
		return
	}
	reachable := err == nil
	if reachable {
		metrics.ObserveSeedCheck("reachable")
	} else {
		// An unreachable seed is informational, never fatal: it just stops
		// being a target.
		metrics.ObserveSeedCheck("unreachable")
		e.logger.Info("seed is unavailable", zap.String("url", req.URL), zap.Error(err))
	}

	ready, err := e.tracker.MarkSeedValidated(req.URL, reachable)
	if err != nil {
		e.logger.Warn("seed validation bookkeeping failed", zap.String("url", req.URL), zap.Error(err))
		return
	}
	if ready {
		e.startDomainCrawl(req.Slot)
	}
}

// startDomainCrawl enqueues one exploratory request per distinct start
// point recorded for the domain's remaining targets.
func (e *Engine) startDomainCrawl(slot string) {
	points := e.tracker.StartPoints(slot)
	e.logger.Info("starting domain crawl",
		zap.String("domain", slot),
		zap.Int("targets", e.tracker.Remaining(slot)),
		zap.Int("start_points", len(points)),
	)
	for _, sp := range points {
		e.sched.Enqueue(&frontier.Request{
			URL:      sp.URL,
			Kind:     frontier.KindExplore,
			Priority: frontier.PriorityDomainStart,
			Slot:     slot,
			Depth:    sp.Depth,
		})
	}
}

func (e *Engine) processExplore(ctx context.Context, req *frontier.Request) {
	page, err := e.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		if ctx.Err() == nil {
			metrics.ObservePageFetched("error")
			e.logger.Debug("fetch failed", zap.String("url", req.URL), zap.Error(err))
		}
		return
	}
	metrics.ObservePageFetched(metrics.ClassifyStatus(page.StatusCode))

	// The response's own URL may itself be a target (e.g. after a redirect).
	e.handleGroundTruth(e.requestInfo(req, page.URL, page.URL, true))

	respSlot, err := frontier.Netloc(page.URL)
	if err != nil || respSlot != req.Slot {
		e.logger.Debug("filtering off-domain response",
			zap.String("url", page.URL),
			zap.String("slot", req.Slot),
		)
		return
	}
	if e.tracker.Remaining(req.Slot) == 0 {
		// All targets found; don't expand this page.
		return
	}

	nextDepth := req.Depth + 1
	for _, link := range e.links.Extract(page) {
		info := e.requestInfo(req, link.URL, page.URL, false)
		if slot, err := frontier.Netloc(link.URL); err == nil && slot == req.Slot {
			e.sched.Enqueue(&frontier.Request{
				URL:      link.URL,
				Kind:     frontier.KindExplore,
				Priority: link.Priority,
				Slot:     req.Slot,
				Depth:    nextDepth,
				Info:     info,
			})
		}
		e.handleGroundTruth(info)
	}
}

// handleGroundTruth records a located target and emits its info snapshot to
// the result feed. The IsTarget re-check keeps the feed exactly-once: the
// snapshot's flag may be stale when a page reaches the same target twice.
func (e *Engine) handleGroundTruth(info *frontier.RequestInfo) {
	if !info.GroundTruth || !e.tracker.IsTarget(info.URL) {
		return
	}
	metrics.ObserveGroundTruthFound()
	e.tracker.RecordFound(info.URL)
	if e.found != nil {
		if err := e.found.Write(info); err != nil {
			e.logger.Error("feed append failed", zap.String("url", info.URL), zap.Error(err))
		}
	}
}

// requestInfo snapshots the decision-log record for a URL discovered while
// processing req. visited marks the response's own URL rather than a link
// found on it.
func (e *Engine) requestInfo(req *frontier.Request, url, foundAt string, visited bool) *frontier.RequestInfo {
	depth := req.Depth
	if !visited {
		depth++
	}
	return &frontier.RequestInfo{
		URL:           url,
		GroundTruth:   e.tracker.IsTarget(url),
		FoundAt:       foundAt,
		SentAt:        float64(e.clock.Now().UnixMilli()) / 1000,
		Crawl:         e.cfg.CrawlID,
		Autopager:     e.cfg.Strategy == frontier.StrategyPaginationFirst,
		Depth:         depth,
		Priority:      req.Priority,
		Visited:       visited,
		ResponseDepth: req.Depth,
	}
}
