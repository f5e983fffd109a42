package frontier

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// StartPoint is where a domain's exploratory crawl begins.
type StartPoint struct {
	URL   string
	Depth int
}

// Tracker owns per-domain crawl state: the seeds still pending validation,
// the normalized target URLs still sought, and the start point recorded for
// every seed. It is created by the facade's owner and mutated only from the
// single driver goroutine, so it carries no locks.
type Tracker struct {
	toCheck map[string]map[string]struct{}
	toFind  map[string]map[string]struct{}
	starts  map[string]StartPoint
	logger  *zap.Logger
}

// NewTracker constructs an empty Tracker.
func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		toCheck: make(map[string]map[string]struct{}),
		toFind:  make(map[string]map[string]struct{}),
		starts:  make(map[string]StartPoint),
		logger:  logger,
	}
}

// RegisterSeed records a target URL as pending validation and remembers its
// exploratory start point.
func (t *Tracker) RegisterSeed(rawURL, startURL string, startDepth int) error {
	netloc, err := Netloc(rawURL)
	if err != nil {
		return fmt.Errorf("register seed: %w", err)
	}
	norm, err := NormalizeURL(rawURL)
	if err != nil {
		return fmt.Errorf("register seed: %w", err)
	}
	if t.toCheck[netloc] == nil {
		t.toCheck[netloc] = make(map[string]struct{})
	}
	t.toCheck[netloc][rawURL] = struct{}{}
	t.starts[norm] = StartPoint{URL: startURL, Depth: startDepth}
	return nil
}

// MarkSeedValidated removes a seed from the pending set; a reachable seed's
// normalized form becomes a target to find. It returns true when this call
// completed the domain's validation phase, i.e. the exploratory crawl may
// start now.
func (t *Tracker) MarkSeedValidated(rawURL string, reachable bool) (bool, error) {
	netloc, err := Netloc(rawURL)
	if err != nil {
		return false, fmt.Errorf("mark seed validated: %w", err)
	}
	pending, ok := t.toCheck[netloc]
	if !ok {
		return false, nil
	}
	if _, ok := pending[rawURL]; !ok {
		return false, nil
	}
	delete(pending, rawURL)

	if reachable {
		norm, err := NormalizeURL(rawURL)
		if err != nil {
			return false, fmt.Errorf("mark seed validated: %w", err)
		}
		if t.toFind[netloc] == nil {
			t.toFind[netloc] = make(map[string]struct{})
		}
		t.toFind[netloc][norm] = struct{}{}
	}

	if len(pending) > 0 {
		return false, nil
	}
	if len(t.toFind[netloc]) == 0 {
		// Normal termination: nothing reachable, so the domain never
		// starts an exploratory crawl.
		t.logger.Warn("no reachable target urls for domain", zap.String("domain", netloc))
		return false, nil
	}
	t.logger.Info("domain seeds validated, exploratory crawl may start",
		zap.String("domain", netloc),
		zap.Int("targets", len(t.toFind[netloc])),
	)
	return true, nil
}

// DomainReady reports whether every seed for the domain has been validated.
func (t *Tracker) DomainReady(domain string) bool {
	return len(t.toCheck[domain]) == 0
}

// Checking reports whether the domain still has seeds pending validation.
func (t *Tracker) Checking(domain string) bool {
	return len(t.toCheck[domain]) > 0
}

// PendingSeeds returns how many of the domain's seeds are still pending
// validation.
func (t *Tracker) PendingSeeds(domain string) int {
	return len(t.toCheck[domain])
}

// RecordFound idempotently discards a located target URL from the domain's
// to-find set. It returns true when this call emptied the set.
func (t *Tracker) RecordFound(rawURL string) bool {
	norm, err := NormalizeURL(rawURL)
	if err != nil {
		return false
	}
	netloc, err := Netloc(rawURL)
	if err != nil {
		return false
	}
	toFind, ok := t.toFind[netloc]
	if !ok {
		return false
	}
	if _, ok := toFind[norm]; !ok {
		return false
	}
	delete(toFind, norm)
	t.logger.Info("ground truth url found", zap.String("url", rawURL))
	if len(toFind) == 0 {
		t.logger.Info("all target urls found for domain", zap.String("domain", netloc))
		return true
	}
	return false
}

// IsTarget reports whether the URL (in normalized form) is still sought.
func (t *Tracker) IsTarget(rawURL string) bool {
	norm, err := NormalizeURL(rawURL)
	if err != nil {
		return false
	}
	netloc, err := Netloc(rawURL)
	if err != nil {
		return false
	}
	_, ok := t.toFind[netloc][norm]
	return ok
}

// Remaining returns how many target URLs are still sought for a domain.
func (t *Tracker) Remaining(domain string) int {
	return len(t.toFind[domain])
}

// StartPoints returns the distinct (start URL, start depth) pairs recorded
// for the domain's remaining targets, in deterministic order.
func (t *Tracker) StartPoints(domain string) []StartPoint {
	seen := make(map[StartPoint]struct{})
	for norm := range t.toFind[domain] {
		if sp, ok := t.starts[norm]; ok {
			seen[sp] = struct{}{}
		}
	}
	points := make([]StartPoint, 0, len(seen))
	for sp := range seen {
		points = append(points, sp)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].URL != points[j].URL {
			return points[i].URL < points[j].URL
		}
		return points[i].Depth < points[j].Depth
	})
	return points
}

// Domains lists every domain the tracker has seen, sorted.
func (t *Tracker) Domains() []string {
	set := make(map[string]struct{})
	for d := range t.toCheck {
		set[d] = struct{}{}
	}
	for d := range t.toFind {
		set[d] = struct{}{}
	}
	domains := make([]string, 0, len(set))
	for d := range set {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
