package frontier

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/linkdepth/linkdepth/internal/metrics"
)

// Stats counts enqueue outcomes since the scheduler was built.
type Stats struct {
	Accepted        int
	Duplicates      int
	DomainComplete  int
	AdmissionDenied int
}

// Scheduler composes the dupe filter, completion gate, admission control,
// decision log and round-robin queue behind the enqueue/dequeue contract
// consumed by the crawl engine. All methods are synchronous and must be
// called from a single goroutine.
type Scheduler struct {
	queue     *RoundRobinQueue
	dupe      DupeFilter
	gate      *Gate
	admission *Admission
	sink      DecisionSink
	logger    *zap.Logger
	stats     Stats
}

// NewScheduler wires the scheduler facade. dupe and sink may be nil to
// disable deduplication or decision logging.
func NewScheduler(
	queue *RoundRobinQueue,
	dupe DupeFilter,
	gate *Gate,
	admission *Admission,
	sink DecisionSink,
	logger *zap.Logger,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		queue:     queue,
		dupe:      dupe,
		gate:      gate,
		admission: admission,
		sink:      sink,
		logger:    logger,
	}
}

// Enqueue runs a candidate request through dedup, the completion gate and
// admission control, logs the accepted decision, and queues the request.
// The reject reason makes the outcome visible at call sites; none of the
// rejections is an error.
func (s *Scheduler) Enqueue(req *Request) (bool, RejectReason) {
	if s.dupe != nil && !req.DontFilter {
		seen, err := s.dupe.Seen(req)
		if err != nil {
			// An unfingerprintable URL is let through; the gate and
			// admission control still apply.
			s.logger.Debug("request fingerprint failed", zap.String("url", req.URL), zap.Error(err))
		}
		if seen {
			s.stats.Duplicates++
			metrics.ObserveEnqueue(string(RejectDuplicate))
			return false, RejectDuplicate
		}
	}

	if s.gate != nil && s.gate.ShouldDrop(req) {
		s.stats.DomainComplete++
		metrics.ObserveEnqueue(string(RejectDomainComplete))
		s.logger.Debug("dropping request for completed domain",
			zap.String("slot", req.Slot),
			zap.String("url", req.URL),
		)
		return false, RejectDomainComplete
	}

	if s.admission != nil && !s.admission.Admit(req.Slot) {
		s.stats.AdmissionDenied++
		metrics.ObserveEnqueue(string(RejectAdmissionDenied))
		return false, RejectAdmissionDenied
	}

	s.logDecision(req)
	s.queue.Push(req)
	s.stats.Accepted++
	metrics.ObserveEnqueue("accepted")
	metrics.SetFrontierSize(s.queue.Len())
	return true, RejectNone
}

// Dequeue returns the next request in round-robin order, or false when the
// frontier is empty.
func (s *Scheduler) Dequeue() (*Request, bool) {
	req, ok := s.queue.Pop()
	if ok {
		metrics.SetFrontierSize(s.queue.Len())
	}
	return req, ok
}

// Size reports the number of requests pending across all partitions.
func (s *Scheduler) Size() int {
	return s.queue.Len()
}

// ShouldDrop exposes the completion check independently of enqueue, so the
// engine can veto requests already in its own pipeline.
func (s *Scheduler) ShouldDrop(req *Request) bool {
	return s.gate != nil && s.gate.ShouldDrop(req)
}

// Stats returns a copy of the enqueue outcome counters.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// Close flushes and releases the queue and the decision log.
func (s *Scheduler) Close() error {
	var firstErr error
	if err := s.queue.Close(); err != nil {
		firstErr = fmt.Errorf("close queue: %w", err)
	}
	if s.sink != nil {
		if err := s.sink.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close decision log: %w", err)
		}
	}
	return firstErr
}

// logDecision appends the request's info to the decision log and detaches it
// so the queued (or disk-spilled) request doesn't carry it twice. Requests
// without info are engine bookkeeping and are skipped silently.
func (s *Scheduler) logDecision(req *Request) {
	if s.sink == nil || req.Info == nil {
		return
	}
	info := req.Info
	req.Info = nil
	if err := s.sink.Log(info); err != nil {
		s.logger.Error("decision log append failed", zap.String("url", info.URL), zap.Error(err))
	}
}
