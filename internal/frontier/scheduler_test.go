package frontier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	records []*RequestInfo
	closed  bool
}

func (s *recordingSink) Log(info *RequestInfo) error {
	s.records = append(s.records, info)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func newTestScheduler(t *testing.T, maxRequests int, sink DecisionSink) (*Scheduler, *Tracker) {
	t.Helper()
	tracker := NewTracker(nil)
	sched := NewScheduler(
		NewRoundRobinQueue(QueueConfig{}),
		NewFingerprintFilter(hexHasher{}),
		NewGate(tracker),
		NewAdmission(maxRequests, nil),
		sink,
		nil,
	)
	return sched, tracker
}

func activateDomain(t *testing.T, tracker *Tracker, targetURL string) {
	t.Helper()
	require.NoError(t, tracker.RegisterSeed(targetURL, "http://a.com", 0))
	_, err := tracker.MarkSeedValidated(targetURL, true)
	require.NoError(t, err)
}

// TestSchedulerEnqueueOutcomes runs one request through every rejection
// path and checks the stats bookkeeping.
func TestSchedulerEnqueueOutcomes(t *testing.T) {
	t.Parallel()

	sched, tracker := newTestScheduler(t, 2, nil)
	activateDomain(t, tracker, "http://a.com/target")

	ok, reason := sched.Enqueue(&Request{URL: "http://a.com/1", Slot: "a.com", Priority: PriorityLink})
	require.True(t, ok)
	require.Equal(t, RejectNone, reason)

	ok, reason = sched.Enqueue(&Request{URL: "http://a.com/1", Slot: "a.com", Priority: PriorityLink})
	require.False(t, ok)
	require.Equal(t, RejectDuplicate, reason)

	ok, reason = sched.Enqueue(&Request{URL: "http://a.com/2", Slot: "a.com", Priority: PriorityLink})
	require.True(t, ok)
	require.Equal(t, RejectNone, reason)

	// Cap of 2 reached; the third candidate is refused.
	ok, reason = sched.Enqueue(&Request{URL: "http://a.com/3", Slot: "a.com", Priority: PriorityLink})
	require.False(t, ok)
	require.Equal(t, RejectAdmissionDenied, reason)

	// Completing the domain flips further candidates to the gate.
	tracker.RecordFound("http://a.com/target")
	ok, reason = sched.Enqueue(&Request{URL: "http://a.com/4", Slot: "a.com", Priority: PriorityLink})
	require.False(t, ok)
	require.Equal(t, RejectDomainComplete, reason)

	require.Equal(t, Stats{Accepted: 2, Duplicates: 1, DomainComplete: 1, AdmissionDenied: 1}, sched.Stats())
	require.Equal(t, 2, sched.Size())
}

// TestSchedulerDuplicatesBeforeGate verifies rejection precedence: a request
// that is both a duplicate and gated reports duplicate.
func TestSchedulerDuplicatesBeforeGate(t *testing.T) {
	t.Parallel()

	sched, tracker := newTestScheduler(t, 0, nil)
	activateDomain(t, tracker, "http://a.com/target")

	ok, _ := sched.Enqueue(&Request{URL: "http://a.com/p", Slot: "a.com", Priority: PriorityLink})
	require.True(t, ok)

	tracker.RecordFound("http://a.com/target")
	_, reason := sched.Enqueue(&Request{URL: "http://a.com/p", Slot: "a.com", Priority: PriorityLink})
	require.Equal(t, RejectDuplicate, reason)
}

// TestSchedulerDontFilter verifies DontFilter bypasses only dedup, not the
// gate or admission.
func TestSchedulerDontFilter(t *testing.T) {
	t.Parallel()

	sched, tracker := newTestScheduler(t, 0, nil)
	activateDomain(t, tracker, "http://a.com/target")

	for i := 0; i < 2; i++ {
		ok, reason := sched.Enqueue(&Request{URL: "http://a.com/probe", Slot: "a.com", DontFilter: true})
		require.True(t, ok, "attempt %d", i)
		require.Equal(t, RejectNone, reason)
	}

	tracker.RecordFound("http://a.com/target")
	ok, reason := sched.Enqueue(&Request{URL: "http://a.com/probe2", Slot: "a.com", DontFilter: true})
	require.False(t, ok)
	require.Equal(t, RejectDomainComplete, reason)
}

// TestSchedulerDecisionLog verifies accepted requests are logged exactly
// once, rejected ones never, and the info is detached before queueing.
func TestSchedulerDecisionLog(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	sched, tracker := newTestScheduler(t, 1, sink)
	activateDomain(t, tracker, "http://a.com/target")

	info := &RequestInfo{URL: "http://a.com/1", Crawl: "test"}
	ok, _ := sched.Enqueue(&Request{URL: "http://a.com/1", Slot: "a.com", Priority: PriorityLink, Info: info})
	require.True(t, ok)

	// Refused by admission; its info must not be logged.
	ok, _ = sched.Enqueue(&Request{URL: "http://a.com/2", Slot: "a.com", Priority: PriorityLink, Info: &RequestInfo{URL: "http://a.com/2"}})
	require.False(t, ok)

	require.Len(t, sink.records, 1)
	require.Same(t, info, sink.records[0])

	req, popped := sched.Dequeue()
	require.True(t, popped)
	require.Nil(t, req.Info, "info must be detached from the queued request")

	require.NoError(t, sched.Close())
	require.True(t, sink.closed)
}

// TestSchedulerDequeueOrder spot-checks that the facade preserves the
// queue's round-robin and priority contract.
func TestSchedulerDequeueOrder(t *testing.T) {
	t.Parallel()

	sched, tracker := newTestScheduler(t, 0, nil)
	activateDomain(t, tracker, "http://a.com/t")
	require.NoError(t, tracker.RegisterSeed("http://b.com/t", "http://b.com", 0))
	_, err := tracker.MarkSeedValidated("http://b.com/t", true)
	require.NoError(t, err)

	sched.Enqueue(&Request{URL: "http://a.com/low", Slot: "a.com", Priority: PriorityLink})
	sched.Enqueue(&Request{URL: "http://b.com/1", Slot: "b.com", Priority: PriorityLink})
	sched.Enqueue(&Request{URL: "http://a.com/high", Slot: "a.com", Priority: PriorityPagination})

	var got []string
	for {
		req, ok := sched.Dequeue()
		if !ok {
			break
		}
		got = append(got, req.URL)
	}
	require.Equal(t, []string{"http://a.com/high", "http://b.com/1", "http://a.com/low"}, got)
}
