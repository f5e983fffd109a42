package frontier

import (
	"container/heap"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/linkdepth/linkdepth/internal/metrics"
)

// RoundRobinQueue is the frontier itself: one priority sub-queue per domain
// slot, cycled in strict round-robin order so no domain's backlog can starve
// the others. The worst-case latency for any domain's next request is
// bounded by the number of active domains, not by backlog sizes.
type RoundRobinQueue struct {
	rotation []string
	parts    map[string]*partition
	overflow OverflowFactory
	logger   *zap.Logger
	seq      uint64
}

// QueueConfig controls RoundRobinQueue construction.
type QueueConfig struct {
	// Overflow, when set, spills pushed requests to disk-backed stores
	// instead of the in-memory heap.
	Overflow OverflowFactory
	Logger   *zap.Logger
}

// NewRoundRobinQueue constructs an empty queue.
func NewRoundRobinQueue(cfg QueueConfig) *RoundRobinQueue {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoundRobinQueue{
		parts:    make(map[string]*partition),
		overflow: cfg.Overflow,
		logger:   logger,
	}
}

// Push inserts a request into the partition identified by its slot, creating
// the partition and appending it to the rotation if it was absent.
func (q *RoundRobinQueue) Push(req *Request) {
	p, ok := q.parts[req.Slot]
	if !ok {
		p = newPartition()
		q.parts[req.Slot] = p
		q.rotation = append(q.rotation, req.Slot)
	}
	q.seq++
	q.pushEntry(p, req)
}

// Pop serves the partition at the head of the rotation, re-appending it to
// the tail if it still has requests and discarding it otherwise. It returns
// false when the rotation is empty.
func (q *RoundRobinQueue) Pop() (*Request, bool) {
	for len(q.rotation) > 0 {
		slot := q.rotation[0]
		q.rotation = q.rotation[1:]
		p := q.parts[slot]
		req, ok := q.popEntry(p, slot)
		if p.size() > 0 {
			q.rotation = append(q.rotation, slot)
		} else {
			p.release(q.logger)
			delete(q.parts, slot)
		}
		if ok {
			return req, true
		}
		// Partition yielded nothing (every disk level failed); move on.
	}
	return nil, false
}

// Len reports the sum of all partitions' sizes, overflow included.
func (q *RoundRobinQueue) Len() int {
	total := 0
	for _, p := range q.parts {
		total += p.size()
	}
	return total
}

// Close releases every partition, closing any overflow stores.
func (q *RoundRobinQueue) Close() error {
	var firstErr error
	for slot, p := range q.parts {
		if err := p.close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close partition %s: %w", slot, err)
		}
	}
	q.parts = make(map[string]*partition)
	q.rotation = nil
	return firstErr
}

func (q *RoundRobinQueue) pushEntry(p *partition, req *Request) {
	if q.overflow != nil {
		err := q.spill(p, req)
		if err == nil {
			return
		}
		metrics.ObserveOverflowError()
		q.logger.Error("overflow push failed, keeping request in memory",
			zap.String("slot", req.Slot),
			zap.Int("priority", req.Priority),
			zap.Error(err),
		)
	}
	heap.Push(&p.mem, &memEntry{req: req, prio: req.Priority, seq: q.seq})
}

func (q *RoundRobinQueue) spill(p *partition, req *Request) error {
	store, ok := p.disk[req.Priority]
	if !ok {
		var err error
		store, err = q.overflow(req.Slot, req.Priority)
		if err != nil {
			return fmt.Errorf("open overflow store: %w", err)
		}
		p.disk[req.Priority] = store
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	if err := store.Push(payload); err != nil {
		return fmt.Errorf("overflow push: %w", err)
	}
	return nil
}

func (q *RoundRobinQueue) popEntry(p *partition, slot string) (*Request, bool) {
	for {
		diskPrio, onDisk := p.bestDiskPriority()
		if len(p.mem) > 0 && (!onDisk || p.mem[0].prio <= diskPrio) {
			e := heap.Pop(&p.mem).(*memEntry)
			return e.req, true
		}
		if !onDisk {
			return nil, false
		}

		store := p.disk[diskPrio]
		payload, err := store.Pop()
		if err != nil {
			// The level is unreadable; surface it and abandon the store so
			// the partition keeps serving from what is left.
			metrics.ObserveOverflowError()
			q.logger.Error("overflow pop failed, abandoning priority level",
				zap.String("slot", slot),
				zap.Int("priority", diskPrio),
				zap.Error(err),
			)
			p.dropLevel(diskPrio, q.logger)
			continue
		}
		if store.Len() == 0 {
			p.dropLevel(diskPrio, q.logger)
		}

		var req Request
		if err := json.Unmarshal(payload, &req); err != nil {
			metrics.ObserveOverflowError()
			q.logger.Error("overflow entry undecodable, skipping",
				zap.String("slot", slot),
				zap.Int("priority", diskPrio),
				zap.Error(err),
			)
			continue
		}
		return &req, true
	}
}

// partition is one domain's scheduling state: an in-memory heap ordered by
// (priority, insertion seq) plus optional per-priority disk stores.
type partition struct {
	mem  memHeap
	disk map[int]ByteQueue
}

func newPartition() *partition {
	return &partition{disk: make(map[int]ByteQueue)}
}

func (p *partition) size() int {
	n := len(p.mem)
	for _, store := range p.disk {
		n += store.Len()
	}
	return n
}

func (p *partition) bestDiskPriority() (int, bool) {
	best, found := 0, false
	for prio := range p.disk {
		if !found || prio < best {
			best, found = prio, true
		}
	}
	return best, found
}

func (p *partition) dropLevel(prio int, logger *zap.Logger) {
	if store, ok := p.disk[prio]; ok {
		if err := store.Close(); err != nil {
			logger.Warn("overflow store close failed", zap.Int("priority", prio), zap.Error(err))
		}
		delete(p.disk, prio)
	}
}

func (p *partition) close() error {
	var firstErr error
	for prio, store := range p.disk {
		if err := store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close level %d: %w", prio, err)
		}
	}
	p.disk = make(map[int]ByteQueue)
	p.mem = nil
	return firstErr
}

func (p *partition) release(logger *zap.Logger) {
	if err := p.close(); err != nil {
		logger.Warn("partition release failed", zap.Error(err))
	}
}

// memEntry is one queued request plus its heap ordering key.
type memEntry struct {
	req  *Request
	prio int
	seq  uint64
}

// memHeap orders entries by priority (lower first), then insertion order.
type memHeap []*memEntry

func (h memHeap) Len() int { return len(h) }

func (h memHeap) Less(i, j int) bool {
	if h[i].prio != h[j].prio {
		return h[i].prio < h[j].prio
	}
	return h[i].seq < h[j].seq
}

func (h memHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push appends an entry (heap.Interface contract).
func (h *memHeap) Push(x any) { *h = append(*h, x.(*memEntry)) }

// Pop removes the last entry (heap.Interface contract).
func (h *memHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
