package frontier

// Request priorities. Lower values pop first, so seed checks always beat
// exploratory traffic and pagination candidates beat ordinary links.
const (
	PrioritySeedCheck   = 0
	PriorityDomainStart = 10
	PriorityPagination  = 100
	PriorityLink        = 1000
)

// RequestKind tells the driver loop what to do with a dequeued request.
type RequestKind string

// Supported request kinds.
const (
	KindSeedCheck RequestKind = "seed_check"
	KindExplore   RequestKind = "explore"
)

// Request is one unit of crawl work. Slot is the domain partition the
// request is scheduled under; for seed checks it is the seed's netloc even
// when the fetched URL lives elsewhere.
type Request struct {
	URL        string       `json:"url"`
	Kind       RequestKind  `json:"kind"`
	Priority   int          `json:"priority"`
	Slot       string       `json:"slot"`
	Depth      int          `json:"depth"`
	DontFilter bool         `json:"dont_filter,omitempty"`
	Info       *RequestInfo `json:"info,omitempty"`
}

// RequestInfo is the immutable snapshot written to the decision log for an
// accepted request. It is detached from the request at log time so a request
// spilled to disk afterwards does not carry it twice.
type RequestInfo struct {
	URL           string  `json:"url"`
	GroundTruth   bool    `json:"ground_truth"`
	FoundAt       string  `json:"found_at"`
	SentAt        float64 `json:"sent_at"`
	Crawl         string  `json:"crawl"`
	Autopager     bool    `json:"autopager"`
	Depth         int     `json:"depth"`
	Priority      int     `json:"priority"`
	Visited       bool    `json:"_visited"`
	ResponseDepth int     `json:"_response_depth"`
}

// RejectReason explains why Enqueue refused a request. Rejections are
// ordinary values, never errors; a denied request must not unwind the
// driver loop.
type RejectReason string

// Enqueue outcomes.
const (
	RejectNone            RejectReason = ""
	RejectDuplicate       RejectReason = "duplicate"
	RejectDomainComplete  RejectReason = "domain_complete"
	RejectAdmissionDenied RejectReason = "admission_denied"
)

// LinkStrategy selects how exploratory links are prioritized.
type LinkStrategy string

// Supported link strategies.
const (
	StrategyPaginationFirst LinkStrategy = "pagination-first"
	StrategyBreadthFirst    LinkStrategy = "breadth-first"
)

// RotationPolicy selects how partitions are cycled. Only round-robin is
// implemented; the knob exists so configs are explicit about it.
type RotationPolicy string

// Supported rotation policies.
const (
	RotationRoundRobin RotationPolicy = "round-robin"
)
