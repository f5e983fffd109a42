package frontier

import "time"

// DecisionSink receives the RequestInfo of every request accepted into the
// frontier. Implementations must tolerate a nil info (no-op).
type DecisionSink interface {
	Log(info *RequestInfo) error
	Close() error
}

// DupeFilter reports whether a request has been seen before. Seen must
// record the request as seen on first sight.
type DupeFilter interface {
	Seen(req *Request) (bool, error)
}

// ByteQueue is a persistent LIFO byte queue backing one partition priority
// level. It survives process restart for offline inspection, though the
// live scheduler never resumes from it.
type ByteQueue interface {
	Push(p []byte) error
	Pop() ([]byte, error)
	Len() int
	Close() error
}

// OverflowFactory opens a fresh ByteQueue for the given partition slot and
// priority level. Implementations must return stores with unique backing
// paths even when called repeatedly with the same arguments.
type OverflowFactory func(slot string, priority int) (ByteQueue, error)

// Hasher computes digests for request fingerprinting.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
