// Package frontier implements the domain-fair scheduling core of the
// linkdepth crawler: a round-robin priority queue partitioned by domain,
// per-domain admission control, the crawl-state tracker that decides when a
// domain's objective is met, and the facade that composes them behind a
// single enqueue/dequeue contract.
package frontier
