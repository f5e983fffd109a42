// Package engine drives the frontier scheduler: a single cooperative loop
// that validates seeds, starts per-domain exploratory crawls once their
// seeds are checked, and feeds extracted links back into the scheduler.
package engine
