package frontier

import "go.uber.org/zap"

// Admission caps the total number of requests accepted per domain slot.
// A zero cap disables the control entirely.
type Admission struct {
	max    int
	counts map[string]int
	logger *zap.Logger
}

// NewAdmission constructs an Admission with the given per-domain cap.
func NewAdmission(maxRequests int, logger *zap.Logger) *Admission {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Admission{
		max:    maxRequests,
		counts: make(map[string]int),
		logger: logger,
	}
}

// Admit counts a candidate request against its slot and reports whether it
// may proceed. Reaching the cap logs a one-time notice; only requests beyond
// the cap are refused.
func (a *Admission) Admit(slot string) bool {
	if a.max <= 0 {
		return true
	}
	a.counts[slot]++
	n := a.counts[slot]
	if n == a.max {
		a.logger.Info("max requests limit reached",
			zap.String("slot", slot),
			zap.Int("limit", a.max),
		)
	}
	return n <= a.max
}

// Issued returns how many candidates have been counted for a slot.
func (a *Admission) Issued(slot string) int {
	return a.counts[slot]
}
