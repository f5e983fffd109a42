package frontier

// Gate decides when further requests for a domain are wasted work. It never
// drops while the domain is still validating seeds, and never un-drops once
// a domain's targets have all been found.
type Gate struct {
	tracker *Tracker
}

// NewGate constructs a Gate over the given tracker.
func NewGate(tracker *Tracker) *Gate {
	return &Gate{tracker: tracker}
}

// ShouldDrop reports whether a request's domain has satisfied its objective.
// Requests without a slot are never dropped.
func (g *Gate) ShouldDrop(req *Request) bool {
	if req == nil || req.Slot == "" {
		return false
	}
	if g.tracker.Checking(req.Slot) {
		return false
	}
	return g.tracker.Remaining(req.Slot) == 0
}
