package frontier

import "testing"

// TestGateShouldDrop exercises the three phases of a domain's lifetime:
// validating (never drop), crawling (keep), complete (drop).
func TestGateShouldDrop(t *testing.T) {
	t.Parallel()

	tr := NewTracker(nil)
	g := NewGate(tr)
	req := &Request{URL: "http://a.com/p", Slot: "a.com"}

	if err := tr.RegisterSeed("http://a.com/target", "http://a.com", 0); err != nil {
		t.Fatalf("RegisterSeed error = %v", err)
	}
	if g.ShouldDrop(req) {
		t.Fatal("must not drop while seeds are validating")
	}

	if _, err := tr.MarkSeedValidated("http://a.com/target", true); err != nil {
		t.Fatalf("MarkSeedValidated error = %v", err)
	}
	if g.ShouldDrop(req) {
		t.Fatal("must not drop while targets remain")
	}

	tr.RecordFound("http://a.com/target")
	if !g.ShouldDrop(req) {
		t.Fatal("must drop once every target is found")
	}
}

// TestGateSlotlessRequests verifies requests without a slot pass through.
func TestGateSlotlessRequests(t *testing.T) {
	t.Parallel()

	g := NewGate(NewTracker(nil))
	if g.ShouldDrop(nil) {
		t.Fatal("nil request must not drop")
	}
	if g.ShouldDrop(&Request{URL: "http://a.com/p"}) {
		t.Fatal("slotless request must not drop")
	}
}

// TestGateUnknownDomain verifies a domain the tracker never saw is treated
// as complete: it has no objective, so its requests are wasted work.
func TestGateUnknownDomain(t *testing.T) {
	t.Parallel()

	g := NewGate(NewTracker(nil))
	if !g.ShouldDrop(&Request{URL: "http://other.com/p", Slot: "other.com"}) {
		t.Fatal("unknown domain has nothing to find, must drop")
	}
}
