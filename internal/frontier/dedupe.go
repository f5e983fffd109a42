package frontier

// FingerprintFilter is an in-memory dupe filter keyed by the digest of a
// request's canonical URL.
type FingerprintFilter struct {
	hasher Hasher
	seen   map[string]struct{}
}

// NewFingerprintFilter constructs an empty filter.
func NewFingerprintFilter(hasher Hasher) *FingerprintFilter {
	return &FingerprintFilter{
		hasher: hasher,
		seen:   make(map[string]struct{}),
	}
}

// Seen records the request's fingerprint and reports whether it was already
// present.
func (f *FingerprintFilter) Seen(req *Request) (bool, error) {
	fp, err := f.fingerprint(req.URL)
	if err != nil {
		return false, err
	}
	if _, ok := f.seen[fp]; ok {
		return true, nil
	}
	f.seen[fp] = struct{}{}
	return false, nil
}

// Size returns the number of distinct fingerprints recorded.
func (f *FingerprintFilter) Size() int {
	return len(f.seen)
}

func (f *FingerprintFilter) fingerprint(rawURL string) (string, error) {
	norm, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}
	return f.hasher.Hash([]byte("GET " + norm))
}
