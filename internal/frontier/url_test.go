package frontier

import "testing"

// TestNormalizeURL covers the canonical form used for target matching: case
// folding, default-port and fragment stripping, query sorting and the
// https-to-http fold.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase host", "http://EXAMPLE.com/Path", "http://example.com/Path"},
		{"https folds to http", "https://example.com/a", "http://example.com/a"},
		{"default port stripped", "http://example.com:80/a", "http://example.com/a"},
		{"https default port stripped", "https://example.com:443/a", "http://example.com/a"},
		{"fragment stripped", "http://example.com/a#section", "http://example.com/a"},
		{"query sorted", "http://example.com/a?b=2&a=1", "http://example.com/a?a=1&b=2"},
		{"empty path becomes slash", "http://example.com", "http://example.com/"},
		{"bare host gets scheme", "example.com/x", "http://example.com/x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tc.in)
			if err != nil {
				t.Fatalf("NormalizeURL(%q) error = %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// TestNormalizeURLEquivalence checks that the spellings a dupe filter must
// collapse really do normalize identically.
func TestNormalizeURLEquivalence(t *testing.T) {
	t.Parallel()

	a, err := NormalizeURL("http://A.com:80/x?b=2&a=1")
	if err != nil {
		t.Fatalf("NormalizeURL error = %v", err)
	}
	b, err := NormalizeURL("https://a.com/x?a=1&b=2#frag")
	if err != nil {
		t.Fatalf("NormalizeURL error = %v", err)
	}
	if a != b {
		t.Fatalf("expected equivalent URLs to normalize equally: %q vs %q", a, b)
	}
}

func TestNetloc(t *testing.T) {
	t.Parallel()

	got, err := Netloc("https://Shop.Example.com:8080/items?page=2")
	if err != nil {
		t.Fatalf("Netloc error = %v", err)
	}
	if got != "shop.example.com:8080" {
		t.Fatalf("Netloc = %q, want shop.example.com:8080", got)
	}

	if _, err := Netloc("http://"); err == nil {
		t.Fatal("expected error for URL without host")
	}
}

func TestAddScheme(t *testing.T) {
	t.Parallel()

	if got := AddScheme("example.com"); got != "http://example.com" {
		t.Fatalf("AddScheme = %q", got)
	}
	if got := AddScheme("https://example.com"); got != "https://example.com" {
		t.Fatalf("AddScheme must not touch schemed URLs, got %q", got)
	}
	if got := AddScheme("//example.com/x"); got != "http://example.com/x" {
		t.Fatalf("AddScheme = %q", got)
	}
}

func TestDefaultStart(t *testing.T) {
	t.Parallel()

	got, err := DefaultStart("https://shop.example.com/items/42")
	if err != nil {
		t.Fatalf("DefaultStart error = %v", err)
	}
	if got != "http://shop.example.com" {
		t.Fatalf("DefaultStart = %q", got)
	}
}
