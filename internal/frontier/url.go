package frontier

import (
	"fmt"
	"net/url"
	"strings"
)

// AddScheme prepends http:// to URLs that carry no scheme, so bare hosts
// from seed files parse as absolute URLs.
func AddScheme(rawURL string) string {
	if rawURL == "" {
		return rawURL
	}
	if strings.Contains(rawURL, "://") {
		return rawURL
	}
	return "http://" + strings.TrimPrefix(rawURL, "//")
}

// Netloc extracts the host[:port] component of a URL, the key used for
// domain partitioning.
func Netloc(rawURL string) (string, error) {
	u, err := url.Parse(AddScheme(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return strings.ToLower(u.Host), nil
}

// NormalizeURL standardizes a URL for target matching and deduplication.
// It lowercases the scheme and host, removes default ports and fragments,
// sorts query parameters, and folds https to http so scheme changes don't
// hide a ground-truth match.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(AddScheme(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Scheme == "https" {
		u.Scheme = "http"
	}
	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	q := u.Query()
	u.RawQuery = q.Encode()

	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// DefaultStart derives the default exploratory start URL for a seed:
// scheme plus host, per the seed-file contract.
func DefaultStart(rawURL string) (string, error) {
	netloc, err := Netloc(rawURL)
	if err != nil {
		return "", err
	}
	return "http://" + netloc, nil
}
