package lighthouse

import (
	"strings"
)

// CanonicalLookup returns a previously discovered canonical URL of a domain.
type CanonicalLookup interface {
	Canonical(domain, cacheDir string) (string, bool)
}

// CanonicalFunc is an adapter to use ordinary functions as CanonicalLookup.
type CanonicalFunc func(domain, cacheDir string) (string, bool)

func (f CanonicalFunc) Canonical(domain, cacheDir string) (string, bool) {
	return f(domain, cacheDir)
}

// ResolveTarget returns the URL to be audited for domain:
//  1. domain itself if it already is an http(s) URL
//  2. the canonical URL from lookup, if there is one
//  3. http://domain otherwise
func ResolveTarget(domain, cacheDir string, lookup CanonicalLookup) string {
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}

	if lookup != nil {
		if canonical, ok := lookup.Canonical(domain, cacheDir); ok && canonical != "" {
			return canonical
		}
	}

	return "http://" + domain
}
