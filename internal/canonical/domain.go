package canonical

import (
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Normalize lowercases domain, strips a trailing dot and converts IDN to
// punycode. Input which is not a valid name is returned lowercased.
func Normalize(domain string) string {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if d == "" {
		return ""
	}
	if puny, err := idna.Lookup.ToASCII(d); err == nil {
		return puny
	}
	return d
}

// BaseDomain returns the registrable domain (eTLD+1) of domain, or the
// normalized domain itself when it has none (e.g. a public suffix or a URL).
func BaseDomain(domain string) string {
	d := Normalize(domain)
	base, err := publicsuffix.EffectiveTLDPlusOne(d)
	if err != nil {
		return d
	}
	return base
}
