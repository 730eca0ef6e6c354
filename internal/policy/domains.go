package policy

import (
	"slices"
	"strings"
)

// defaultDomains is the upstream allowlist used when the config names none.
var defaultDomains = []string{
	"hepsiburada.com",
}

// DefaultDomains returns a copy of the built-in upstream allowlist.
func DefaultDomains() []string {
	return slices.Clone(defaultDomains)
}

// DomainPolicy is an immutable set of allowed upstream hostnames. A host is
// allowed when it equals an entry or is a subdomain of one.
type DomainPolicy struct {
	domains []string
}

// NewDomainPolicy builds a DomainPolicy from the given entries. Entries are
// normalized to lowercase without surrounding dots; empty entries are ignored.
func NewDomainPolicy(domains ...string) *DomainPolicy {
	normalized := make([]string, 0, len(domains))
	for _, d := range domains {
		d = normalizeHost(d)
		if d == "" || slices.Contains(normalized, d) {
			continue
		}
		normalized = append(normalized, d)
	}
	return &DomainPolicy{domains: normalized}
}

// Allows reports whether host matches an entry exactly or at a label boundary:
// "api.example.com" matches "example.com", "evilexample.com" does not.
func (p *DomainPolicy) Allows(host string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}
	for _, d := range p.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Domains returns a copy of the allowlist entries.
func (p *DomainPolicy) Domains() []string {
	return slices.Clone(p.domains)
}

func normalizeHost(h string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(h)), ".")
}
