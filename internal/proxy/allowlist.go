// Package proxy implements the image proxy gateway: an exact-match hostname
// allowlist and an upstream fetcher that together keep the endpoint from
// being usable as an open relay.
package proxy

import "strings"

// Allowlist is a fixed set of permitted upstream hostnames, initialized at
// process start and immutable thereafter. Membership is exact: a subdomain
// not explicitly listed is rejected even when a sibling subdomain is listed.
type Allowlist struct {
	hosts map[string]struct{}
}

// NewAllowlist builds an allowlist from the given hostnames. Entries are
// lowercased so later checks are case-insensitive.
func NewAllowlist(hosts []string) *Allowlist {
	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			set[h] = struct{}{}
		}
	}
	return &Allowlist{hosts: set}
}

// IsAllowed reports whether the hostname is a member of the allowlist.
// Comparison is case-normalized, never suffix- or wildcard-based.
func (a *Allowlist) IsAllowed(hostname string) bool {
	_, ok := a.hosts[strings.ToLower(hostname)]
	return ok
}

// Hosts returns the allowlisted hostnames, for logging at startup.
func (a *Allowlist) Hosts() []string {
	out := make([]string, 0, len(a.hosts))
	for h := range a.hosts {
		out = append(out, h)
	}
	return out
}
