// Package dnsname normalizes domain names for log output.
//
// Names on the wire keep the case the client sent; nothing here is used
// to rewrite a forwarded message.
package dnsname

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Canonical returns name lowercased, trimmed of surrounding whitespace and
// without trailing dots. The root name becomes ".".
func Canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimRight(name, ".")
	if name == "" {
		return "."
	}
	return name
}

// Apex returns the registrable domain (eTLD+1) of name using the public
// suffix list. Names that have no registrable part, such as a bare TLD or
// the root, are returned in canonical form.
func Apex(name string) string {
	name = Canonical(name)
	if name == "." {
		return name
	}
	apex, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return name
	}
	return apex
}

// Apexes returns the distinct apex domains of names in first-seen order.
func Apexes(names ...string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		a := Apex(n)
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
