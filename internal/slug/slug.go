// Package slug builds URL-safe identifiers for catalog records.
package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases s and collapses every run of characters outside [a-z0-9]
// into a single sep. Leading and trailing separators are trimmed.
func Make(s, sep string) string {
	out := nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), sep)
	return strings.Trim(out, sep)
}

// Category returns the unique key of a brand-scoped category,
// e.g. ("Grown", "Stainless Steel") -> "grown_stainless_steel".
func Category(brand, name string) string {
	return strings.ToLower(strings.TrimSpace(brand)) + "_" + Make(name, "_")
}
