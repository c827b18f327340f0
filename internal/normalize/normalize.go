// Package normalize holds the string folding, slug, and name comparison
// helpers shared by the feed loaders and the deterministic matcher. Every
// function is pure; callers fold once and reuse when comparing in a loop.
package normalize

import (
	"fmt"
	"strings"
	"unicode"
)

// Fold lowercases a name, trims it, and collapses internal whitespace runs
// to single spaces. All name comparisons happen on folded strings.
func Fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Slugify converts a display name to a URL-safe slug: lowercase, with every
// run of non-alphanumeric characters replaced by a single hyphen and leading
// or trailing hyphens removed. "Department of Energy" becomes
// "department-of-energy".
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// UniqueSlug returns Slugify(name), appending "-2", "-3", ... until the
// result is absent from taken. The chosen slug is recorded in taken before
// returning.
func UniqueSlug(name string, taken map[string]bool) string {
	base := Slugify(name)
	slug := base
	for n := 2; taken[slug]; n++ {
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	taken[slug] = true
	return slug
}

// NamesMatch reports whether two entity names refer to the same thing under
// the folded-containment heuristic: after folding, either name must contain
// the other. Blank names never match anything. Containment runs in both
// directions, so short names like "AI" match aggressively; rule ordering in
// the matcher puts more specific comparisons first to compensate.
func NamesMatch(a, b string) bool {
	fa := Fold(a)
	fb := Fold(b)

	if fa == "" || fb == "" {
		return false
	}

	return strings.Contains(fa, fb) || strings.Contains(fb, fa)
}

// AnyNameMatches reports whether name matches any entry of candidates under
// NamesMatch, returning the first candidate that matched.
func AnyNameMatches(name string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if NamesMatch(name, c) {
			return c, true
		}
	}
	return "", false
}
