// Package matcher decides whether an earlier post belongs to the thread a
// query names. Matching is a plain string comparison of keys derived from
// the post text and the query.
package matcher

import "strings"

// Matcher reports whether a post's text matches a query.
type Matcher interface {
	// Name identifies the variant in logs.
	Name() string

	// Match reports whether text belongs to the thread named by query.
	Match(text, query string) bool
}

// MatchKey returns the leading line of a post: its text up to the first
// newline. The key is not trimmed.
func MatchKey(text string) string {
	key, _, _ := strings.Cut(text, "\n")
	return key
}

// ImageMatchKey returns the text before the first "https", trimmed.
// Posts carrying an image link render with the link appended to the
// caption, so the caption alone is compared.
func ImageMatchKey(text string) string {
	key, _, _ := strings.Cut(text, "https")
	return strings.TrimSpace(key)
}

// QueryKey returns the query up to its first hyphen, trimmed. Anything
// after the hyphen (search operators, suffixes) is ignored.
func QueryKey(query string) string {
	key, _, _ := strings.Cut(query, "-")
	return strings.TrimSpace(key)
}

// Plain compares the leading line of a post with the query key.
type Plain struct{}

// Name returns the variant name.
func (Plain) Name() string { return "plain" }

// Match implements Matcher.
func (Plain) Match(text, query string) bool {
	return MatchKey(text) == QueryKey(query)
}

// ImageAware matches like Plain and also accepts posts whose caption,
// cut at the first link, equals the query key.
type ImageAware struct{}

// Name returns the variant name.
func (ImageAware) Name() string { return "image-aware" }

// Match implements Matcher.
func (ImageAware) Match(text, query string) bool {
	if (Plain{}).Match(text, query) {
		return true
	}
	return ImageMatchKey(text) == QueryKey(query)
}

// ForImages selects the matcher variant for the image setting.
func ForImages(enabled bool) Matcher {
	if enabled {
		return ImageAware{}
	}
	return Plain{}
}
