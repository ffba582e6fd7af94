// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
//	// Returns: []string{"foo", "bar"}
func DedupeAndTrim(values []string) []string {
	return dedupe(values, func(v string) string { return v })
}

// DedupeAndTrimFold is like DedupeAndTrim but compares case-insensitively.
// The first spelling of each value is kept.
//
// Example:
//
//	DedupeAndTrimFold([]string{"  FOO ", "bar", "Foo"})
//	// Returns: []string{"FOO", "bar"}
func DedupeAndTrimFold(values []string) []string {
	return dedupe(values, strings.ToLower)
}

// SplitCSV splits a comma-separated attribute value such as a product's
// "roles" attribute, trimming and dropping empty and duplicate entries.
func SplitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(value, ","))
}

// EqualFoldTrim compares two values ignoring case and surrounding space.
func EqualFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func dedupe(values []string, key func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		k := key(trimmed)
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
