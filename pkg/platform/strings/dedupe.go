// Package strings provides list normalization helpers for query and config values.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, func(s string) string { return s })
}

// DedupeAndTrimUpper is like DedupeAndTrim but uppercases each element,
// so "ofac", " OFAC " and "Ofac" collapse to one code.
func DedupeAndTrimUpper(values []string) []string {
	return dedupe(values, strings.ToUpper)
}

// SplitList splits a delimited value (for example an env var or a query
// parameter) on sep and applies DedupeAndTrim to the parts.
func SplitList(value, sep string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(value, sep))
}

func dedupe(values []string, fold func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		key := fold(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, key)
	}

	return result
}
