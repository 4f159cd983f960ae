package util

import "strings"

// NormalizeTerm lowercases and trims a concept term so that lookups and
// cache keys are stable across surface-form differences.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// CollapseWhitespace replaces newlines and runs of whitespace with single spaces.
func CollapseWhitespace(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.Join(strings.Fields(value), " ")
}
