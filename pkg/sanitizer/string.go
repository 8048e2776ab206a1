package sanitizer

import "strings"

// TrimAndNormalize collapses internal whitespace runs to single spaces and
// strips leading and trailing whitespace.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeNote(note string) string {
	return TrimAndNormalize(note)
}

func NormalizeLabel(label string) string {
	normalized := TrimAndNormalize(label)
	return strings.ToLower(normalized)
}
