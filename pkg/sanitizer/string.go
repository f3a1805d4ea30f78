package sanitizer

import "strings"

// TrimAndNormalize collapses every run of whitespace, tabs and newlines
// included, into one space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// JoinTitle renders a biblio title and its subtitle as one display string.
func JoinTitle(title, subtitle string) string {
	return strings.Join(strings.Fields(title+" "+subtitle), " ")
}
