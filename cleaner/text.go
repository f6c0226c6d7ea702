package cleaner

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText folds compatibility characters (non-breaking spaces,
// full-width letters, ligatures) with NFKC and collapses every run of
// whitespace to a single space.
//
// Job boards render metadata with U+00A0 between words ("Entry level"),
// which would otherwise defeat plain substring matching.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// TrimLines trims trailing whitespace on every line and drops leading and
// trailing blank lines, keeping the paragraph structure of innerText output.
func TrimLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\u00a0")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
