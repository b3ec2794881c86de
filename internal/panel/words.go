package panel

import "strings"

// CountWords counts maximal runs of non-whitespace characters.
// Empty or whitespace-only text counts as zero.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
