package validators

import "strings"

// SanitizeString collapses runs of whitespace and caps the result at maxLen
// runes so accented names are never cut mid-character. maxLen <= 0 disables
// the cap.
func SanitizeString(input string, maxLen int) string {
	clean := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 {
		return clean
	}
	runes := []rune(clean)
	if len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return clean
}
