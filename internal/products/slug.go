package products

import (
	"regexp"
	"strconv"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^\w-]+`)

// Slugify lowercases and trims name, turns spaces into dashes and strips
// anything that is not a word character or a dash. Accented letters are
// dropped, so "XV Años" becomes "xv-aos".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	return nonSlugChars.ReplaceAllString(s, "")
}

// needsBackfill reports whether a stored slug is missing or a bare id.
func needsBackfill(slug *string) bool {
	if slug == nil {
		return true
	}
	s := strings.TrimSpace(*slug)
	if s == "" {
		return true
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
