package validation

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify lower-cases the input and replaces runs of whitespace with a
// single hyphen. Slugify(Slugify(x)) == Slugify(x).
func Slugify(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	return whitespaceRun.ReplaceAllString(s, "-")
}

// SanitizeString removes potentially harmful characters
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}

// ParseTags accepts either a JSON-ish array (`["a","b"]`) or a comma list and
// returns trimmed, non-empty tags in order.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		tag := SanitizeString(strings.Trim(strings.TrimSpace(part), `"'`))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
