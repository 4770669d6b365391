package youtube

import (
	"regexp"
	"strings"
)

var handleURLPattern = regexp.MustCompile(`(?:youtube\.com|youtu\.be)/(?:@|c/|user/)([\w.-]+)`)

// searchQuery normalizes a name, @handle, or vanity URL into the term
// used for channel search. Empty means the input is unusable.
func searchQuery(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if m := handleURLPattern.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return strings.TrimPrefix(input, "@")
}
