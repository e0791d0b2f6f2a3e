package util

import (
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// ExtractJSONObject pulls the JSON object out of a model response that may be
// wrapped in explanatory prose or a ```json fence. Returns the fenced object
// when a fence is present, otherwise the substring from the first '{' to the
// last '}'. Returns "" when no object can be located.
func ExtractJSONObject(s string) string {
	if m := fencedJSON.FindStringSubmatch(s); m != nil {
		if candidate := strings.TrimSpace(m[1]); candidate != "" {
			return candidate
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
