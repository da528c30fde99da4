package normalization

import (
	"strings"
)

func ParseInputString(input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	return normalized
}

// SplitFullName breaks a display name into first and last: the first word
// is the first name, the remainder the last name. A single word yields an
// empty last name.
func SplitFullName(full string) (string, string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// CollapseWhitespace reduces any whitespace run (incl. non-breaking spaces)
// to a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}
