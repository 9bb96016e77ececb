package tools

import (
	"regexp"
	"strings"
)

var verRe = regexp.MustCompile(`(?i)\bv?(\d+\.\d+(?:\.\d+)?(?:[\w\.-]+)?)\b`)

// FirstLine returns the trimmed first non-empty line of s.
func FirstLine(s string) string {
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// ParseVersion extracts a dotted version number from tool output such as
// "cmake version 3.27.0" or "GNU Make 4.4.1". The first line wins.
func ParseVersion(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := verRe.FindStringSubmatch(FirstLine(s)); len(m) > 1 {
		return m[1]
	}
	if m := verRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}
