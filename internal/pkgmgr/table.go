package pkgmgr

import (
	"strings"
	"unicode"
)

// sourceNames can follow an id column but are never versions.
var sourceNames = map[string]bool{"winget": true, "msstore": true, "chocolatey": true}

// ParseList extracts the installed versions of id from `winget list` output.
//
// Grammar:
//   - input is split into lines; within a line only the text after the last
//     carriage return counts (winget redraws its spinner with CR);
//   - the header row is the first line with an "ID" (or "Id") column and a
//     "Version" (or "版本") column, or any line containing "名称";
//   - rows starting with '-' or '=' are separators;
//   - every later row is split on whitespace; the token equal to id must be
//     followed by a version token that contains a digit and is not a source.
//
// Rows before the header are ignored. Versions are returned once each, in
// the order they appear.
func ParseList(output, id string) []string {
	var versions []string
	seen := map[string]bool{}
	header := false
	for _, line := range strings.Split(output, "\n") {
		if i := strings.LastIndex(line, "\r"); i >= 0 {
			line = line[i+1:]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !header {
			header = isHeader(line)
			continue
		}
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "=") {
			continue
		}
		fields := strings.Fields(line)
		for i, f := range fields {
			if f != id || i+1 >= len(fields) {
				continue
			}
			v := fields[i+1]
			if sourceNames[strings.ToLower(v)] || !strings.ContainsFunc(v, unicode.IsDigit) {
				break
			}
			if !seen[v] {
				seen[v] = true
				versions = append(versions, v)
			}
			break
		}
	}
	return versions
}

func isHeader(line string) bool {
	if strings.Contains(line, "名称") {
		return true
	}
	var id, version bool
	for _, f := range strings.Fields(line) {
		switch f {
		case "ID", "Id":
			id = true
		case "Version", "版本":
			version = true
		}
	}
	return id && version
}
