// Package diffstat extracts line and file counts from unified diff text.
//
// The parser is deliberately lenient: it never fails, and partial or
// non-standard diffs still produce counts.
package diffstat

import "strings"

// Stats summarises a unified diff.
type Stats struct {
	LinesAdded   int `json:"linesAdded" yaml:"linesAdded"`
	LinesRemoved int `json:"linesRemoved" yaml:"linesRemoved"`
	FilesChanged int `json:"filesChanged" yaml:"filesChanged"`
}

const fileHeader = "diff --git"

// Parse counts added lines, removed lines and changed files in diff.
// File headers ("+++", "---") are not counted as changes. Text without any
// "diff --git" header but with content counts as one file.
func Parse(diff string) Stats {
	var s Stats
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, fileHeader):
			s.FilesChanged++
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			s.LinesAdded++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			s.LinesRemoved++
		}
	}

	if s.FilesChanged == 0 && strings.TrimSpace(diff) != "" {
		s.FilesChanged = 1
	}
	return s
}

// FileNames returns the post-image path of each "diff --git a/X b/Y" header
// in order of first appearance.
func FileNames(diff string) []string {
	names := []string{}
	seen := make(map[string]struct{})
	for _, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, fileHeader) {
			continue
		}
		name := headerPath(strings.TrimPrefix(line, fileHeader))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// headerPath picks the b/ path out of " a/X b/Y". It falls back to the last
// field when the header has no b/ marker.
func headerPath(rest string) string {
	rest = strings.TrimRight(strings.TrimSpace(rest), "\r")
	if i := strings.LastIndex(rest, " b/"); i >= 0 {
		return strings.TrimSpace(rest[i+len(" b/"):])
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
