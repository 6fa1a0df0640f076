package diffstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const canonicalDiff = "diff --git a/t b/t\nindex 1..2\n--- a/t\n+++ b/t\n@@ -1,2 +1,2 @@\n-old\n+new\n+added"

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		diff string
		want Stats
	}{
		{"empty", "", Stats{}},
		{"whitespace only", "  \n\t\n", Stats{}},
		{"single addition", "+foo", Stats{LinesAdded: 1, FilesChanged: 1}},
		{"single removal", "-foo", Stats{LinesRemoved: 1, FilesChanged: 1}},
		{"bare markers", "+\n-", Stats{LinesAdded: 1, LinesRemoved: 1, FilesChanged: 1}},
		{"headers ignored", "--- a/x\n+++ b/x", Stats{FilesChanged: 1}},
		{"context only", " unchanged line", Stats{FilesChanged: 1}},
		{"canonical", canonicalDiff, Stats{LinesAdded: 2, LinesRemoved: 1, FilesChanged: 1}},
		{
			"two files",
			"diff --git a/a.go b/a.go\n+x\ndiff --git a/b.go b/b.go\n-y",
			Stats{LinesAdded: 1, LinesRemoved: 1, FilesChanged: 2},
		},
		{
			"crlf lines",
			"diff --git a/a b/a\r\n+x\r\n-y\r\n",
			Stats{LinesAdded: 1, LinesRemoved: 1, FilesChanged: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.diff))
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	first := Parse(canonicalDiff)
	second := Parse(canonicalDiff)

	assert.Equal(t, first, second)
}

func TestFileNames(t *testing.T) {
	diff := "diff --git a/cmd/main.go b/cmd/main.go\n+x\n" +
		"diff --git a/old.txt b/new.txt\n-y\n" +
		"diff --git a/cmd/main.go b/cmd/main.go\n+z\n"

	assert.Equal(t, []string{"cmd/main.go", "new.txt"}, FileNames(diff))
}

func TestFileNames_NoHeaders(t *testing.T) {
	names := FileNames("+just a line")

	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestFileNames_PathWithSpaces(t *testing.T) {
	names := FileNames("diff --git a/my file.txt b/my file.txt\n+x")

	assert.Equal(t, []string{"my file.txt"}, names)
}
