package watch

import (
	"strings"

	"github.com/dusk-indust/depgraph/internal/update"
)

// lineDiff performs a line-aligned pairwise walk over old and new content,
// per spec.md §4.G: not an LCS diff, just index-for-index comparison. Line
// numbers are 1-based; Added/Changed index into new, Removed into old.
func lineDiff(oldContent, newContent string) []update.LineDiff {
	oldLines := splitLines(oldContent)
	newLines := splitLines(newContent)

	var out []update.LineDiff
	max := len(oldLines)
	if len(newLines) > max {
		max = len(newLines)
	}
	for i := 0; i < max; i++ {
		switch {
		case i >= len(oldLines):
			out = append(out, update.LineDiff{Line: i + 1, Type: update.LineAdded, New: newLines[i]})
		case i >= len(newLines):
			out = append(out, update.LineDiff{Line: i + 1, Type: update.LineRemoved, Old: oldLines[i]})
		case oldLines[i] != newLines[i]:
			out = append(out, update.LineDiff{Line: i + 1, Type: update.LineChanged, Old: oldLines[i], New: newLines[i]})
		}
	}
	return out
}

// splitLines splits on "\n" without dropping a trailing empty line, so line
// numbers line up with what a text editor would show. An empty string
// yields zero lines, matching countLines's convention.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
