// Package diff turns unified git diffs into line hunks.
package diff

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"codetour/internal/remap"
)

// FileDiff is the hunk-level view of one file in a unified diff.
type FileDiff struct {
	OldPath string
	NewPath string
	IsNew   bool
	Deleted bool
	Renamed bool
	Hunks   []remap.Hunk
}

// Parse parses a unified diff. Hunk starts are normalized so that OldStart is always
// the first old line at or after the edit; see normalizeHunk.
func Parse(diffContent string) ([]FileDiff, error) {
	if diffContent == "" {
		return []FileDiff{}, nil
	}

	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(diffContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	result := make([]FileDiff, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		result = append(result, parseFileDiff(fd))
	}
	return result, nil
}

// Hunks returns the hunks of all files in diffContent, in order. Used for diffs that
// were already limited to one file.
func Hunks(diffContent string) ([]remap.Hunk, error) {
	files, err := Parse(diffContent)
	if err != nil {
		return nil, err
	}

	var hunks []remap.Hunk
	for _, f := range files {
		hunks = append(hunks, f.Hunks...)
	}
	return hunks, nil
}

func parseFileDiff(fd *godiff.FileDiff) FileDiff {
	f := FileDiff{
		OldPath: cleanPath(fd.OrigName),
		NewPath: cleanPath(fd.NewName),
		Hunks:   make([]remap.Hunk, 0, len(fd.Hunks)),
	}

	if fd.OrigName == "/dev/null" || fd.OrigName == "" {
		f.IsNew = true
		f.OldPath = ""
	}
	if fd.NewName == "/dev/null" || fd.NewName == "" {
		f.Deleted = true
		f.NewPath = ""
	}
	if f.OldPath != "" && f.NewPath != "" && f.OldPath != f.NewPath {
		f.Renamed = true
	}

	for _, h := range fd.Hunks {
		f.Hunks = append(f.Hunks, normalizeHunk(remap.Hunk{
			OldStart: int(h.OrigStartLine),
			OldCount: int(h.OrigLines),
			NewStart: int(h.NewStartLine),
			NewCount: int(h.NewLines),
		}))
	}
	return f
}

// normalizeHunk rewrites pure insertions. In a zero-context diff "@@ -20,0 +21,3 @@"
// means three lines were inserted after old line 20, so the first old line that moves
// is 21. Likewise a pure deletion reports NewStart as the line before the gap.
func normalizeHunk(h remap.Hunk) remap.Hunk {
	if h.OldCount == 0 {
		h.OldStart++
	}
	if h.NewCount == 0 {
		h.NewStart++
	}
	return h
}

// cleanPath removes the a/ or b/ prefix from git diff paths
func cleanPath(path string) string {
	if path == "" || path == "/dev/null" {
		return path
	}
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}
