package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"codetour/internal/diff"
	"codetour/internal/remap"
)

// RenameRecord is one R entry from `git diff --name-status -M`.
type RenameRecord struct {
	OldPath    string
	NewPath    string
	Similarity int
}

// renames lists rename records between two revisions.
func (g *GitAdapter) renames(ctx context.Context, from, to string) ([]RenameRecord, error) {
	lines, err := g.executeGitCommandLines(ctx,
		"-c", "core.quotePath=false",
		"diff", "--name-status", fmt.Sprintf("-M%d%%", g.renameSimilarity), from, to,
	)
	if err != nil {
		return nil, err
	}
	return parseRenames(lines), nil
}

// parseRenames extracts rename records from name-status lines such as
// "R087\told/path.go\tnew/path.go".
func parseRenames(lines []string) []RenameRecord {
	var records []RenameRecord
	for _, line := range lines {
		parts := strings.Split(line, "\t")
		if len(parts) != 3 || !strings.HasPrefix(parts[0], "R") {
			continue
		}
		similarity, _ := strconv.Atoi(parts[0][1:])
		records = append(records, RenameRecord{
			OldPath:    parts[1],
			NewPath:    parts[2],
			Similarity: similarity,
		})
	}
	return records
}

// RenamedPath returns the name at `to` of the file called path at `from`. The
// forward diff is searched first; if it has no match, the reverse diff (to -> from)
// is searched for a record that renamed something into path.
func (g *GitAdapter) RenamedPath(ctx context.Context, from, to, path string) (string, bool) {
	if from == "" || to == "" || from == to {
		return "", false
	}

	forward, err := g.renames(ctx, from, to)
	if err != nil {
		g.logger.Warn("Rename detection failed", "from", from, "to", to, "error", err)
		return "", false
	}
	for _, r := range forward {
		if r.OldPath == path {
			return r.NewPath, true
		}
	}

	// Rename pairing is usually symmetric, so this pass only matters when git's greedy
	// matching pairs differently by direction: several similar candidates, or a pair
	// close to the similarity threshold.
	reverse, err := g.renames(ctx, to, from)
	if err != nil {
		g.logger.Warn("Reverse rename detection failed", "from", to, "to", from, "error", err)
		return "", false
	}
	for _, r := range reverse {
		if r.NewPath == path {
			return r.OldPath, true
		}
	}

	return "", false
}

// DiffHunks returns zero-context hunks for path between from and to. When path did not
// exist at `from` but was renamed into place, the two blobs are diffed directly so the
// hunks describe content edits rather than a whole-file addition. Any failure yields an
// empty list.
func (g *GitAdapter) DiffHunks(ctx context.Context, from, to, path string) []remap.Hunk {
	if from == "" || to == "" {
		return nil
	}

	args := []string{"diff", "-U0", "--no-color", "--no-ext-diff", "--no-renames"}
	if g.PathExistsAt(ctx, from, path) {
		args = append(args, from, to, "--", path)
	} else if oldPath, ok := g.RenamedPath(ctx, to, from, path); ok {
		args = append(args, from+":"+oldPath, to+":"+path)
	} else {
		g.logger.Debug("No diff base for path", "path", path, "from", from)
		return nil
	}

	output, err := g.executeGitCommandRaw(ctx, args...)
	if err != nil {
		g.logger.Warn("Git diff failed", "path", path, "error", err)
		return nil
	}

	hunks, err := diff.Hunks(output)
	if err != nil {
		g.logger.Warn("Cannot parse git diff", "path", path, "error", err)
		return nil
	}

	g.logger.Debug("Diff hunks computed", "path", path, "hunks", len(hunks))
	return hunks
}
