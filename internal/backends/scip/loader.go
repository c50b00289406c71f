package scip

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"codetour/internal/errors"
)

// SCIPIndex represents a loaded SCIP index
type SCIPIndex struct {
	// Metadata contains index metadata
	Metadata *Metadata

	// Documents are indexed documents keyed by relative path
	Documents map[string]*Document

	// LoadedAt is when the index was loaded
	LoadedAt time.Time

	// ModTime is the index file modification time at load
	ModTime time.Time

	// IndexedCommit is the git commit the index was built from, when known
	IndexedCommit string
}

// LoadSCIPIndex loads a SCIP index from the specified path
func LoadSCIPIndex(path string) (*SCIPIndex, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, errors.NewTourError(
			errors.IndexMissing,
			fmt.Sprintf("SCIP index not found at %s", path),
			err,
			errors.GetSuggestedFixes(errors.IndexMissing),
		)
	}
	if err != nil {
		return nil, errors.NewTourError(
			errors.InternalError,
			fmt.Sprintf("Failed to stat SCIP index at %s", path),
			err,
			nil,
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewTourError(
			errors.InternalError,
			fmt.Sprintf("Failed to read SCIP index from %s", path),
			err,
			nil,
		)
	}

	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, errors.NewTourError(
			errors.InternalError,
			fmt.Sprintf("Failed to parse SCIP index from %s", path),
			err,
			[]errors.FixAction{
				{
					Type:        errors.RunCommand,
					Command:     "scip print --index=" + path,
					Safe:        true,
					Description: "Verify SCIP index is valid",
				},
			},
		)
	}

	scipIndex := &SCIPIndex{
		Metadata:  convertMetadata(index.Metadata),
		Documents: make(map[string]*Document, len(index.Documents)),
		LoadedAt:  time.Now(),
		ModTime:   info.ModTime(),
	}
	for _, doc := range index.Documents {
		d := convertDocument(doc)
		scipIndex.Documents[d.RelativePath] = d
	}

	if scipIndex.Metadata != nil && scipIndex.Metadata.ToolInfo != nil {
		scipIndex.IndexedCommit = extractCommitFromToolInfo(scipIndex.Metadata.ToolInfo)
	}

	return scipIndex, nil
}

// IsStale checks if the index was built from a commit other than headCommit. An
// index with no commit information is never reported stale.
func (i *SCIPIndex) IsStale(headCommit string) bool {
	if i.IndexedCommit == "" || headCommit == "" {
		return false
	}
	return !strings.HasPrefix(headCommit, i.IndexedCommit)
}

// GetDocument retrieves a document by its relative path
func (i *SCIPIndex) GetDocument(relativePath string) *Document {
	return i.Documents[filepath.ToSlash(relativePath)]
}

// convertMetadata converts protobuf metadata to internal representation
func convertMetadata(meta *scippb.Metadata) *Metadata {
	if meta == nil {
		return nil
	}

	var toolInfo *ToolInfo
	if meta.ToolInfo != nil {
		toolInfo = &ToolInfo{
			Name:      meta.ToolInfo.Name,
			Version:   meta.ToolInfo.Version,
			Arguments: meta.ToolInfo.Arguments,
		}
	}

	return &Metadata{
		Version:     fmt.Sprintf("%d", meta.Version),
		ToolInfo:    toolInfo,
		ProjectRoot: meta.ProjectRoot,
	}
}

// convertDocument keeps definition occurrences of global symbols and the symbol
// information needed to name them.
func convertDocument(doc *scippb.Document) *Document {
	d := &Document{
		RelativePath: filepath.ToSlash(doc.RelativePath),
		Language:     doc.Language,
		Symbols:      make(map[string]*SymbolInformation, len(doc.Symbols)),
	}

	for _, occ := range doc.Occurrences {
		if occ.SymbolRoles&int32(scippb.SymbolRole_Definition) == 0 {
			continue
		}
		if occ.Symbol == "" || scippb.IsLocalSymbol(occ.Symbol) {
			continue
		}
		d.Definitions = append(d.Definitions, &Occurrence{
			Range:          occ.Range,
			Symbol:         occ.Symbol,
			EnclosingRange: occ.EnclosingRange,
		})
	}

	for _, sym := range doc.Symbols {
		d.Symbols[sym.Symbol] = &SymbolInformation{
			Symbol:      sym.Symbol,
			Kind:        int32(sym.Kind),
			DisplayName: sym.DisplayName,
		}
	}

	return d
}

// extractCommitFromToolInfo attempts to extract git commit from tool info
func extractCommitFromToolInfo(toolInfo *ToolInfo) string {
	// Common patterns:
	// --commit=<hash>
	// --git-commit=<hash>
	// --module-version=<hash> (scip-go)
	// -c <hash>
	for i, arg := range toolInfo.Arguments {
		switch {
		case strings.HasPrefix(arg, "--commit=") && len(arg) > 9:
			return arg[9:]
		case strings.HasPrefix(arg, "--git-commit=") && len(arg) > 13:
			return arg[13:]
		case strings.HasPrefix(arg, "--module-version=") && len(arg) > 17:
			if v := arg[17:]; looksLikeCommitHash(v) {
				return v
			}
		case arg == "-c" && i+1 < len(toolInfo.Arguments):
			return toolInfo.Arguments[i+1]
		}
	}

	if toolInfo.Version != "" && looksLikeCommitHash(toolInfo.Version) {
		return toolInfo.Version
	}

	return ""
}

// looksLikeCommitHash checks if a string looks like a git commit hash
func looksLikeCommitHash(s string) bool {
	if len(s) < 7 || len(s) > 40 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// GetIndexPath returns the index path from config and repo root
func GetIndexPath(repoRoot string, configPath string) string {
	if filepath.IsAbs(configPath) {
		return configPath
	}
	return filepath.Join(repoRoot, configPath)
}
