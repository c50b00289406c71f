package scip

// Metadata represents SCIP index metadata
type Metadata struct {
	// Version is the SCIP protocol version
	Version string

	// ToolInfo contains information about the indexing tool
	ToolInfo *ToolInfo

	// ProjectRoot is the root directory of the project
	ProjectRoot string
}

// ToolInfo contains information about the indexing tool
type ToolInfo struct {
	Name      string
	Version   string
	Arguments []string
}

// Document represents a source document in the SCIP index
type Document struct {
	// RelativePath is the path relative to the project root
	RelativePath string

	// Language is the programming language
	Language string

	// Definitions are the definition occurrences of non-local symbols, in index order
	Definitions []*Occurrence

	// Symbols maps symbol IDs defined in this document to their information
	Symbols map[string]*SymbolInformation
}

// Occurrence is a definition site
type Occurrence struct {
	// Range is [startLine, startChar, endChar] or [startLine, startChar, endLine, endChar],
	// 0-indexed
	Range []int32

	// Symbol is the SCIP symbol identifier
	Symbol string

	// EnclosingRange spans the whole definition, including its body, when the indexer
	// provides it
	EnclosingRange []int32
}

// SymbolInformation contains the parts of symbol information used for declarations
type SymbolInformation struct {
	Symbol      string
	Kind        int32
	DisplayName string
}
