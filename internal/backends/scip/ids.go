package scip

import (
	scippb "github.com/sourcegraph/scip/bindings/go/scip"
)

// describe names a defined symbol and classifies it as a declaration kind. Symbols
// that are not functions, methods or types report ok=false.
func describe(symbol string, info *SymbolInformation) (name, kind string, ok bool) {
	parsed, err := scippb.ParseSymbol(symbol)
	if err != nil || len(parsed.Descriptors) == 0 {
		return "", "", false
	}

	descriptors := parsed.Descriptors
	last := descriptors[len(descriptors)-1]

	kind = kindFromInfo(info)
	if kind == "" {
		switch last.Suffix {
		case scippb.Descriptor_Method:
			kind = "function"
			if len(descriptors) > 1 && descriptors[len(descriptors)-2].Suffix == scippb.Descriptor_Type {
				kind = "method"
			}
		case scippb.Descriptor_Type:
			kind = "type"
		default:
			return "", "", false
		}
	}

	name = last.Name
	if info != nil && info.DisplayName != "" {
		name = info.DisplayName
	}
	if name == "" {
		return "", "", false
	}
	return name, kind, true
}

// kindFromInfo maps the indexer-reported kind, when present, to a declaration kind.
func kindFromInfo(info *SymbolInformation) string {
	if info == nil {
		return ""
	}
	switch scippb.SymbolInformation_Kind(info.Kind) {
	case scippb.SymbolInformation_Function:
		return "function"
	case scippb.SymbolInformation_Method, scippb.SymbolInformation_Constructor:
		return "method"
	case scippb.SymbolInformation_Class, scippb.SymbolInformation_Struct:
		return "class"
	case scippb.SymbolInformation_Interface, scippb.SymbolInformation_Trait:
		return "interface"
	case scippb.SymbolInformation_Enum, scippb.SymbolInformation_TypeAlias, scippb.SymbolInformation_Type:
		return "type"
	default:
		return ""
	}
}

// occurrenceLines converts a SCIP range to 1-indexed inclusive lines, preferring the
// enclosing range so the declaration covers its body.
func occurrenceLines(occ *Occurrence) (start, end int, ok bool) {
	r := occ.EnclosingRange
	if len(r) < 3 {
		r = occ.Range
	}
	switch len(r) {
	case 3:
		return int(r[0]) + 1, int(r[0]) + 1, true
	case 4:
		return int(r[0]) + 1, int(r[2]) + 1, true
	default:
		return 0, 0, false
	}
}
