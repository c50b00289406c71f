//go:build cgo

package symbols

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"codetour/internal/content"
)

// TreeSitter parses files from a content source and reports functions, methods and
// types.
type TreeSitter struct {
	source content.Source

	mu     sync.Mutex
	parser *sitter.Parser
}

// NewTreeSitter creates a provider reading files through source.
func NewTreeSitter(source content.Source) *TreeSitter {
	return &TreeSitter{
		source: source,
		parser: sitter.NewParser(),
	}
}

// IsAvailable returns whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return true
}

func (t *TreeSitter) Declarations(ctx context.Context, path string) ([]Declaration, error) {
	lang, ok := LanguageFromPath(path)
	if !ok {
		return nil, nil
	}

	doc, err := t.source.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	return t.ParseSource(ctx, doc.Bytes(), lang)
}

// ParseSource returns the declaration tree of source.
func (t *TreeSitter) ParseSource(ctx context.Context, source []byte, lang Language) ([]Declaration, error) {
	tsLang, err := getLanguage(lang)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.parser.SetLanguage(tsLang)
	tree, err := t.parser.ParseCtx(ctx, nil, source)
	t.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	decls := Nest(extract(tree.RootNode(), source, lang))
	markMethods(decls, false)
	return decls, nil
}

// getLanguage returns the tree-sitter Language for a given language identifier.
func getLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangGo:
		return golang.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	case LangRust:
		return rust.GetLanguage(), nil
	case LangJava:
		return java.GetLanguage(), nil
	case LangKotlin:
		return kotlin.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// extract walks the tree once and returns every named function or type, flat.
func extract(root *sitter.Node, source []byte, lang Language) []Declaration {
	functionTypes := getFunctionNodeTypes(lang)
	classTypes := getClassNodeTypes(lang)

	var out []Declaration
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		nodeType := node.Type()
		switch {
		case contains(classTypes, nodeType):
			if name := getClassName(node, source, lang); name != "" {
				out = append(out, declarationAt(node, name, getClassKind(node, lang)))
			}
		case contains(functionTypes, nodeType):
			if name := getFunctionName(node, source, lang); name != "" {
				kind := "function"
				switch nodeType {
				case "method_declaration", "method_definition", "constructor_declaration":
					kind = "method"
				}
				out = append(out, declarationAt(node, name, kind))
			}
		}

		for i := uint32(0); i < node.ChildCount(); i++ {
			walk(node.Child(int(i)))
		}
	}

	walk(root)
	return out
}

func declarationAt(node *sitter.Node, name, kind string) Declaration {
	return Declaration{
		Name:      name,
		Kind:      kind,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
	}
}

// getFunctionNodeTypes returns node types for functions and methods.
func getFunctionNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"function_declaration", "method_declaration"}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"function_declaration", "generator_function_declaration", "arrow_function", "method_definition"}
	case LangPython:
		return []string{"function_definition"}
	case LangRust:
		return []string{"function_item"}
	case LangJava:
		return []string{"method_declaration", "constructor_declaration"}
	case LangKotlin:
		return []string{"function_declaration"}
	default:
		return nil
	}
}

// getClassNodeTypes returns node types for classes/types/interfaces.
func getClassNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"type_declaration"}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"class_declaration", "interface_declaration"}
	case LangPython:
		return []string{"class_definition"}
	case LangRust:
		return []string{"struct_item", "enum_item", "trait_item", "impl_item"}
	case LangJava:
		return []string{"class_declaration", "interface_declaration", "enum_declaration"}
	case LangKotlin:
		return []string{"class_declaration", "interface_declaration", "object_declaration"}
	default:
		return nil
	}
}

// getFunctionName extracts the function name from a node. Arrow functions take the
// name of the variable they are assigned to; other anonymous functions are skipped.
func getFunctionName(node *sitter.Node, source []byte, lang Language) string {
	var nameNode *sitter.Node

	switch lang {
	case LangGo:
		nameNode = node.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = firstChildOfType(node, "identifier")
		}

	case LangKotlin:
		nameNode = firstChildOfType(node, "simple_identifier")

	default:
		nameNode = node.ChildByFieldName("name")
	}

	if nameNode == nil && node.Type() == "arrow_function" {
		if parent := node.Parent(); parent != nil && parent.Type() == "variable_declarator" {
			nameNode = parent.ChildByFieldName("name")
		}
	}

	if nameNode != nil {
		return nameNode.Content(source)
	}
	return ""
}

// getClassName extracts the class/type name from a node.
func getClassName(node *sitter.Node, source []byte, lang Language) string {
	var nameNode *sitter.Node

	switch lang {
	case LangGo:
		// type_declaration has type_spec child which has the name
		if spec := firstChildOfType(node, "type_spec"); spec != nil {
			nameNode = spec.ChildByFieldName("name")
		}

	case LangRust:
		nameNode = node.ChildByFieldName("name")
		if nameNode == nil && node.Type() == "impl_item" {
			nameNode = firstChildOfType(node, "type_identifier")
		}

	case LangJava, LangKotlin:
		nameNode = node.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = firstChildOfType(node, "identifier", "simple_identifier", "type_identifier")
		}

	default:
		nameNode = node.ChildByFieldName("name")
	}

	if nameNode != nil {
		return nameNode.Content(source)
	}
	return ""
}

// getClassKind determines the kind of class/type node.
func getClassKind(node *sitter.Node, lang Language) string {
	nodeType := node.Type()

	switch lang {
	case LangGo:
		if spec := firstChildOfType(node, "type_spec"); spec != nil {
			if t := spec.ChildByFieldName("type"); t != nil && t.Type() == "interface_type" {
				return "interface"
			}
		}
		return "type"

	case LangJavaScript, LangTypeScript, LangTSX:
		if nodeType == "interface_declaration" {
			return "interface"
		}
		return "class"

	case LangPython:
		return "class"

	case LangRust:
		if nodeType == "trait_item" {
			return "interface"
		}
		return "type"

	case LangJava, LangKotlin:
		switch nodeType {
		case "interface_declaration":
			return "interface"
		case "enum_declaration":
			return "type"
		}
		return "class"
	}

	return "type"
}

func firstChildOfType(node *sitter.Node, types ...string) *sitter.Node {
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child != nil && contains(types, child.Type()) {
			return child
		}
	}
	return nil
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
