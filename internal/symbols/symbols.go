package symbols

import (
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/lemon07r/pampax/internal/langs"
	"github.com/lemon07r/pampax/pkg/types"
)

// maxCalls mirrors types.Chunk's call-list cap so a symbol's Calls slice
// never needs truncation again once copied onto a Chunk.
const maxCalls = 64

// Extractor derives Symbols from tree-sitter nodes.
type Extractor struct{}

// New returns an Extractor. It carries no state; language rules and source
// bytes are passed per call.
func New() *Extractor {
	return &Extractor{}
}

// Extract builds a Symbol describing node, a chunk-node match produced by
// rule against source. packageName is the enclosing package/module name the
// caller already knows (e.g. a Go package clause); languages with no such
// concept leave it empty.
func (e *Extractor) Extract(node *sitter.Node, source []byte, rule *langs.LangRule, packageName string) types.Symbol {
	kind := kindForNodeType(rule, node, source)

	sym := types.Symbol{
		Package:  packageName,
		Language: rule.Name,
		Kind:     kind,
	}

	sym.Name = extractName(node, source, rule)
	sym.Signature = extractSignature(node, source)
	sym.DocComment = extractDocComment(node, source)
	sym.Scope = determineScope(sym.Name, rule.Name)

	if kind == types.KindMethod {
		sym.Receiver = extractReceiver(node, source)
	}
	if kind == types.KindFunction || kind == types.KindMethod {
		sym.Parameters = extractParameters(node, source)
		sym.ReturnType = extractReturnType(node, source)
	}
	sym.Calls = extractCalls(node, source)

	sym.Start = types.Position{Line: int(node.StartPoint().Row) + 1, Column: int(node.StartPoint().Column) + 1}
	sym.End = types.Position{Line: int(node.EndPoint().Row) + 1, Column: int(node.EndPoint().Column) + 1}

	detectDDDPatterns(&sym)

	return sym
}

func kindForNodeType(rule *langs.LangRule, node *sitter.Node, source []byte) types.SymbolKind {
	nodeType := node.Type()
	switch {
	case strings.Contains(nodeType, "interface"):
		return types.KindInterface
	case strings.Contains(nodeType, "class"):
		return types.KindClass
	case strings.Contains(nodeType, "struct"):
		return types.KindStruct
	case strings.Contains(nodeType, "method"):
		return types.KindMethod
	case strings.Contains(nodeType, "function"):
		if node.ChildByFieldName("receiver") != nil {
			return types.KindMethod
		}
		return types.KindFunction
	case strings.Contains(nodeType, "impl") || strings.Contains(nodeType, "trait") ||
		strings.Contains(nodeType, "object_definition") || nodeType == "module":
		return types.KindClass
	case strings.Contains(nodeType, "type_declaration") || strings.Contains(nodeType, "type_definition") ||
		strings.Contains(nodeType, "value_definition"):
		return refineTypeKind(node.Content(source))
	default:
		return types.KindFunction
	}
}

// refineTypeKind peeks at a generic type-declaration node's own text to tell
// a struct or interface apart from a plain type alias, since several
// grammars (Go, OCaml) surface all three under one node type.
func refineTypeKind(content string) types.SymbolKind {
	switch {
	case strings.Contains(content, "struct"):
		return types.KindStruct
	case strings.Contains(content, "interface"):
		return types.KindInterface
	default:
		return types.KindType
	}
}

var identifierRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:function|func|def|fn)\s+([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`\bclass\s+([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`\binterface\s+([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`\bstruct\s+([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`\btype\s+([A-Za-z_][A-Za-z0-9_]*)`),
}

// extractName resolves a declaration's identifier through a fallback chain:
// the language's declared NameFields, then a keyword-skipping scan of named
// children, then a regex over the raw text, then a synthetic
// "<nodeType>_<offset>" name as a last resort.
func extractName(node *sitter.Node, source []byte, rule *langs.LangRule) string {
	for _, field := range rule.NameFields {
		if n := node.ChildByFieldName(field); n != nil {
			if name := identifierRe.FindString(n.Content(source)); name != "" {
				return name
			}
		}
	}

	if name := scanNamedChildForIdentifier(node, source, rule); name != "" {
		return name
	}

	content := node.Content(source)
	for _, pat := range namePatterns {
		if m := pat.FindStringSubmatch(content); len(m) == 2 {
			return m[1]
		}
	}

	return fmt.Sprintf("%s_%d", node.Type(), node.StartByte())
}

func scanNamedChildForIdentifier(node *sitter.Node, source []byte, rule *langs.LangRule) string {
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		if !strings.Contains(child.Type(), "identifier") {
			continue
		}
		text := strings.TrimSpace(child.Content(source))
		if text != "" && !rule.KeywordTokens[text] {
			return text
		}
	}
	return ""
}

// extractSignature returns the declaration's header: everything up to its
// body, whitespace-collapsed to a single line. Brace languages cut at the
// first "{"; colon/indent languages (Python) cut at the first line-ending
// colon; anything else is capped rather than left unbounded.
func extractSignature(node *sitter.Node, source []byte) string {
	content := node.Content(source)

	if idx := strings.IndexByte(content, '{'); idx >= 0 {
		content = content[:idx]
	} else if idx := strings.Index(content, ":\n"); idx >= 0 {
		content = content[:idx+1]
	} else if len(content) > 200 {
		if nl := strings.IndexByte(content, '\n'); nl >= 0 {
			content = content[:nl]
		} else {
			content = content[:200]
		}
	}

	return collapseWhitespace(content)
}

var paramFieldNames = []string{"parameters", "parameter_list", "formal_parameters"}

func extractParameters(node *sitter.Node, source []byte) []types.Parameter {
	var params []types.Parameter
	for _, fname := range paramFieldNames {
		list := node.ChildByFieldName(fname)
		if list == nil {
			continue
		}
		for i := 0; i < int(list.NamedChildCount()); i++ {
			params = append(params, parameterFromNode(list.NamedChild(i), source))
		}
		return params
	}
	return params
}

func parameterFromNode(n *sitter.Node, source []byte) types.Parameter {
	var p types.Parameter

	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		p.Name = collapseWhitespace(nameNode.Content(source))
	} else if n.Type() == "identifier" {
		p.Name = strings.TrimSpace(n.Content(source))
	}

	if typeNode := n.ChildByFieldName("type"); typeNode != nil {
		p.Type = collapseWhitespace(typeNode.Content(source))
	}

	if defNode := n.ChildByFieldName("value"); defNode != nil {
		p.Default = collapseWhitespace(defNode.Content(source))
	} else if defNode := n.ChildByFieldName("default_value"); defNode != nil {
		p.Default = collapseWhitespace(defNode.Content(source))
	}

	if p.Name == "" && p.Type == "" {
		p.Type = collapseWhitespace(n.Content(source))
	}

	return p
}

var returnFieldNames = []string{"result", "return_type", "type"}

func extractReturnType(node *sitter.Node, source []byte) string {
	for _, fname := range returnFieldNames {
		if n := node.ChildByFieldName(fname); n != nil {
			return collapseWhitespace(n.Content(source))
		}
	}
	return ""
}

// extractReceiver pulls a method's receiver type name out of the field the
// grammar exposes for it (Go's "receiver" field list, or an equivalent).
// The last identifier in the field's text is taken as the type name, which
// tolerates both value receivers ("s Store") and pointer receivers
// ("s *Store").
func extractReceiver(node *sitter.Node, source []byte) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	matches := identifierRe.FindAllString(recv.Content(source), -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

// extractCalls walks node's subtree collecting the callee name of every
// call-shaped node it finds ("call_expression", "call", "method_invocation",
// and similar), deduplicated in first-seen order and capped at maxCalls.
func extractCalls(node *sitter.Node, source []byte) []string {
	var calls []string
	seen := make(map[string]bool)

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || len(calls) >= maxCalls {
			return
		}
		if strings.Contains(n.Type(), "call") {
			if name := calleeName(n, source); name != "" && !seen[name] {
				seen[name] = true
				calls = append(calls, name)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(node)

	return calls
}

func calleeName(n *sitter.Node, source []byte) string {
	target := n.ChildByFieldName("function")
	if target == nil {
		target = n.ChildByFieldName("method")
	}
	if target == nil && n.NamedChildCount() > 0 {
		target = n.NamedChild(0)
	}
	if target == nil {
		return ""
	}

	text := strings.TrimSpace(target.Content(source))
	if idx := strings.LastIndexAny(text, ".:>"); idx >= 0 {
		text = text[idx+1:]
	}
	return text
}

// extractDocComment collects the run of comment nodes immediately preceding
// node, oldest first, the way a doc comment block precedes its declaration
// in every language the table covers.
func extractDocComment(node *sitter.Node, source []byte) string {
	var lines []string
	for sib := node.PrevSibling(); sib != nil && strings.Contains(sib.Type(), "comment"); sib = sib.PrevSibling() {
		lines = append([]string{cleanComment(sib.Content(source))}, lines...)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func cleanComment(s string) string {
	s = strings.TrimSpace(s)
	for _, marker := range []string{"///", "//", "/**", "/*", "#"} {
		s = strings.TrimPrefix(s, marker)
	}
	s = strings.TrimSuffix(s, "*/")
	return strings.TrimSpace(s)
}

// determineScope applies the exported/unexported convention of the given
// language: leading-underscore privacy for Python/PHP/Ruby, initial-case
// for everything else.
func determineScope(name, lang string) types.SymbolScope {
	if name == "" {
		return types.ScopePackageLocal
	}
	switch lang {
	case "python", "php", "ruby":
		if strings.HasPrefix(name, "_") {
			return types.ScopeUnexported
		}
		return types.ScopeExported
	default:
		if types.IsExportedName(name) {
			return types.ScopeExported
		}
		return types.ScopeUnexported
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
