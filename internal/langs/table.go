package langs

import (
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/elixir"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/lua"
	"github.com/smacker/go-tree-sitter/ocaml"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/scala"
	"github.com/smacker/go-tree-sitter/swift"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

var commonKeywords = map[string]bool{
	"public": true, "private": true, "protected": true, "static": true,
	"function": true, "class": true, "def": true, "fn": true, "func": true,
	"async": true, "export": true, "default": true, "const": true,
	"final": true, "abstract": true, "override": true, "virtual": true,
}

// allRules is the language table backing Default(). Languages with a real
// grammar binding available in the retrieved corpus (SloanGwaltney-synapse's
// go.mod pulls in github.com/smacker/go-tree-sitter; its sub-packages cover
// the entries below) get a full node-type table grounded in each grammar's
// documented node kinds. The remaining §6 languages for which no binding was
// found in the pack (JSON, CSS, Haskell) are registered fallback-only so
// their extension still resolves to a language tag.
func allRules() []*LangRule {
	return []*LangRule{
		{
			Name:       "go",
			Extensions: []string{".go"},
			Language:   golang.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_declaration": true,
				"method_declaration":   true,
				"type_declaration":     true,
			},
			SubdivisionTypes: map[string][]string{
				"type_declaration": {"method_declaration"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "javascript",
			Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
			Language:   javascript.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_declaration": true,
				"class_declaration":    true,
				"method_definition":    true,
				"lexical_declaration":  true,
			},
			SubdivisionTypes: map[string][]string{
				"class_declaration": {"method_definition"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "typescript",
			Extensions: []string{".ts"},
			Language:   typescript.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_declaration":  true,
				"class_declaration":     true,
				"method_definition":     true,
				"interface_declaration": true,
			},
			SubdivisionTypes: map[string][]string{
				"class_declaration": {"method_definition"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "tsx",
			Extensions: []string{".tsx"},
			Language:   tsx.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_declaration": true,
				"class_declaration":    true,
				"method_definition":    true,
			},
			SubdivisionTypes: map[string][]string{
				"class_declaration": {"method_definition"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "python",
			Extensions: []string{".py"},
			Language:   python.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_definition": true,
				"class_definition":    true,
			},
			SubdivisionTypes: map[string][]string{
				"class_definition": {"function_definition"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "java",
			Extensions: []string{".java"},
			Language:   java.GetLanguage(),
			NodeTypes: map[string]bool{
				"method_declaration":    true,
				"class_declaration":     true,
				"interface_declaration": true,
			},
			SubdivisionTypes: map[string][]string{
				"class_declaration":     {"method_declaration"},
				"interface_declaration": {"method_declaration"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "kotlin",
			Extensions: []string{".kt", ".kts"},
			Language:   kotlin.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_declaration": true,
				"class_declaration":    true,
			},
			SubdivisionTypes: map[string][]string{
				"class_declaration": {"function_declaration"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "rust",
			Extensions: []string{".rs"},
			Language:   rust.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_item": true,
				"impl_item":     true,
				"struct_item":   true,
				"enum_item":     true,
				"trait_item":    true,
			},
			SubdivisionTypes: map[string][]string{
				"impl_item":  {"function_item"},
				"trait_item": {"function_item"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "c",
			Extensions: []string{".c", ".h"},
			Language:   c.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_definition": true,
				"struct_specifier":    true,
			},
			SubdivisionTypes: map[string][]string{},
			NameFields:       []string{"declarator"},
			KeywordTokens:    commonKeywords,
		},
		{
			Name:       "cpp",
			Extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"},
			Language:   cpp.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_definition": true,
				"class_specifier":     true,
				"struct_specifier":    true,
			},
			SubdivisionTypes: map[string][]string{
				"class_specifier": {"function_definition"},
			},
			NameFields:    []string{"declarator"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "csharp",
			Extensions: []string{".cs"},
			Language:   csharp.GetLanguage(),
			NodeTypes: map[string]bool{
				"method_declaration": true,
				"class_declaration":  true,
			},
			SubdivisionTypes: map[string][]string{
				"class_declaration": {"method_declaration"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "ruby",
			Extensions: []string{".rb"},
			Language:   ruby.GetLanguage(),
			NodeTypes: map[string]bool{
				"method": true,
				"class":  true,
				"module": true,
			},
			SubdivisionTypes: map[string][]string{
				"class":  {"method"},
				"module": {"method"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "scala",
			Extensions: []string{".scala"},
			Language:   scala.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_definition": true,
				"class_definition":    true,
				"object_definition":   true,
			},
			SubdivisionTypes: map[string][]string{
				"class_definition":  {"function_definition"},
				"object_definition": {"function_definition"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "swift",
			Extensions: []string{".swift"},
			Language:   swift.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_declaration": true,
				"class_declaration":    true,
			},
			SubdivisionTypes: map[string][]string{
				"class_declaration": {"function_declaration"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "lua",
			Extensions: []string{".lua"},
			Language:   lua.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_declaration": true,
			},
			SubdivisionTypes: map[string][]string{},
			NameFields:       []string{"name"},
			KeywordTokens:    commonKeywords,
		},
		{
			Name:       "ocaml",
			Extensions: []string{".ml", ".mli"},
			Language:   ocaml.GetLanguage(),
			NodeTypes: map[string]bool{
				"value_definition": true,
				"type_definition":  true,
			},
			SubdivisionTypes: map[string][]string{},
			NameFields:       []string{"name"},
			KeywordTokens:    commonKeywords,
		},
		{
			Name:       "haskell",
			Extensions: []string{".hs"},
			Language:   nil, // no grammar binding found in the retrieved corpus
		},
		{
			Name:       "elixir",
			Extensions: []string{".ex", ".exs"},
			Language:   elixir.GetLanguage(),
			NodeTypes: map[string]bool{
				"call": true, // def/defmodule surface as call nodes in this grammar
			},
			SubdivisionTypes: map[string][]string{},
			NameFields:       []string{"target"},
			KeywordTokens:    commonKeywords,
		},
		{
			Name:       "bash",
			Extensions: []string{".sh", ".bash"},
			Language:   bash.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_definition": true,
			},
			SubdivisionTypes: map[string][]string{},
			NameFields:       []string{"name"},
			KeywordTokens:    commonKeywords,
		},
		{
			Name:       "php",
			Extensions: []string{".php"},
			Language:   php.GetLanguage(),
			NodeTypes: map[string]bool{
				"function_definition": true,
				"method_declaration":  true,
				"class_declaration":   true,
			},
			SubdivisionTypes: map[string][]string{
				"class_declaration": {"method_declaration"},
			},
			NameFields:    []string{"name"},
			KeywordTokens: commonKeywords,
		},
		{
			Name:       "html",
			Extensions: []string{".html", ".htm"},
			Language:   html.GetLanguage(),
			NodeTypes: map[string]bool{
				"element": true,
			},
			SubdivisionTypes: map[string][]string{},
			NameFields:       []string{},
			KeywordTokens:    commonKeywords,
		},
		{
			Name:       "json",
			Extensions: []string{".json"},
			Language:   nil, // no grammar binding found in the retrieved corpus
		},
		{
			Name:       "css",
			Extensions: []string{".css"},
			Language:   nil, // no grammar binding found in the retrieved corpus
		},
	}
}
