// Package langs provides the per-language tree-sitter grammar and chunking
// rule table the Chunker (C6) and Symbol Extractor (C7) consume. It follows
// the registry shape of SloanGwaltney-synapse's internal/chunker/registry.go
// (thread-safe map-by-extension, map-by-name) generalized from that
// project's capture-query rules to a plain node-type table model.
package langs

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// LangRule lists a language's top-level chunk node types and, for each,
// which child node types qualify as subdivision candidates when the parent
// exceeds the size ceiling (§4.6).
type LangRule struct {
	Name       string
	Extensions []string
	Language   *sitter.Language // nil for fallback-only (whole-file) languages

	// NodeTypes are the tree-sitter node kinds the chunker walks for and
	// emits as top-level chunks (e.g. "function_declaration").
	NodeTypes map[string]bool

	// SubdivisionTypes maps a node type to the node types within it that
	// may be split out as independent chunks when the parent is oversized
	// (e.g. a class node -> its method nodes).
	SubdivisionTypes map[string][]string

	// NameFields lists, in priority order, tree-sitter field/node
	// names likely to hold a declaration's identifier, tried before the
	// keyword-skipping subtree scan and regex fallbacks.
	NameFields []string

	// KeywordTokens are language keywords the symbol-naming walk skips
	// over when scanning a node's children for an identifier.
	KeywordTokens map[string]bool
}

// IsChunkNode reports whether nodeType is one of this language's top-level
// chunk node types.
func (r *LangRule) IsChunkNode(nodeType string) bool {
	return r.NodeTypes[nodeType]
}

// SubdivisionCandidates returns the child node types that may be split out
// of a node of the given type.
func (r *LangRule) SubdivisionCandidates(nodeType string) []string {
	return r.SubdivisionTypes[nodeType]
}

// Registry holds the set of known LangRules, indexed by extension and by
// name, following synapse's Registry shape.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]*LangRule
	byName map[string]*LangRule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt:  make(map[string]*LangRule),
		byName: make(map[string]*LangRule),
	}
}

// Register adds a LangRule, indexing it by every listed extension and by
// name. Later registrations for the same extension win, matching synapse's
// last-registration-wins semantics.
func (r *Registry) Register(rule *LangRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[rule.Name] = rule
	for _, ext := range rule.Extensions {
		r.byExt[strings.ToLower(ext)] = rule
	}
}

// ForPath resolves the LangRule for a file path by its extension. Returns
// (nil, false) for unregistered extensions — callers fall back to a
// whole-file chunk.
func (r *Registry) ForPath(path string) (*LangRule, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.byExt[ext]
	return rule, ok
}

// ForName resolves a LangRule by its registered name (e.g. "go", "python").
func (r *Registry) ForName(name string) (*LangRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.byName[name]
	return rule, ok
}

// Names returns every registered language name, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

// Default builds the standard registry: every language listed in §6's
// supported-languages table gets an entry; languages for which a real
// tree-sitter grammar binding exists in the retrieved corpus get a full
// LangRule (Language != nil); the rest are registered with Language == nil
// so ForPath still resolves them to a language tag, but the chunker treats
// them as fallback-only (whole-file chunk, no subdivision) rather than
// silently mis-classifying the file's extension as unsupported.
func Default() *Registry {
	r := NewRegistry()
	for _, rule := range allRules() {
		r.Register(rule)
	}
	return r
}
