package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/lemon07r/pampax/pkg/types"
)

var (
	pampaTagsRe = regexp.MustCompile(`(?i)@pampa-tags:\s*([^\n]+)`)
	pampaIntentRe = regexp.MustCompile(`(?i)@pampa-intent:\s*([^\n]+)`)
	pampaDescRe   = regexp.MustCompile(`(?i)@pampa-description:\s*([^\n]+)`)
)

// extractPampaAnnotations parses @pampa-tags:/@pampa-intent:/@pampa-description:
// annotations out of a chunk's doc comment or body, per §4.6's metadata rule.
func extractPampaAnnotations(text string) (tags []string, intent, description string) {
	if m := pampaTagsRe.FindStringSubmatch(text); m != nil {
		for _, t := range strings.Split(m[1], ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	if m := pampaIntentRe.FindStringSubmatch(text); m != nil {
		intent = strings.TrimSpace(m[1])
	}
	if m := pampaDescRe.FindStringSubmatch(text); m != nil {
		description = strings.TrimSpace(m[1])
	}
	return tags, intent, description
}

// autoTagKeywords is the small dictionary auto-tagging matches against path
// and symbol tokens, per §4.6's "small keyword dictionary match".
var autoTagKeywords = []string{
	"handler", "controller", "service", "repository", "validator",
	"middleware", "config", "client", "server", "factory", "builder",
	"adapter", "gateway", "worker", "queue", "cache", "auth", "token",
	"session", "test", "mock", "util", "helper",
}

const maxAutoTags = 10

// autoTags builds the auto-tag list: pampa tags first (they're explicit,
// author-authored), then path/symbol tokenization, then keyword dictionary
// hits, then DDD pattern names — deduplicated and capped at the top 10 by
// insertion order.
func autoTags(path, symbol string, sym types.Symbol, pampaTags []string) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] || len(tags) >= maxAutoTags {
			return
		}
		seen[t] = true
		tags = append(tags, t)
	}

	for _, t := range pampaTags {
		add(t)
	}

	base := strings.TrimSuffix(pathBase(path), pathExt(path))
	for _, tok := range splitIdentifierWords(base) {
		add(tok)
	}
	for _, tok := range splitIdentifierWords(symbol) {
		add(tok)
	}

	haystack := strings.ToLower(base + " " + symbol)
	for _, kw := range autoTagKeywords {
		if strings.Contains(haystack, kw) {
			add(kw)
		}
	}

	if sym.IsAggregateRoot {
		add("aggregate_root")
	}
	if sym.IsEntity {
		add("entity")
	}
	if sym.IsValueObject {
		add("value_object")
	}
	if sym.IsRepository {
		add("repository_pattern")
	}
	if sym.IsService {
		add("service_pattern")
	}
	if sym.IsCommand {
		add("command")
	}
	if sym.IsQuery {
		add("query")
	}
	if sym.IsHandler {
		add("handler_pattern")
	}

	return tags
}

func pathBase(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func pathExt(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}

// splitIdentifierWords splits a camelCase/PascalCase/snake_case/kebab-case
// token into its lowercase constituent words.
func splitIdentifierWords(s string) []string {
	if s == "" {
		return nil
	}
	var b strings.Builder
	var words []string
	flush := func() {
		if b.Len() > 0 {
			words = append(words, strings.ToLower(b.String()))
			b.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return words
}

// importantVariableRe matches all-caps identifiers assigned a value, the
// cross-language shape of a config/API/constant declaration.
var importantVariableRe = regexp.MustCompile(`(?m)^\s*(?:export\s+|public\s+|const\s+|static\s+final\s+)?([A-Z][A-Z0-9_]{2,})\s*[:=]\s*(.+?)\s*[;,]?\s*$`)

// extractImportantVariables scans code for config/API/constant-shaped
// declarations, per §4.6's important-variable list.
func extractImportantVariables(code string) []types.Variable {
	matches := importantVariableRe.FindAllStringSubmatch(code, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var vars []types.Variable
	for _, m := range matches {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		vars = append(vars, types.NewVariable(name, strings.TrimSpace(m[2])))
	}
	return vars
}

// enrich fills a Chunk's metadata fields — pampa annotations, auto-tags,
// important variables, and contextInfo flags — from its code, doc comment,
// and extracted symbol. Chunk.Context.StartLine/EndLine must already be set.
func enrich(chunk *types.Chunk, sym types.Symbol) {
	annotationText := chunk.Code
	if chunk.DocComment != "" {
		annotationText = chunk.DocComment + "\n" + chunk.Code
	}
	pampaTags, intent, description := extractPampaAnnotations(annotationText)
	chunk.Intent = intent
	chunk.Description = description
	chunk.Tags = autoTags(chunk.FilePath, chunk.Symbol, sym, pampaTags)
	chunk.Variables = extractImportantVariables(chunk.Code)

	var flags []string
	if len(pampaTags) > 0 {
		flags = append(flags, "hasPampaTags")
	}
	if intent != "" {
		flags = append(flags, "hasIntent")
	}
	if chunk.DocComment != "" {
		flags = append(flags, "hasDocumentation")
	}
	if len(chunk.Variables) > 0 {
		flags = append(flags, "hasVariables")
	}
	chunk.Context.Flags = flags
}
