package chunker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/lemon07r/pampax/internal/langs"
	"github.com/lemon07r/pampax/internal/symbols"
	"github.com/lemon07r/pampax/internal/tokenizer"
	"github.com/lemon07r/pampax/pkg/types"
)

// Stats tallies how a file's chunks were produced, folded into the Indexer
// Orchestrator's per-run chunkingStats (§4.10).
type Stats struct {
	TotalNodes        int
	NormalChunks      int
	Subdivided        int
	MergedSmall       int
	StatementFallback int
	SkippedSmall      int
}

// Result is what Chunk returns: the chunks themselves plus the stats needed
// to fold into a run-wide tally.
type Result struct {
	Chunks []*types.Chunk
	Stats  Stats
}

// Chunker walks a parsed source file per its LangRule and emits Chunks.
type Chunker struct {
	analyzer  *tokenizer.Analyzer
	extractor *symbols.Extractor
	limits    tokenizer.Limits
}

// New builds a Chunker. limits are the C5 size boundaries every node is
// classified against.
func New(analyzer *tokenizer.Analyzer, limits tokenizer.Limits) *Chunker {
	return &Chunker{analyzer: analyzer, extractor: symbols.New(), limits: limits}
}

// Chunk parses path's source under rule and walks the tree, or falls back to
// a single whole-file chunk when rule has no grammar, parsing fails, or the
// tree has no root — the same fallback path §4.10 step 2 takes on a parse
// error.
func (c *Chunker) Chunk(path string, source []byte, rule *langs.LangRule) (Result, error) {
	if rule == nil || rule.Language == nil {
		lang := ""
		if rule != nil {
			lang = rule.Name
		}
		return Result{Chunks: []*types.Chunk{c.wholeFileChunk(path, source, lang)}, Stats: Stats{NormalChunks: 1}}, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(rule.Language)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil || tree.RootNode() == nil {
		lang := rule.Name
		return Result{Chunks: []*types.Chunk{c.wholeFileChunk(path, source, lang)}, Stats: Stats{NormalChunks: 1}}, nil
	}
	defer tree.Close()

	w := &walker{
		c:           c,
		rule:        rule,
		source:      source,
		path:        path,
		packageName: detectPackageName(rule, tree.RootNode(), source),
		processed:   make(map[nodeKey]bool),
	}

	var chunks []*types.Chunk
	w.walk(tree.RootNode(), false, &chunks)

	if len(chunks) == 0 {
		return Result{Chunks: []*types.Chunk{c.wholeFileChunk(path, source, rule.Name)}, Stats: Stats{NormalChunks: 1}}, nil
	}

	return Result{Chunks: chunks, Stats: w.stats}, nil
}

func (c *Chunker) wholeFileChunk(path string, source []byte, lang string) *types.Chunk {
	code := string(source)
	chunk := &types.Chunk{
		FilePath:  path,
		Symbol:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Language:  lang,
		ChunkType: types.ChunkFile,
		Code:      code,
	}
	chunk.Context = types.ChunkContext{StartLine: 1, EndLine: strings.Count(code, "\n") + 1, CodeLength: len(code)}
	enrich(chunk, types.Symbol{})
	chunk.ComputeSHA()
	return chunk
}

// nodeKey identifies a tree-sitter node by byte range rather than pointer
// identity, since accessor methods on *sitter.Node may return distinct
// wrapper values for the same underlying node.
type nodeKey struct {
	start uint32
	end   uint32
}

func keyFor(n *sitter.Node) nodeKey {
	return nodeKey{start: n.StartByte(), end: n.EndByte()}
}

type walker struct {
	c           *Chunker
	rule        *langs.LangRule
	source      []byte
	path        string
	packageName string
	processed   map[nodeKey]bool
	stats       Stats
}

func (w *walker) isProcessed(n *sitter.Node) bool { return w.processed[keyFor(n)] }
func (w *walker) markProcessed(n *sitter.Node)    { w.processed[keyFor(n)] = true }

// walk is the pre-order traversal of §4.6's Node walk. entered tracks
// whether an ancestor chunk node has already been entered, which governs the
// too-small-and-nested skip rule (step 2).
func (w *walker) walk(node *sitter.Node, entered bool, chunks *[]*types.Chunk) {
	if !w.rule.IsChunkNode(node.Type()) {
		w.walkChildren(node, entered, chunks)
		return
	}

	if w.isProcessed(node) {
		w.walkChildren(node, true, chunks)
		return
	}

	w.stats.TotalNodes++
	size := w.c.analyzer.Analyze(node.Content(w.source), w.c.limits, false)
	if size.Decision == tokenizer.TooSmall && entered {
		w.stats.SkippedSmall++
		w.walkChildren(node, entered, chunks)
		return
	}

	w.processNode(node, chunks)
	w.walkChildren(node, true, chunks)
}

func (w *walker) walkChildren(node *sitter.Node, entered bool, chunks *[]*types.Chunk) {
	n := int(node.NamedChildCount())
	for i := 0; i < n; i++ {
		child := node.NamedChild(i)
		if child != nil {
			w.walk(child, entered, chunks)
		}
	}
}

// processNode classifies an already-selected chunk node and dispatches to
// steps 3-5 of §4.6's Node walk.
func (w *walker) processNode(node *sitter.Node, chunks *[]*types.Chunk) {
	if w.isProcessed(node) {
		return
	}
	defer w.markProcessed(node)

	code := node.Content(w.source)
	size := w.c.analyzer.Analyze(code, w.c.limits, false)

	if size.Decision != tokenizer.TooLarge {
		w.stats.NormalChunks++
		*chunks = append(*chunks, w.emitWhole(node))
		return
	}

	candidates := w.rule.SubdivisionCandidates(node.Type())
	if len(candidates) > 0 {
		w.subdivide(node, candidates, chunks)
		return
	}

	w.stats.StatementFallback++
	w.emitParts(node, chunks)
}

// subdivide implements step 3: batch-size every subdivision candidate,
// recurse into the ones that aren't too small, and merge the too-small
// remainder into one chunk when the merge threshold is met.
func (w *walker) subdivide(node *sitter.Node, candidateTypes []string, chunks *[]*types.Chunk) {
	candidates := collectCandidates(node, candidateTypes)

	if len(candidates) == 0 {
		w.stats.StatementFallback++
		w.emitParts(node, chunks)
		return
	}

	codes := make([]string, len(candidates))
	for i, cand := range candidates {
		codes[i] = cand.Content(w.source)
	}
	results := w.c.analyzer.BatchAnalyze(codes, w.c.limits, true)

	var small []*sitter.Node
	combinedSize := 0
	for i, cand := range candidates {
		w.stats.TotalNodes++
		if results[i].Decision == tokenizer.TooSmall {
			small = append(small, cand)
			combinedSize += results[i].Size
			continue
		}
		w.stats.Subdivided++
		w.processNode(cand, chunks)
	}

	if len(small) == 0 {
		return
	}

	if combinedSize >= w.c.limits.Min || len(small) >= 3 {
		w.stats.MergedSmall++
		*chunks = append(*chunks, w.emitMerged(node.Type(), small))
	} else {
		w.stats.SkippedSmall += len(small)
	}
	for _, s := range small {
		w.markProcessed(s)
	}
}

// emitWhole builds a Chunk from a node emitted as-is (step 5), reusing the
// Symbol Extractor for signature/params/return/calls/docComment/DDD flags.
func (w *walker) emitWhole(node *sitter.Node) *types.Chunk {
	sym := w.c.extractor.Extract(node, w.source, w.rule, w.packageName)
	code := node.Content(w.source)

	chunk := &types.Chunk{
		FilePath:   w.path,
		Symbol:     sym.Name,
		Language:   w.rule.Name,
		ChunkType:  types.ChunkType(node.Type()),
		Code:       code,
		DocComment: sym.DocComment,
		Signature:  sym.Signature,
		Parameters: sym.Parameters,
		ReturnType: sym.ReturnType,
		Calls:      sym.Calls,
	}
	chunk.Context = types.ChunkContext{
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		CodeLength: len(code),
	}
	enrich(chunk, sym)
	chunk.ComputeSHA()
	return chunk
}

// emitMerged builds one chunk covering a run of too-small sibling nodes,
// per the merged chunk boundary rule: the code (and thus the SHA) is the
// "\n\n"-joined constituent sources, not the literal parent span.
func (w *walker) emitMerged(parentType string, small []*sitter.Node) *types.Chunk {
	codes := make([]string, len(small))
	var allCalls []string
	seenCalls := make(map[string]bool)
	var docParts []string

	for i, n := range small {
		codes[i] = n.Content(w.source)
		sym := w.c.extractor.Extract(n, w.source, w.rule, w.packageName)
		for _, call := range sym.Calls {
			if len(allCalls) >= 64 {
				break
			}
			if !seenCalls[call] {
				seenCalls[call] = true
				allCalls = append(allCalls, call)
			}
		}
		if sym.DocComment != "" {
			docParts = append(docParts, sym.DocComment)
		}
	}

	code := strings.Join(codes, "\n\n")
	first, last := small[0], small[len(small)-1]

	chunk := &types.Chunk{
		FilePath:   w.path,
		Symbol:     fmt.Sprintf("small_methods_%d", len(small)),
		Language:   w.rule.Name,
		ChunkType:  types.MergedChunkType(parentType),
		Code:       code,
		DocComment: strings.Join(docParts, "\n"),
		Calls:      allCalls,
	}
	chunk.Context = types.ChunkContext{
		StartLine:  int(first.StartPoint().Row) + 1,
		EndLine:    int(last.EndPoint().Row) + 1,
		CodeLength: len(code),
	}
	enrich(chunk, types.Symbol{DocComment: chunk.DocComment})
	chunk.ComputeSHA()
	return chunk
}

// emitParts implements step 4: an oversized node with no subdivision
// candidates is split into line windows with at least 20% overlap between
// adjacent windows, shrinking the window and recursing into any window still
// too large, per SloanGwaltney-synapse's splitOversized.
func (w *walker) emitParts(node *sitter.Node, chunks *[]*types.Chunk) {
	lines := strings.Split(node.Content(w.source), "\n")
	baseLine := int(node.StartPoint().Row) + 1
	nodeType := node.Type()

	windows := w.splitLines(lines, initialWindowLines, 0)

	symBase := w.c.extractor.Extract(node, w.source, w.rule, w.packageName).Name
	for i, win := range windows {
		code := strings.Join(lines[win.start:win.end], "\n")
		chunk := &types.Chunk{
			FilePath:  w.path,
			Symbol:    fmt.Sprintf("%s_part%d", symBase, i+1),
			Language:  w.rule.Name,
			ChunkType: types.PartChunkType(nodeType, i+1),
			Code:      code,
		}
		chunk.Context = types.ChunkContext{
			StartLine:  baseLine + win.start,
			EndLine:    baseLine + win.end - 1,
			CodeLength: len(code),
		}
		enrich(chunk, types.Symbol{})
		chunk.ComputeSHA()
		*chunks = append(*chunks, chunk)
	}
}

const initialWindowLines = 40
const minWindowLines = 5
const maxSplitDepth = 4

type lineWindow struct{ start, end int }

// splitLines windows lines with a 20% line overlap, recursing with a
// smaller window into any slice the tokenizer still classifies as too_large.
func (w *walker) splitLines(lines []string, windowLines, depth int) []lineWindow {
	if windowLines < minWindowLines || depth > maxSplitDepth {
		return []lineWindow{{start: 0, end: len(lines)}}
	}

	overlap := windowLines / 5
	if overlap < 1 {
		overlap = 1
	}

	var windows []lineWindow
	for i := 0; i < len(lines); {
		end := i + windowLines
		if end > len(lines) {
			end = len(lines)
		}
		piece := strings.Join(lines[i:end], "\n")
		if w.c.analyzer.Analyze(piece, w.c.limits, false).Decision == tokenizer.TooLarge {
			for _, sub := range w.splitLines(lines[i:end], windowLines*3/4, depth+1) {
				windows = append(windows, lineWindow{start: i + sub.start, end: i + sub.end})
			}
		} else {
			windows = append(windows, lineWindow{start: i, end: end})
		}
		if end >= len(lines) {
			break
		}
		step := windowLines - overlap
		if step < 1 {
			step = 1
		}
		i += step
	}
	return windows
}

// collectCandidates finds every outermost descendant of node whose type is
// in candidateTypes. It descends through intervening structural nodes (a
// class body wrapping its methods, for instance) but does not descend into
// a match itself, so nested candidates of the same type are not
// double-counted.
func collectCandidates(node *sitter.Node, candidateTypes []string) []*sitter.Node {
	isCandidate := func(t string) bool {
		for _, ct := range candidateTypes {
			if ct == t {
				return true
			}
		}
		return false
	}

	var result []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		count := int(n.NamedChildCount())
		for i := 0; i < count; i++ {
			child := n.NamedChild(i)
			if child == nil {
				continue
			}
			if isCandidate(child.Type()) {
				result = append(result, child)
				continue
			}
			walk(child)
		}
	}
	walk(node)
	return result
}

// detectPackageName extracts a Go package clause's identifier so the Symbol
// Extractor gets a real package for Go sources. Languages without a
// grammar-visible package/module clause leave it empty.
func detectPackageName(rule *langs.LangRule, root *sitter.Node, source []byte) string {
	if rule.Name != "go" {
		return ""
	}
	n := int(root.NamedChildCount())
	for i := 0; i < n; i++ {
		child := root.NamedChild(i)
		if child == nil || child.Type() != "package_clause" {
			continue
		}
		if id := child.NamedChild(0); id != nil {
			return strings.TrimSpace(id.Content(source))
		}
	}
	return ""
}
