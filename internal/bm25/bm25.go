package bm25

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Document is one unit of BM25-indexed text, keyed by chunk_id.
type Document struct {
	ID   string
	Text string
}

// Result is one scored document from a Query.
type Result struct {
	ID    string
	Score float64
}

// Index is a standard Okapi BM25 lexical index (k1 ≈ 1.2, b ≈ 0.75 by
// default) over a fixed document set.
type Index struct {
	mu sync.RWMutex

	k1, b    float64
	tokenize func(string) []string

	termFreqs map[string]map[string]int // docID -> term -> count
	docLen    map[string]int
	df        map[string]int // term -> number of documents containing it
	totalLen  int
}

// New builds an empty Index with the standard Okapi BM25 defaults.
func New() *Index {
	return NewWithParams(1.2, 0.75)
}

// NewWithParams builds an empty Index with explicit k1/b.
func NewWithParams(k1, b float64) *Index {
	return &Index{
		k1:        k1,
		b:         b,
		tokenize:  defaultTokenize,
		termFreqs: make(map[string]map[string]int),
		docLen:    make(map[string]int),
		df:        make(map[string]int),
	}
}

// BuildFromDocuments constructs an Index from a full document set in one
// pass, the "consolidate statistics after bulk adds" path used when a
// (provider, dimensions) index is first built.
func BuildFromDocuments(docs []Document) *Index {
	idx := New()
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, d := range docs {
		idx.addLocked(d)
	}
	return idx
}

// Add inserts or replaces a document's statistics.
func (idx *Index) Add(doc Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.addLocked(doc)
}

func (idx *Index) addLocked(doc Document) {
	if _, exists := idx.termFreqs[doc.ID]; exists {
		idx.removeLocked(doc.ID)
	}

	terms := idx.tokenize(doc.Text)
	freqs := make(map[string]int, len(terms))
	for _, t := range terms {
		freqs[t]++
	}

	idx.termFreqs[doc.ID] = freqs
	idx.docLen[doc.ID] = len(terms)
	idx.totalLen += len(terms)
	for t := range freqs {
		idx.df[t]++
	}
}

// Remove deletes a document's statistics, if present.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
}

func (idx *Index) removeLocked(id string) {
	freqs, ok := idx.termFreqs[id]
	if !ok {
		return
	}
	for t := range freqs {
		idx.df[t]--
		if idx.df[t] <= 0 {
			delete(idx.df, t)
		}
	}
	idx.totalLen -= idx.docLen[id]
	delete(idx.termFreqs, id)
	delete(idx.docLen, id)
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.termFreqs)
}

// Query scores every document against query, restricted to allowed (nil
// means unrestricted — every indexed document is a candidate), returning
// the topN highest-scoring documents in descending score order. Ties break
// on ID for deterministic output.
func (idx *Index) Query(query string, topN int, allowed map[string]bool) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	terms := idx.tokenize(query)
	if len(terms) == 0 || len(idx.termFreqs) == 0 {
		return nil
	}

	n := float64(len(idx.termFreqs))
	avgLen := float64(idx.totalLen) / n

	results := make([]Result, 0, len(idx.termFreqs))
	for id, freqs := range idx.termFreqs {
		if allowed != nil && !allowed[id] {
			continue
		}
		score := idx.scoreDoc(terms, freqs, float64(idx.docLen[id]), avgLen, n)
		if score > 0 {
			results = append(results, Result{ID: id, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) == 0 {
		return nil
	}
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

func (idx *Index) scoreDoc(terms []string, freqs map[string]int, docLen, avgLen, n float64) float64 {
	var score float64
	for _, t := range terms {
		tf := float64(freqs[t])
		if tf == 0 {
			continue
		}
		df := float64(idx.df[t])
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		denom := tf + idx.k1*(1-idx.b+idx.b*docLen/avgLen)
		score += idf * (tf * (idx.k1 + 1) / denom)
	}
	return score
}

var wordRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

// defaultTokenize lowercases and splits on non-word characters, then also
// emits the sub-tokens of each identifier split on '_'/'-' and camelCase
// boundaries, so a query for "user id" matches a symbol named
// "getUserById" or "get_user_by_id".
func defaultTokenize(s string) []string {
	words := wordRe.FindAllString(s, -1)
	tokens := make([]string, 0, len(words)*2)
	for _, w := range words {
		tokens = append(tokens, strings.ToLower(w))
		for _, part := range splitIdentifier(w) {
			if !strings.EqualFold(part, w) {
				tokens = append(tokens, strings.ToLower(part))
			}
		}
	}
	return tokens
}

func splitIdentifier(s string) []string {
	var parts []string
	var cur strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-':
			if cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			}
		case i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]):
			if cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			}
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
