package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// vectorCandidates fetches every chunk's embedding under (provider,
// dimensions), the mandatory pair filter from §4.3: "chunks embedded under a
// different provider/dimension are invisible to a search configured
// otherwise." Cosine similarity itself is computed by the searcher (C12) in
// Go rather than in SQL, since no dependency here vendors a SQL-side vector
// extension we can rely on being present at runtime — this is the one code
// path, not a purego fallback of a cgo-optimized one.
func vectorCandidates(ctx context.Context, db *sql.DB, provider string, dimensions int, filters *SearchFilters) ([]VectorCandidate, error) {
	query := `
		SELECT id, embedding, file_path, lang, pampa_tags, pampa_intent FROM code_chunks
		WHERE embedding_provider = ? AND embedding_dimensions = ? AND embedding IS NOT NULL
	`
	args := []interface{}{provider, dimensions}
	query, args = applyChunkFilters(query, args, filters)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: vector candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []VectorCandidate
	for rows.Next() {
		var id, filePath, lang, tagsJSON, intent string
		var blob []byte
		if err := rows.Scan(&id, &blob, &filePath, &lang, &tagsJSON, &intent); err != nil {
			return nil, err
		}
		vc := VectorCandidate{
			ChunkID:     id,
			Embedding:   DeserializeVector(blob),
			FilePath:    filePath,
			Lang:        lang,
			PampaIntent: intent,
		}
		if tagsJSON != "" {
			_ = json.Unmarshal([]byte(tagsJSON), &vc.PampaTags)
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}

// lexicalCandidates fetches the text fields the in-memory BM25 index (C11)
// tokenizes: symbol, file_path, description, intent, doc comments. The
// compressed chunk body itself is decompressed by the caller via the
// chunkstore when building the BM25 corpus, since the store only holds
// metadata.
func lexicalCandidates(ctx context.Context, db *sql.DB, filters *SearchFilters) ([]LexicalCandidate, error) {
	query := `SELECT id, file_path, symbol, pampa_description, pampa_intent, doc_comments FROM code_chunks WHERE 1=1`
	var args []interface{}
	query, args = applyChunkFilters(query, args, filters)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: lexical candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []LexicalCandidate
	for rows.Next() {
		var c LexicalCandidate
		if err := rows.Scan(&c.ChunkID, &c.FilePath, &c.Symbol, &c.Description, &c.Intent, &c.DocComments); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func applyChunkFilters(query string, args []interface{}, filters *SearchFilters) (string, []interface{}) {
	if filters == nil {
		return query, args
	}
	if len(filters.Lang) > 0 {
		query += " AND lang IN (" + placeholders(len(filters.Lang)) + ")"
		for _, l := range filters.Lang {
			args = append(args, l)
		}
	}
	if len(filters.ChunkType) > 0 {
		query += " AND chunk_type IN (" + placeholders(len(filters.ChunkType)) + ")"
		for _, ct := range filters.ChunkType {
			args = append(args, ct)
		}
	}
	if filters.PathGlob != "" {
		query += " AND file_path GLOB ?"
		args = append(args, filters.PathGlob)
	}
	return query, args
}

func placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "?"
	}
	return strings.Join(ph, ",")
}

// SerializeVector converts a float32 slice to a little-endian byte blob,
// the binary layout §4.3 mandates for the embedding BLOB column.
func SerializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// DeserializeVector converts a byte blob back to a float32 slice.
func DeserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// CosineSimilarity computes the cosine similarity between two vectors of
// equal length; mismatched lengths score 0 rather than panicking, so a
// caller can skip a stale-dimension row without a defensive length check
// at every call site.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
