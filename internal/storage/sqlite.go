package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lemon07r/pampax/pkg/types"
)

// SQLiteStore implements Store on top of the dual cgo/purego SQLite driver
// selected by build_cgo.go / build_purego.go.
type SQLiteStore struct {
	db *sql.DB
}

func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// NewSQLiteStore opens (creating if absent) the metadata DB at dbPath and
// applies pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

// querier is implemented by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *SQLiteStore) querier() querier { return s.db }

type sqliteTx struct{ tx *sql.Tx }

func (t *sqliteTx) querier() querier { return t.tx }
func (t *sqliteTx) Commit() error    { return t.tx.Commit() }
func (t *sqliteTx) Rollback() error  { return t.tx.Rollback() }

func (t *sqliteTx) Close() error { return nil }
func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("storage: nested transactions not supported")
}

// --- ChunkRow operations, keyed by q so Store and Tx share one code path ---

func upsertChunkWithQuerier(ctx context.Context, q querier, c *ChunkRow) error {
	tagsJSON, err := json.Marshal(c.PampaTags)
	if err != nil {
		return fmt.Errorf("storage: marshal pampa_tags: %w", err)
	}
	var embeddingBlob []byte
	if len(c.Embedding) > 0 {
		embeddingBlob = SerializeVector(c.Embedding)
	}

	query := `
		INSERT INTO code_chunks (
			id, file_path, symbol, sha, lang, chunk_type, embedding,
			embedding_provider, embedding_dimensions, pampa_tags, pampa_intent,
			pampa_description, doc_comments, variables_used, context_info,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_path = excluded.file_path,
			symbol = excluded.symbol,
			sha = excluded.sha,
			lang = excluded.lang,
			chunk_type = excluded.chunk_type,
			embedding = excluded.embedding,
			embedding_provider = excluded.embedding_provider,
			embedding_dimensions = excluded.embedding_dimensions,
			pampa_tags = excluded.pampa_tags,
			pampa_intent = excluded.pampa_intent,
			pampa_description = excluded.pampa_description,
			doc_comments = excluded.doc_comments,
			variables_used = excluded.variables_used,
			context_info = excluded.context_info,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	_, err = q.ExecContext(ctx, query,
		c.ID, c.FilePath, c.Symbol, c.SHA, c.Lang, c.ChunkType, embeddingBlob,
		c.EmbeddingProvider, c.EmbeddingDimensions, string(tagsJSON), c.PampaIntent,
		c.PampaDescription, c.DocComments, c.VariablesUsedJSON, c.ContextInfoJSON,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("storage: upsert chunk %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteStore) UpsertChunk(ctx context.Context, c *ChunkRow) error {
	return upsertChunkWithQuerier(ctx, s.querier(), c)
}
func (t *sqliteTx) UpsertChunk(ctx context.Context, c *ChunkRow) error {
	return upsertChunkWithQuerier(ctx, t.querier(), c)
}

func scanChunkRow(row interface {
	Scan(dest ...interface{}) error
}) (*ChunkRow, error) {
	var c ChunkRow
	var embeddingBlob []byte
	var tagsJSON string
	err := row.Scan(
		&c.ID, &c.FilePath, &c.Symbol, &c.SHA, &c.Lang, &c.ChunkType, &embeddingBlob,
		&c.EmbeddingProvider, &c.EmbeddingDimensions, &tagsJSON, &c.PampaIntent,
		&c.PampaDescription, &c.DocComments, &c.VariablesUsedJSON, &c.ContextInfoJSON,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(embeddingBlob) > 0 {
		c.Embedding = DeserializeVector(embeddingBlob)
	}
	if tagsJSON != "" {
		_ = json.Unmarshal([]byte(tagsJSON), &c.PampaTags)
	}
	return &c, nil
}

const chunkColumns = `id, file_path, symbol, sha, lang, chunk_type, embedding,
	embedding_provider, embedding_dimensions, pampa_tags, pampa_intent,
	pampa_description, doc_comments, variables_used, context_info,
	created_at, updated_at`

func getChunkWithQuerier(ctx context.Context, q querier, chunkID string) (*ChunkRow, error) {
	row := q.QueryRowContext(ctx, "SELECT "+chunkColumns+" FROM code_chunks WHERE id = ?", chunkID)
	c, err := scanChunkRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: %w: chunk_id=%s", types.ErrNotFound, chunkID)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) GetChunk(ctx context.Context, chunkID string) (*ChunkRow, error) {
	return getChunkWithQuerier(ctx, s.querier(), chunkID)
}
func (t *sqliteTx) GetChunk(ctx context.Context, chunkID string) (*ChunkRow, error) {
	return getChunkWithQuerier(ctx, t.querier(), chunkID)
}

// getChunkByShaWithQuerier resolves the intention cache's target_sha (§4.12
// phase 1) back to a full row. SHA is content-addressed but not unique
// across renames/moves, so ties break on the most recently updated row.
func getChunkByShaWithQuerier(ctx context.Context, q querier, sha string) (*ChunkRow, error) {
	row := q.QueryRowContext(ctx, "SELECT "+chunkColumns+" FROM code_chunks WHERE sha = ? ORDER BY updated_at DESC LIMIT 1", sha)
	c, err := scanChunkRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: %w: sha=%s", types.ErrNotFound, sha)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) GetChunkBySha(ctx context.Context, sha string) (*ChunkRow, error) {
	return getChunkByShaWithQuerier(ctx, s.querier(), sha)
}
func (t *sqliteTx) GetChunkBySha(ctx context.Context, sha string) (*ChunkRow, error) {
	return getChunkByShaWithQuerier(ctx, t.querier(), sha)
}

func deleteChunkWithQuerier(ctx context.Context, q querier, chunkID string) error {
	_, err := q.ExecContext(ctx, "DELETE FROM code_chunks WHERE id = ?", chunkID)
	return err
}

func (s *SQLiteStore) DeleteChunk(ctx context.Context, chunkID string) error {
	return deleteChunkWithQuerier(ctx, s.querier(), chunkID)
}
func (t *sqliteTx) DeleteChunk(ctx context.Context, chunkID string) error {
	return deleteChunkWithQuerier(ctx, t.querier(), chunkID)
}

func deleteChunksByFileWithQuerier(ctx context.Context, q querier, filePath string) error {
	_, err := q.ExecContext(ctx, "DELETE FROM code_chunks WHERE file_path = ?", filePath)
	return err
}

func (s *SQLiteStore) DeleteChunksByFile(ctx context.Context, filePath string) error {
	return deleteChunksByFileWithQuerier(ctx, s.querier(), filePath)
}
func (t *sqliteTx) DeleteChunksByFile(ctx context.Context, filePath string) error {
	return deleteChunksByFileWithQuerier(ctx, t.querier(), filePath)
}

// DeleteChunksNotIn implements the stale-row cleanup step from §4.10 step 6:
// delete rows for filePath whose id is not in keepIDs.
func deleteChunksNotInWithQuerier(ctx context.Context, q querier, filePath string, keepIDs []string) (int, error) {
	if len(keepIDs) == 0 {
		res, err := q.ExecContext(ctx, "DELETE FROM code_chunks WHERE file_path = ?", filePath)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	}
	placeholders := make([]string, len(keepIDs))
	args := make([]interface{}, 0, len(keepIDs)+1)
	args = append(args, filePath)
	for i, id := range keepIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	query := "DELETE FROM code_chunks WHERE file_path = ? AND id NOT IN (" + strings.Join(placeholders, ",") + ")"
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLiteStore) DeleteChunksNotIn(ctx context.Context, filePath string, keepIDs []string) (int, error) {
	return deleteChunksNotInWithQuerier(ctx, s.querier(), filePath, keepIDs)
}
func (t *sqliteTx) DeleteChunksNotIn(ctx context.Context, filePath string, keepIDs []string) (int, error) {
	return deleteChunksNotInWithQuerier(ctx, t.querier(), filePath, keepIDs)
}

func listChunksByFileWithQuerier(ctx context.Context, q querier, filePath string) ([]*ChunkRow, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+chunkColumns+" FROM code_chunks WHERE file_path = ? ORDER BY symbol", filePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*ChunkRow
	for rows.Next() {
		c, err := scanChunkRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListChunksByFile(ctx context.Context, filePath string) ([]*ChunkRow, error) {
	return listChunksByFileWithQuerier(ctx, s.querier(), filePath)
}
func (t *sqliteTx) ListChunksByFile(ctx context.Context, filePath string) ([]*ChunkRow, error) {
	return listChunksByFileWithQuerier(ctx, t.querier(), filePath)
}

func listAllFilePathsWithQuerier(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT DISTINCT file_path FROM code_chunks ORDER BY file_path")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListAllFilePaths(ctx context.Context) ([]string, error) {
	return listAllFilePathsWithQuerier(ctx, s.querier())
}
func (t *sqliteTx) ListAllFilePaths(ctx context.Context) ([]string, error) {
	return listAllFilePathsWithQuerier(ctx, t.querier())
}

func (s *SQLiteStore) CountChunks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM code_chunks").Scan(&n)
	return n, err
}
func (t *sqliteTx) CountChunks(ctx context.Context) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM code_chunks").Scan(&n)
	return n, err
}

// --- Search candidate fetches (ranking/fusion happens in the searcher) ---

func (s *SQLiteStore) VectorCandidates(ctx context.Context, provider string, dimensions int, filters *SearchFilters) ([]VectorCandidate, error) {
	return vectorCandidates(ctx, s.db, provider, dimensions, filters)
}
func (t *sqliteTx) VectorCandidates(ctx context.Context, provider string, dimensions int, filters *SearchFilters) ([]VectorCandidate, error) {
	return nil, errors.New("storage: VectorCandidates not supported inside a transaction")
}

func (s *SQLiteStore) LexicalCandidates(ctx context.Context, filters *SearchFilters) ([]LexicalCandidate, error) {
	return lexicalCandidates(ctx, s.db, filters)
}
func (t *sqliteTx) LexicalCandidates(ctx context.Context, filters *SearchFilters) ([]LexicalCandidate, error) {
	return nil, errors.New("storage: LexicalCandidates not supported inside a transaction")
}

func (s *SQLiteStore) DistinctProviderDims(ctx context.Context) ([]ProviderDims, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT embedding_provider, embedding_dimensions FROM code_chunks
		WHERE embedding_provider IS NOT NULL AND embedding_provider != ''
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ProviderDims
	for rows.Next() {
		var pd ProviderDims
		if err := rows.Scan(&pd.Provider, &pd.Dimensions); err != nil {
			return nil, err
		}
		out = append(out, pd)
	}
	return out, rows.Err()
}
func (t *sqliteTx) DistinctProviderDims(ctx context.Context) ([]ProviderDims, error) {
	return nil, errors.New("storage: DistinctProviderDims not supported inside a transaction")
}

// --- Intention cache ---

// upsertIntentionWithQuerier records a query -> chunk shortcut. A re-record
// of an already-cached query overwrites target_sha/confidence/last_used in
// place rather than inserting a second row; usage_count is left untouched
// here since it's bumped separately by TouchIntention on a cache hit.
func upsertIntentionWithQuerier(ctx context.Context, q querier, e *IntentionRow) error {
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.LastUsed.IsZero() {
		e.LastUsed = now
	}
	query := `
		INSERT INTO intention_cache (query_normalized, original_query, target_sha, confidence, usage_count, created_at, last_used)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(query_normalized) DO UPDATE SET
			original_query = excluded.original_query,
			target_sha = excluded.target_sha,
			confidence = excluded.confidence,
			last_used = excluded.last_used
		RETURNING id
	`
	return q.QueryRowContext(ctx, query,
		e.QueryNormalized, e.OriginalQuery, e.TargetSha, e.Confidence, e.UsageCount, e.CreatedAt, e.LastUsed,
	).Scan(&e.ID)
}

func (s *SQLiteStore) UpsertIntention(ctx context.Context, e *IntentionRow) error {
	return upsertIntentionWithQuerier(ctx, s.querier(), e)
}
func (t *sqliteTx) UpsertIntention(ctx context.Context, e *IntentionRow) error {
	return upsertIntentionWithQuerier(ctx, t.querier(), e)
}

func findIntentionWithQuerier(ctx context.Context, q querier, normalizedQuery string) (*IntentionRow, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, query_normalized, original_query, target_sha, confidence, usage_count, created_at, last_used
		FROM intention_cache WHERE query_normalized = ?
		ORDER BY usage_count DESC LIMIT 1
	`, normalizedQuery)
	var e IntentionRow
	err := row.Scan(&e.ID, &e.QueryNormalized, &e.OriginalQuery, &e.TargetSha, &e.Confidence, &e.UsageCount, &e.CreatedAt, &e.LastUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: %w: query=%s", types.ErrNotFound, normalizedQuery)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) FindIntention(ctx context.Context, normalizedQuery string) (*IntentionRow, error) {
	return findIntentionWithQuerier(ctx, s.querier(), normalizedQuery)
}
func (t *sqliteTx) FindIntention(ctx context.Context, normalizedQuery string) (*IntentionRow, error) {
	return findIntentionWithQuerier(ctx, t.querier(), normalizedQuery)
}

func touchIntentionWithQuerier(ctx context.Context, q querier, id int64, now time.Time) error {
	_, err := q.ExecContext(ctx, "UPDATE intention_cache SET usage_count = usage_count + 1, last_used = ? WHERE id = ?", now, id)
	return err
}

func (s *SQLiteStore) TouchIntention(ctx context.Context, id int64, now time.Time) error {
	return touchIntentionWithQuerier(ctx, s.querier(), id, now)
}
func (t *sqliteTx) TouchIntention(ctx context.Context, id int64, now time.Time) error {
	return touchIntentionWithQuerier(ctx, t.querier(), id, now)
}

// --- Query patterns ---

func recordQueryPatternWithQuerier(ctx context.Context, q querier, pattern string) error {
	now := time.Now()
	_, err := q.ExecContext(ctx, `
		INSERT INTO query_patterns (pattern, frequency, created_at, updated_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(pattern) DO UPDATE SET
			frequency = frequency + 1,
			updated_at = excluded.updated_at
	`, pattern, now, now)
	return err
}

func (s *SQLiteStore) RecordQueryPattern(ctx context.Context, pattern string) error {
	return recordQueryPatternWithQuerier(ctx, s.querier(), pattern)
}
func (t *sqliteTx) RecordQueryPattern(ctx context.Context, pattern string) error {
	return recordQueryPatternWithQuerier(ctx, t.querier(), pattern)
}

func topQueryPatternsWithQuerier(ctx context.Context, q querier, limit int) ([]QueryPatternRow, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, pattern, frequency, created_at, updated_at FROM query_patterns ORDER BY frequency DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []QueryPatternRow
	for rows.Next() {
		var p QueryPatternRow
		if err := rows.Scan(&p.ID, &p.Pattern, &p.Frequency, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) TopQueryPatterns(ctx context.Context, limit int) ([]QueryPatternRow, error) {
	return topQueryPatternsWithQuerier(ctx, s.querier(), limit)
}
func (t *sqliteTx) TopQueryPatterns(ctx context.Context, limit int) ([]QueryPatternRow, error) {
	return topQueryPatternsWithQuerier(ctx, t.querier(), limit)
}

// --- Stats ---

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM code_chunks").Scan(&st.TotalChunks); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT file_path) FROM code_chunks").Scan(&st.DistinctFiles); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT embedding_provider) FROM code_chunks WHERE embedding_provider IS NOT NULL").Scan(&st.DistinctProviders); err != nil {
		return st, err
	}
	var pageCount, pageSize int
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		st.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}
	return st, nil
}
func (t *sqliteTx) Stats(ctx context.Context) (Stats, error) {
	return Stats{}, errors.New("storage: Stats not supported inside a transaction")
}
