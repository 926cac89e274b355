// Package storage implements the C3 Metadata DB: a single embedded
// relational store holding three tables (code_chunks, intention_cache,
// query_patterns) behind a dual-driver SQLite backend.
//
// # Build Tags
//
// CGO build (sqlite_vec tag): uses github.com/mattn/go-sqlite3.
//
//	CGO_ENABLED=1 go build -tags "sqlite_vec,fts5"
//
// Pure Go build (purego tag): uses modernc.org/sqlite, no C compiler needed.
//
//	CGO_ENABLED=0 go build -tags "purego"
//
// Vector similarity itself is always computed in Go (vector_ops.go); the
// build tags only select the SQL driver, not the scoring path.
//
// # Transactions
//
// Use BeginTx for atomic multi-row updates:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//	if err := tx.UpsertChunk(ctx, chunk); err != nil {
//	    return err
//	}
//	return tx.Commit()
//
// # Provider/dimension isolation
//
// Vector candidate fetches require an explicit (provider, dimensions) pair;
// chunks embedded under a different pair are invisible to that fetch. Call
// DistinctProviderDims to detect when the store holds embeddings under more
// than one pair, so the Indexer can warn rather than silently mixing spaces.
package storage
