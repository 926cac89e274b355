// Package types provides shared type definitions for the pampax semantic
// code memory.
//
// This package defines domain types used across the indexing and retrieval
// pipeline: chunks, symbols, codemap and manifest entries, and search
// results.
//
// # Core Types
//
// Symbol represents a language construct (function, method, class, etc.)
// extracted from a tree-sitter parse tree:
//
//	symbol := &types.Symbol{
//	    Name:      "ParseFile",
//	    Kind:      types.KindFunction,
//	    Language:  "go",
//	    Signature: "func ParseFile(path string) (*ParseResult, error)",
//	}
//
// Chunk represents a content-addressed, embeddable fragment of source code:
//
//	chunk := &types.Chunk{
//	    Symbol:    "ParseFile",
//	    ChunkType: types.ChunkFunction,
//	    Code:      functionBody,
//	}
//	chunk.ComputeSHA()
//
// # Domain-Driven Design (DDD) Pattern Detection
//
// Symbol types include flags for detecting DDD patterns based on naming
// conventions:
//
//	symbol.IsRepository  // "*Repository" / "*Repo" suffix
//	symbol.IsService     // "*Service" suffix
//	symbol.IsEntity       // "*Entity" suffix or a name containing Order, User, etc.
//	symbol.IsAggregateRoot // "*Aggregate" / "*AggregateRoot" suffix
//
// # Validation
//
// Domain types implement validation methods to ensure data integrity:
//
//	if err := chunk.Validate(); err != nil {
//	    return err
//	}
//
// # Search Results
//
// SearchResult combines chunk/symbol metadata with fused relevance scoring:
//
//	result := &types.SearchResult{
//	    ChunkID:    "pkg/x.go:Parse:ab12cd34",
//	    Rank:       1,
//	    Score:      0.92,
//	    SearchType: types.SearchTypeHybrid,
//	}
//
// Relevance scores are clamped to [0, 1]; the pre-clamp value survives as
// ScoreRaw when it exceeds 1.0.
package types
