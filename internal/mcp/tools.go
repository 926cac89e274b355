package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lemon07r/pampax"
	"github.com/lemon07r/pampax/internal/searcher"
)

func (s *Server) handleIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := pampax.IndexOptions{Provider: req.GetString("provider", "")}
	if req.GetBool("encrypt", false) {
		encrypt := true
		opts.Encrypt = &encrypt
	}

	stats, err := s.core.Index(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("index failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(map[string]any{
		"processed_chunks": stats.ProcessedChunks,
		"total_chunks":     stats.TotalChunks,
		"provider":         stats.Provider,
		"errors":           stats.Errors,
		"duration_ms":      stats.Duration.Milliseconds(),
	})), nil
}

func (s *Server) handleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := pampax.IndexOptions{
		Provider:     req.GetString("provider", ""),
		ChangedFiles: splitCSV(req.GetString("changed_files", "")),
		DeletedFiles: splitCSV(req.GetString("deleted_files", "")),
	}

	stats, err := s.core.Update(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("update failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(map[string]any{
		"processed_chunks": stats.ProcessedChunks,
		"total_chunks":     stats.TotalChunks,
		"provider":         stats.Provider,
		"errors":           stats.Errors,
		"duration_ms":      stats.Duration.Milliseconds(),
	})), nil
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	scope := searcher.Scope{}
	if packName := req.GetString("context_pack", ""); packName != "" {
		_, packScope, err := s.core.UseContextPack(packName)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("context pack: %v", err)), nil
		}
		scope = packScope
	}
	if v := splitCSV(req.GetString("path_glob", "")); len(v) > 0 {
		scope.PathGlob = v
	}
	if v := splitCSV(req.GetString("tags", "")); len(v) > 0 {
		scope.Tags = v
	}
	if v := splitCSV(req.GetString("lang", "")); len(v) > 0 {
		scope.Lang = v
	}
	if reranker := req.GetString("reranker", ""); reranker != "" {
		scope.Reranker = reranker
	}
	// A context pack's own hybrid/symbol_boost preference wins unless the
	// caller didn't select a pack at all, in which case the tool's plain
	// boolean fields (default true) apply directly.
	if scope.Hybrid == nil {
		hybrid := req.GetBool("hybrid", true)
		scope.Hybrid = &hybrid
	}
	if scope.SymbolBoost == nil {
		symbolBoost := req.GetBool("symbol_boost", true)
		scope.SymbolBoost = &symbolBoost
	}

	limit := req.GetInt("limit", 10)

	resp, err := s.core.Search(ctx, searcher.Request{
		Query:    query,
		Limit:    limit,
		Provider: req.GetString("provider", ""),
		Scope:    scope,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	results := make([]map[string]any, 0, len(resp.Results))
	for _, r := range resp.Results {
		entry := map[string]any{
			"chunk_id":    r.ChunkID,
			"rank":        r.Rank,
			"score":       r.Score,
			"search_type": string(r.SearchType),
			"content":     r.Content,
		}
		if r.File != nil {
			entry["file"] = map[string]any{
				"path":       r.File.Path,
				"language":   r.File.Language,
				"start_line": r.File.StartLine,
				"end_line":   r.File.EndLine,
			}
		}
		if r.Symbol != nil {
			entry["symbol"] = r.Symbol.Name
		}
		results = append(results, entry)
	}

	return mcp.NewToolResultText(formatJSON(map[string]any{
		"results":       results,
		"duration_ms":   resp.Duration.Milliseconds(),
		"vector_count":  resp.VectorCount,
		"bm25_count":    resp.BM25Count,
		"used_hybrid":   resp.UsedHybrid,
		"reranker_mode": resp.RerankerMode,
	})), nil
}

func (s *Server) handleGetChunk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sha := req.GetString("sha", "")
	if sha == "" {
		return mcp.NewToolResultError("sha is required"), nil
	}
	body, err := s.core.GetChunk(sha)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get chunk failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) handleGetOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 0)
	entries := s.core.GetOverview(limit)

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"chunk_id":  e.ChunkID,
			"file":      e.Entry.FilePath,
			"symbol":    e.Entry.Symbol,
			"lang":      e.Entry.Language,
			"signature": e.Entry.Signature,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]any{"entries": out})), nil
}

func (s *Server) handleGetStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.core.GetStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get stats failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(map[string]any{
		"total_chunks":       stats.TotalChunks,
		"distinct_files":     stats.DistinctFiles,
		"distinct_providers": stats.DistinctProviders,
		"database_size_mb":   stats.DatabaseSizeMB,
	})), nil
}

func (s *Server) handleGetQueryAnalytics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	patterns, err := s.core.GetQueryAnalytics(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get query analytics failed: %v", err)), nil
	}
	out := make([]map[string]any, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, map[string]any{"pattern": p.Pattern, "frequency": p.Frequency})
	}
	return mcp.NewToolResultText(formatJSON(map[string]any{"patterns": out})), nil
}

func (s *Server) handleListContextPacks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	packs, err := s.core.ListContextPacks()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list context packs failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(map[string]any{"packs": packs})), nil
}

func formatJSON(data map[string]any) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
