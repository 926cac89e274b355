package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

var writeAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(false),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func indexTool() mcp.Tool {
	return mcp.NewTool("pampax_index",
		mcp.WithDescription("Run a full indexing pass over the repository: parse, chunk, embed, and persist every supported source file."),
		mcp.WithToolAnnotation(writeAnnotation),
		mcp.WithString("provider",
			mcp.Description("Embedding provider override (jina, openai, cohere, ollama, local). Defaults to PAMPAX_EMBEDDING_PROVIDER auto-detection."),
		),
		mcp.WithBoolean("encrypt",
			mcp.Description("Force chunk-body encryption for this run. Requires PAMPAX_ENCRYPTION_KEY to already be set."),
		),
	)
}

func updateTool() mcp.Tool {
	return mcp.NewTool("pampax_update",
		mcp.WithDescription("Run an incremental indexing pass restricted to the given changed/deleted file paths."),
		mcp.WithToolAnnotation(writeAnnotation),
		mcp.WithString("changed_files",
			mcp.Description("Comma-separated repo-relative paths that changed since the last index/update."),
		),
		mcp.WithString("deleted_files",
			mcp.Description("Comma-separated repo-relative paths removed since the last index/update."),
		),
		mcp.WithString("provider",
			mcp.Description("Embedding provider override, as in pampax_index."),
		),
	)
}

func searchTool() mcp.Tool {
	return mcp.NewTool("pampax_search",
		mcp.WithDescription("Hybrid semantic + lexical search over the indexed codebase: intent cache, vector similarity, symbol boosting, BM25 fusion, and optional reranking."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language or keyword query."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default 10)."),
		),
		mcp.WithString("provider",
			mcp.Description("Embedding provider override for query embedding."),
		),
		mcp.WithString("context_pack",
			mcp.Description("Name of a saved context pack (.pampa/contextpacks/<name>.json) to apply as the base scope."),
		),
		mcp.WithString("path_glob",
			mcp.Description("Comma-separated glob patterns; a file path must match at least one."),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated pampa_tags; a chunk must carry at least one."),
		),
		mcp.WithString("lang",
			mcp.Description("Comma-separated languages to restrict the search to."),
		),
		mcp.WithBoolean("hybrid",
			mcp.Description("Enable BM25/RRF lexical fusion (default true)."),
		),
		mcp.WithBoolean("symbol_boost",
			mcp.Description("Enable symbol-name boosting (default true)."),
		),
		mcp.WithString("reranker",
			mcp.Description("Reranker mode override: off, transformers, or api."),
		),
	)
}

func getChunkTool() mcp.Tool {
	return mcp.NewTool("pampax_get_chunk",
		mcp.WithDescription("Fetch a chunk's decompressed source body by content hash."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("sha",
			mcp.Required(),
			mcp.Description("Content-addressed hash returned as a search result's chunk ID suffix."),
		),
	)
}

func getOverviewTool() mcp.Tool {
	return mcp.NewTool("pampax_get_overview",
		mcp.WithDescription("List codemap entries (file, symbol, signature) ordered by file path then symbol."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries to return (0 or omitted means all)."),
		),
	)
}

func getStatsTool() mcp.Tool {
	return mcp.NewTool("pampax_get_stats",
		mcp.WithDescription("Report the metadata store's current chunk/file/provider totals."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func getQueryAnalyticsTool() mcp.Tool {
	return mcp.NewTool("pampax_get_query_analytics",
		mcp.WithDescription("Report the most frequently recorded query shapes (entity names folded to placeholders)."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of patterns to return (default 20)."),
		),
	)
}

func listContextPacksTool() mcp.Tool {
	return mcp.NewTool("pampax_list_context_packs",
		mcp.WithDescription("List saved context packs (reusable search scope presets) available under .pampa/contextpacks."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}
