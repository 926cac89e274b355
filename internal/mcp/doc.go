// Package mcp exposes pampax.Core over the Model Context Protocol via
// github.com/mark3labs/mcp-go, so an MCP-speaking agent can index and query
// a repository the same way the cmd/pampax CLI does.
//
// This is deliberately a thin adapter: every handler in tools.go validates
// its arguments, builds the matching pampax call, and formats the result as
// JSON text. No ranking, chunking, or storage logic lives here; pampax.Core
// stays usable without ever knowing an MCP server exists.
//
// # Tools
//
// pampax_index, pampax_update — run a full or incremental indexing pass.
// pampax_search — the seven-phase hybrid retrieval pipeline, with an
// optional context_pack name applied as the base scope; explicit
// path_glob/tags/lang/reranker fields override it, while the hybrid and
// symbol_boost fields apply only where the pack sets no preference.
// pampax_get_chunk, pampax_get_overview, pampax_get_stats,
// pampax_get_query_analytics, pampax_list_context_packs — read-only
// introspection over the metadata store and codemap.
//
// watch() is intentionally not exposed as an MCP tool: it is a long-lived
// background operation with no natural request/response shape over stdio,
// and an agent that wants continuous reindexing is better served by running
// `pampax watch` as its own process alongside the MCP server.
package mcp
