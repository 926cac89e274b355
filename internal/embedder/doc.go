// Package embedder generates vector embeddings for code chunks using
// pluggable providers: Jina AI, OpenAI (or any OpenAI-compatible endpoint),
// Cohere, a local Ollama daemon, and an in-process local stub.
//
// # Basic Usage
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "func ParseFile(path string) error { ... }",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// # Batch Processing
//
// For efficiency, use batch processing:
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: []string{chunk1.FullContent(), chunk2.FullContent()},
//	})
//
// # Provider Selection
//
// PAMPAX_EMBEDDING_PROVIDER picks a provider explicitly (jina, openai,
// cohere, ollama, local). Left unset, NewFromEnv auto-detects: OpenAI if
// OPENAI_API_KEY is set, else Cohere if COHERE_API_KEY is set, else the
// local stub. Provider-specific configuration:
//
//	JINA_API_KEY
//	OPENAI_API_KEY, OPENAI_BASE_URL, PAMPAX_OPENAI_EMBEDDING_MODEL
//	COHERE_API_KEY, PAMPAX_COHERE_MODEL
//	PAMPAX_OLLAMA_MODEL, PAMPAX_OLLAMA_BASE_URL
//	PAMPAX_TRANSFORMERS_MODEL
//	PAMPAX_MAX_TOKENS, PAMPAX_DIMENSIONS (override any provider's profile)
//	PAMPAX_EMBEDDING_RPM (rate limit; unset or 0 means unlimited)
//
// # Model Profiles
//
// Each provider has a Profile bundling its token/char ceilings and
// dimension count (see ProfileFor); Profile.Limits projects that into the
// tokenizer.Limits the chunker classifies nodes against, keeping the
// chunk-size logic in sync with what the provider can actually embed.
//
// # Caching
//
// Cache is an LRU keyed by content hash, deep-copied on Get so mutating a
// returned Embedding never corrupts the cached entry.
//
// # Rate limiting and truncation
//
// Every network-backed provider routes its call through an
// internal/ratelimit.Limiter (unlimited unless PAMPAX_EMBEDDING_RPM is set)
// and truncates any text over its profile's MaxChunkChars before sending
// it, logging a warning the first time a given hash is truncated.
package embedder
