package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Config holds embedder configuration for explicit construction via New.
type Config struct {
	Provider  string
	APIKey    string
	CacheSize int
}

// EnvProvider is the explicit-selection override.
const EnvProvider = "PAMPAX_EMBEDDING_PROVIDER"

// NewFromEnv builds an embedder from PAMPAX_*/provider API key environment
// variables.
//
// Selection order (§4.8):
//  1. PAMPAX_EMBEDDING_PROVIDER, if set, picks the provider explicitly
//     (jina, openai, cohere, ollama, or local).
//  2. Otherwise "auto": OpenAI if OPENAI_API_KEY is set, else Cohere if
//     COHERE_API_KEY is set, else the local in-process stub.
//
// Jina and Ollama are always available by explicit name but are not part of
// the auto-detect chain; Jina predates OpenAI/Cohere as this project's
// original provider, and Ollama needs a reachable local daemon the factory
// can't probe for safely.
func NewFromEnv() (Embedder, error) {
	provider := os.Getenv(EnvProvider)
	cache := NewCache(10000)

	if provider != "" {
		return newProvider(strings.ToLower(provider), "", cache)
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return NewOpenAIProvider("", cache)
	}
	if os.Getenv(EnvCohereAPIKey) != "" {
		return NewCohereProvider("", cache)
	}

	return NewLocalProvider(cache)
}

// New creates an embedder from an explicit Config, bypassing environment
// auto-detection except for API keys left blank in cfg.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}
	return newProvider(strings.ToLower(cfg.Provider), cfg.APIKey, cache)
}

func newProvider(provider, apiKey string, cache *Cache) (Embedder, error) {
	switch provider {
	case ProviderJina:
		return NewJinaProvider(apiKey, cache)
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, cache)
	case ProviderCohere:
		return NewCohereProvider(apiKey, cache)
	case ProviderOllama:
		return NewOllamaProvider(cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, provider)
	}
}

// DetectProvider returns the provider identity NewFromEnv would select,
// without constructing it, for status output and log lines.
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvCohereAPIKey) != "" {
		return ProviderCohere
	}
	return ProviderLocal
}

// ProfileFor returns the model profile for a provider identity, with
// PAMPAX_MAX_TOKENS/PAMPAX_DIMENSIONS overrides already applied.
func ProfileFor(provider string) Profile {
	switch provider {
	case ProviderJina:
		return ApplyEnvOverrides(JinaProfile())
	case ProviderOpenAI:
		return ApplyEnvOverrides(OpenAIProfile())
	case ProviderCohere:
		return ApplyEnvOverrides(CohereProfile())
	case ProviderOllama:
		return ApplyEnvOverrides(OllamaProfile())
	default:
		return ApplyEnvOverrides(TransformersProfile())
	}
}
