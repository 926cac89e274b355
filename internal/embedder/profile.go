package embedder

import (
	"os"
	"strconv"

	"github.com/lemon07r/pampax/internal/tokenizer"
)

// Profile bundles the size and dimension constants a provider and the
// chunker/tokenizer need to agree on, per §4.8's "model profiles" rule.
// maxTokens/optimalTokens/minChunkTokens/maxChunkTokens/overlapTokens are the
// token-based limits; the Chars fields are the fallback used when the
// provider has no real tokenizer and Analyzer falls back to char-estimate.
type Profile struct {
	Name string

	MaxTokens      int
	OptimalTokens  int
	MinChunkTokens int
	MaxChunkTokens int
	OverlapTokens  int

	MinChunkChars int
	MaxChunkChars int
	OverlapChars  int

	Dimensions    int
	UseTokens     bool
	TokenizerType string
}

// Limits projects a Profile down to the tokenizer.Limits the chunker
// classifies nodes against, using the token or char fields depending on
// whether the provider has a real tokenizer wired in.
func (p Profile) Limits() tokenizer.Limits {
	if p.UseTokens {
		return tokenizer.Limits{Min: p.MinChunkTokens, Optimal: p.OptimalTokens, Max: p.MaxChunkTokens}
	}
	return tokenizer.Limits{Min: p.MinChunkChars / 4, Optimal: p.OptimalTokens, Max: p.MaxChunkChars / 4}
}

// JinaProfile, OpenAIProfile, CohereProfile, OllamaProfile, and
// TransformersProfile are the per-provider defaults; ApplyEnvOverrides lets
// PAMPAX_MAX_TOKENS/PAMPAX_DIMENSIONS replace the token ceiling and
// dimension count on any of them.
func JinaProfile() Profile {
	return Profile{
		Name: ProviderJina, MaxTokens: 8192, OptimalTokens: 1500, MinChunkTokens: 20,
		MaxChunkTokens: 6000, OverlapTokens: 100, MinChunkChars: 80, MaxChunkChars: 24000,
		OverlapChars: 400, Dimensions: JinaDimension, UseTokens: false, TokenizerType: "char-estimate",
	}
}

func OpenAIProfile() Profile {
	return Profile{
		Name: ProviderOpenAI, MaxTokens: 8191, OptimalTokens: 1500, MinChunkTokens: 20,
		MaxChunkTokens: 6000, OverlapTokens: 100, MinChunkChars: 80, MaxChunkChars: 24000,
		OverlapChars: 400, Dimensions: OpenAIDimension, UseTokens: false, TokenizerType: "char-estimate",
	}
}

func CohereProfile() Profile {
	return Profile{
		Name: ProviderCohere, MaxTokens: 512, OptimalTokens: 350, MinChunkTokens: 10,
		MaxChunkTokens: 480, OverlapTokens: 40, MinChunkChars: 40, MaxChunkChars: 1900,
		OverlapChars: 160, Dimensions: CohereDimension, UseTokens: false, TokenizerType: "char-estimate",
	}
}

func OllamaProfile() Profile {
	return Profile{
		Name: ProviderOllama, MaxTokens: 2048, OptimalTokens: 800, MinChunkTokens: 20,
		MaxChunkTokens: 1800, OverlapTokens: 80, MinChunkChars: 80, MaxChunkChars: 7200,
		OverlapChars: 320, Dimensions: OllamaDimension, UseTokens: false, TokenizerType: "char-estimate",
	}
}

func TransformersProfile() Profile {
	return Profile{
		Name: ProviderLocal, MaxTokens: 512, OptimalTokens: 350, MinChunkTokens: 10,
		MaxChunkTokens: 480, OverlapTokens: 40, MinChunkChars: 40, MaxChunkChars: 1900,
		OverlapChars: 160, Dimensions: LocalDimension, UseTokens: false, TokenizerType: "char-estimate",
	}
}

// ApplyEnvOverrides applies PAMPAX_MAX_TOKENS/PAMPAX_DIMENSIONS on top of a
// profile's defaults, if set and parseable. Both the max-tokens-derived and
// max-chars-derived ceilings move together so the two stay proportional.
func ApplyEnvOverrides(p Profile) Profile {
	if v := os.Getenv("PAMPAX_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.MaxTokens = n
			if p.MaxChunkTokens > n {
				p.MaxChunkTokens = n
			}
			p.MaxChunkChars = n * 4
		}
	}
	if v := os.Getenv("PAMPAX_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Dimensions = n
		}
	}
	return p
}
