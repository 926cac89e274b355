package embedder

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfile_Limits_CharFallback(t *testing.T) {
	p := CohereProfile()
	limits := p.Limits()
	assert.Equal(t, p.MinChunkChars/4, limits.Min)
	assert.Equal(t, p.MaxChunkChars/4, limits.Max)
	assert.Equal(t, p.OptimalTokens, limits.Optimal)
}

func TestApplyEnvOverrides_MaxTokensClampsChunkCeiling(t *testing.T) {
	orig := os.Getenv("PAMPAX_MAX_TOKENS")
	defer func() {
		if orig != "" {
			os.Setenv("PAMPAX_MAX_TOKENS", orig)
		} else {
			os.Unsetenv("PAMPAX_MAX_TOKENS")
		}
	}()

	os.Setenv("PAMPAX_MAX_TOKENS", "100")
	p := ApplyEnvOverrides(OpenAIProfile())
	assert.Equal(t, 100, p.MaxTokens)
	assert.Equal(t, 100, p.MaxChunkTokens)
	assert.Equal(t, 400, p.MaxChunkChars)
}

func TestApplyEnvOverrides_IgnoresInvalidValues(t *testing.T) {
	orig := os.Getenv("PAMPAX_MAX_TOKENS")
	os.Setenv("PAMPAX_MAX_TOKENS", "not-a-number")
	defer func() {
		if orig != "" {
			os.Setenv("PAMPAX_MAX_TOKENS", orig)
		} else {
			os.Unsetenv("PAMPAX_MAX_TOKENS")
		}
	}()

	base := OpenAIProfile()
	p := ApplyEnvOverrides(base)
	assert.Equal(t, base.MaxTokens, p.MaxTokens)
}
