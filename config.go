package pampax

import (
	"os"
	"strconv"
	"strings"

	"github.com/lemon07r/pampax/internal/chunkstore"
	"github.com/lemon07r/pampax/internal/ratelimit"
	"github.com/lemon07r/pampax/internal/reranker"
)

// Environment variable names recognized at Core construction time.
const (
	EnvEncryptionKey    = "PAMPAX_ENCRYPTION_KEY"
	EnvRateLimit        = "PAMPAX_RATE_LIMIT"
	EnvRerankerDefault  = "PAMPAX_RERANKER_DEFAULT"
	EnvRerankAPIURL     = "PAMPAX_RERANK_API_URL"
	EnvRerankAPIKey     = "PAMPAX_RERANK_API_KEY"
	EnvRerankModel      = "PAMPAX_RERANK_MODEL"
	EnvRerankerMax      = "PAMPAX_RERANKER_MAX"
	EnvRerankerMaxToken = "PAMPAX_RERANKER_MAX_TOKENS"
)

// Config resolves the environment-driven settings a Core needs beyond the
// embedder provider selection internal/embedder already owns via
// NewFromEnv. A field whose environment variable is unset is zero-valued
// (meaning "use the package default"), except Reranker.MaxCandidates and
// Reranker.MaxTokens, which default to 200 and 512.
type Config struct {
	EncryptionKey []byte // decoded PAMPAX_ENCRYPTION_KEY, nil if unset
	RateLimitRPM  int    // PAMPAX_RATE_LIMIT, 0 means unlimited
	Reranker      reranker.Config
	RerankerMode  string // PAMPAX_RERANKER_DEFAULT, "" means off
}

// LoadConfig reads Config from the process environment, following the same
// explicit-override style as internal/embedder/factory.go's NewFromEnv: an
// unset or malformed variable falls back to the package default rather than
// failing construction, except for the encryption key, whose malformed
// value is surfaced immediately since a silently-ignored bad key would make
// every future read of an already-encrypted chunk fail mysteriously later.
func LoadConfig() (Config, error) {
	cfg := Config{
		RerankerMode: strings.ToLower(strings.TrimSpace(os.Getenv(EnvRerankerDefault))),
		Reranker: reranker.Config{
			APIURL:        os.Getenv(EnvRerankAPIURL),
			APIKey:        os.Getenv(EnvRerankAPIKey),
			Model:         os.Getenv(EnvRerankModel),
			MaxCandidates: envInt(EnvRerankerMax, 200),
			MaxTokens:     envInt(EnvRerankerMaxToken, 512),
		},
	}

	if raw := os.Getenv(EnvEncryptionKey); raw != "" {
		key, err := chunkstore.DecodeKey(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.EncryptionKey = key
	}

	cfg.RateLimitRPM = envInt(EnvRateLimit, 0)
	if cfg.RateLimitRPM > 0 {
		cfg.Reranker.Limiter = ratelimit.New(cfg.RateLimitRPM)
	}

	return cfg, nil
}

// encryptionMode returns the chunkstore mode implied by whether a key was
// resolved: auto once a key is present, off otherwise.
func (c Config) encryptionMode() chunkstore.EncryptionMode {
	if len(c.EncryptionKey) > 0 {
		return chunkstore.EncryptionAuto
	}
	return chunkstore.EncryptionOff
}

func envInt(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
