package chunkstore

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// decodeKey accepts a base64 or hex encoded 32-byte key. Grounded on
// itsddvn-goclaw's internal/crypto.DeriveKey, which accepts the same two
// encodings (plus raw bytes, not offered here since PAMPAX_ENCRYPTION_KEY is
// always textual).
func decodeKey(input string) ([]byte, error) {
	if b, err := hex.DecodeString(input); err == nil && len(b) == 32 {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(input); err == nil && len(b) == 32 {
		return b, nil
	}
	return nil, fmt.Errorf("chunkstore: encryption key must decode to 32 bytes (hex or base64)")
}
