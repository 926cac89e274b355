// Package chunkstore implements the C1 Chunk Store: content-addressed,
// gzip-compressed, optionally AES-256-GCM encrypted chunk body storage.
//
// The encryption shape follows itsddvn-goclaw's internal/crypto/aes.go
// (AES-256-GCM via crypto/aes + crypto/cipher.NewGCM, random 12-byte nonce),
// adapted from that package's string "aes-gcm:"-prefixed base64 layout to a
// fixed binary layout so ciphertext can be told apart from plaintext gzip
// by file extension alone.
package chunkstore

import (
	"bytes"
	"compress/gzip"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // content addressing
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lemon07r/pampax/pkg/types"
)

// EncryptionMode selects whether written chunks are encrypted.
type EncryptionMode string

const (
	EncryptionOn   EncryptionMode = "on"
	EncryptionOff  EncryptionMode = "off"
	EncryptionAuto EncryptionMode = "auto" // encrypt iff a key is configured
)

const (
	plainExt = ".gz"
	encExt   = ".gz.enc"

	magic          = "PMPX"
	cipherVersion  = byte(1)
	nonceSize      = 12
)

// Store is the C1 Chunk Store.
type Store struct {
	root string
	key  []byte // 32 bytes, or nil if no key configured
	mode EncryptionMode
	log  *slog.Logger
}

// New creates a Store rooted at dir (typically "<repo>/.pampa/chunks").
// key must be nil or exactly 32 bytes; a decode error for a configured key
// is the caller's responsibility to treat as fatal at startup (§4.1: "decode
// errors are fatal at startup, not per-write").
func New(dir string, key []byte, mode EncryptionMode, log *slog.Logger) (*Store, error) {
	if key != nil && len(key) != 32 {
		return nil, fmt.Errorf("chunkstore: encryption key must be 32 bytes, got %d", len(key))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chunkstore: create dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{root: dir, key: key, mode: mode, log: log}, nil
}

func (s *Store) shouldEncrypt() bool {
	switch s.mode {
	case EncryptionOn:
		return true
	case EncryptionOff:
		return false
	default: // auto
		return s.key != nil
	}
}

func (s *Store) plainPath(sha string) string { return filepath.Join(s.root, sha+plainExt) }
func (s *Store) encPath(sha string) string   { return filepath.Join(s.root, sha+encExt) }

// WriteResult reports which form a Write produced.
type WriteResult struct {
	Encrypted bool
}

// Write compresses bytes and persists them under sha, producing the
// preferred form (encrypted iff shouldEncrypt()) and removing the other
// form so at most one exists per SHA.
func (s *Store) Write(sha string, plaintext []byte) (WriteResult, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(plaintext); err != nil {
		return WriteResult{}, fmt.Errorf("chunkstore: gzip write: %w", err)
	}
	if err := gw.Close(); err != nil {
		return WriteResult{}, fmt.Errorf("chunkstore: gzip close: %w", err)
	}
	compressed := buf.Bytes()

	encrypt := s.shouldEncrypt()
	if encrypt && s.key == nil {
		return WriteResult{}, fmt.Errorf("chunkstore: %w: encryption requested but no key configured", types.ErrEncryptionKeyRequired)
	}

	if encrypt {
		ciphertext, err := s.encrypt(compressed)
		if err != nil {
			return WriteResult{}, err
		}
		if err := os.WriteFile(s.encPath(sha), ciphertext, 0o644); err != nil {
			return WriteResult{}, fmt.Errorf("chunkstore: write encrypted blob: %w", err)
		}
		_ = os.Remove(s.plainPath(sha))
		return WriteResult{Encrypted: true}, nil
	}

	if err := os.WriteFile(s.plainPath(sha), compressed, 0o644); err != nil {
		return WriteResult{}, fmt.Errorf("chunkstore: write plain blob: %w", err)
	}
	_ = os.Remove(s.encPath(sha))
	return WriteResult{Encrypted: false}, nil
}

// Read resolves sha to its body, trying the plaintext path then the
// encrypted path (§4.1 read resolution order). If only an encrypted form
// exists and no key is configured, it fails with ErrEncryptionKeyRequired
// rather than returning partial bytes.
func (s *Store) Read(sha string) ([]byte, error) {
	if data, err := os.ReadFile(s.plainPath(sha)); err == nil {
		return decompress(data)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("chunkstore: read plain blob: %w", err)
	}

	encData, err := os.ReadFile(s.encPath(sha))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("chunkstore: %w: sha=%s", types.ErrNotFound, sha)
		}
		return nil, fmt.Errorf("chunkstore: read encrypted blob: %w", err)
	}

	if s.key == nil {
		return nil, fmt.Errorf("chunkstore: %w: sha=%s", types.ErrEncryptionKeyRequired, sha)
	}

	compressed, err := s.decrypt(encData)
	if err != nil {
		return nil, err
	}
	return decompress(compressed)
}

// Remove deletes both possible forms of sha; it is not an error if neither
// exists.
func (s *Store) Remove(sha string) error {
	err1 := os.Remove(s.plainPath(sha))
	err2 := os.Remove(s.encPath(sha))
	if err1 != nil && !errors.Is(err1, os.ErrNotExist) {
		return fmt.Errorf("chunkstore: remove plain blob: %w", err1)
	}
	if err2 != nil && !errors.Is(err2, os.ErrNotExist) {
		return fmt.Errorf("chunkstore: remove encrypted blob: %w", err2)
	}
	return nil
}

// ShaHex is a small convenience matching the chunk's own SHA-1 hex encoding,
// used by callers that only have raw bytes (e.g. tests round-tripping I1).
func ShaHex(b []byte) string {
	sum := sha1.Sum(b) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

func (s *Store) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: new gcm: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("chunkstore: read nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, len(magic)+1+len(nonce)+len(sealed))
	out = append(out, []byte(magic)...)
	out = append(out, cipherVersion)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

func (s *Store) decrypt(data []byte) ([]byte, error) {
	if len(data) < len(magic)+1+nonceSize || string(data[:len(magic)]) != magic {
		return nil, fmt.Errorf("chunkstore: %w: bad header", types.ErrCorruptBlob)
	}
	version := data[len(magic)]
	if version != cipherVersion {
		return nil, fmt.Errorf("chunkstore: %w: unsupported cipher version %d", types.ErrCorruptBlob, version)
	}
	offset := len(magic) + 1
	nonce := data[offset : offset+nonceSize]
	ciphertext := data[offset+nonceSize:]

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: new gcm: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: %w", types.ErrDecryptFailed)
	}
	return plaintext, nil
}

func decompress(compressed []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("chunkstore: %w: %v", types.ErrCorruptBlob, err)
	}
	defer func() { _ = gr.Close() }()
	out, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: %w: %v", types.ErrCorruptBlob, err)
	}
	return out, nil
}

// DecodeKey accepts a base64 or hex encoded 32-byte key, matching
// PAMPAX_ENCRYPTION_KEY's documented formats.
func DecodeKey(input string) ([]byte, error) {
	return decodeKey(input)
}
