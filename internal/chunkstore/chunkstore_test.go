package chunkstore

import (
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"errors"
	"testing"

	"github.com/lemon07r/pampax/pkg/types"
	"github.com/stretchr/testify/require"
)

func shaFor(b []byte) string {
	sum := sha1.Sum(b) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

func TestWriteReadRoundTripPlain(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil, EncryptionOff, nil)
	require.NoError(t, err)

	body := []byte("func alpha() {}")
	sha := shaFor(body)

	res, err := store.Write(sha, body)
	require.NoError(t, err)
	require.False(t, res.Encrypted)

	got, err := store.Read(sha)
	require.NoError(t, err)
	require.Equal(t, body, got)
}

func TestWriteReadRoundTripEncrypted(t *testing.T) {
	dir := t.TempDir()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	store, err := New(dir, key, EncryptionOn, nil)
	require.NoError(t, err)

	body := []byte("def beta(): pass")
	sha := shaFor(body)

	res, err := store.Write(sha, body)
	require.NoError(t, err)
	require.True(t, res.Encrypted)

	got, err := store.Read(sha)
	require.NoError(t, err)
	require.Equal(t, body, got)
}

// R2: key rotation fails loudly on a mismatched key rather than returning
// wrong bytes.
func TestReadFailsLoudlyOnKeyMismatch(t *testing.T) {
	dir := t.TempDir()
	key1 := make([]byte, 32)
	key2 := make([]byte, 32)
	for i := range key1 {
		key1[i] = byte(i)
		key2[i] = byte(255 - i)
	}

	writer, err := New(dir, key1, EncryptionOn, nil)
	require.NoError(t, err)
	body := []byte("fn gamma() {}")
	sha := shaFor(body)
	_, err = writer.Write(sha, body)
	require.NoError(t, err)

	reader, err := New(dir, key2, EncryptionOn, nil)
	require.NoError(t, err)
	_, err = reader.Read(sha)
	require.Error(t, err)
	require.True(t, errors.Is(err, types.ErrDecryptFailed))
}

// Encrypted round-trip scenario 6: removing the key surfaces
// ErrEncryptionKeyRequired rather than crashing.
func TestReadWithoutKeyOnEncryptedBlob(t *testing.T) {
	dir := t.TempDir()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	writer, err := New(dir, key, EncryptionOn, nil)
	require.NoError(t, err)
	body := []byte("class Foo {}")
	sha := shaFor(body)
	_, err = writer.Write(sha, body)
	require.NoError(t, err)

	reader, err := New(dir, nil, EncryptionAuto, nil)
	require.NoError(t, err)
	_, err = reader.Read(sha)
	require.Error(t, err)
	require.True(t, errors.Is(err, types.ErrEncryptionKeyRequired))
}

func TestWriteReplacesPreviousForm(t *testing.T) {
	dir := t.TempDir()
	key := make([]byte, 32)
	store, err := New(dir, key, EncryptionOff, nil)
	require.NoError(t, err)

	body := []byte("var x = 1;")
	sha := shaFor(body)

	_, err = store.Write(sha, body)
	require.NoError(t, err)

	store.mode = EncryptionOn
	_, err = store.Write(sha, body)
	require.NoError(t, err)

	got, err := store.Read(sha)
	require.NoError(t, err)
	require.Equal(t, body, got)

	_, plainErr := store.Read(shaFor([]byte("nonexistent")))
	require.Error(t, plainErr)
}

func TestRemoveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil, EncryptionOff, nil)
	require.NoError(t, err)

	require.NoError(t, store.Remove("deadbeef"))

	body := []byte("package main")
	sha := shaFor(body)
	_, err = store.Write(sha, body)
	require.NoError(t, err)
	require.NoError(t, store.Remove(sha))

	_, err = store.Read(sha)
	require.Error(t, err)
	require.True(t, errors.Is(err, types.ErrNotFound))
}
