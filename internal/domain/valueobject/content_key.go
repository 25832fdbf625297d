package valueobject

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ContentKey identifies an analysis result by language and source digest.
// Two files with identical bytes and grammar share a key.
type ContentKey struct {
	language string
	hash     string
}

// NewContentKey hashes source with SHA-256.
func NewContentKey(language Language, source []byte) ContentKey {
	sum := sha256.Sum256(source)
	return ContentKey{language: language.Grammar(), hash: hex.EncodeToString(sum[:])}
}

// ParseContentKey parses the form produced by String.
func ParseContentKey(s string) (ContentKey, error) {
	grammar, hash, ok := strings.Cut(s, ":")
	if !ok || grammar == "" || len(hash) != sha256.Size*2 {
		return ContentKey{}, errors.New("invalid content key: " + s)
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return ContentKey{}, errors.New("invalid content key hash: " + s)
	}
	return ContentKey{language: grammar, hash: hash}, nil
}

// Hash returns the hex encoded SHA-256 digest.
func (k ContentKey) Hash() string {
	return k.hash
}

// String returns "<grammar>:<sha256 hex>".
func (k ContentKey) String() string {
	return k.language + ":" + k.hash
}

// Bytes returns the key as stored in persistent caches.
func (k ContentKey) Bytes() []byte {
	return []byte(k.String())
}
