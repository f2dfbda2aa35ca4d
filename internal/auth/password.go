package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt cost used when none is configured.
const DefaultHashCost = bcrypt.DefaultCost

// prehashKey reduces a key of any length to a fixed 44-byte input, below bcrypt's 72-byte limit.
func prehashKey(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// HashKey generates a bcrypt hash of a login key. Keys of any length are accepted.
func HashKey(key string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	hash, err := bcrypt.GenerateFromPassword(prehashKey(key), cost)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(hash), nil
}

// CompareKey compares a stored key hash with its plaintext version in constant time.
// Hashes written by the legacy server are bare hex SHA-256 digests and are still accepted.
func CompareKey(hashedKey, key string) error {
	if isLegacyHash(hashedKey) {
		sum := sha256.Sum256([]byte(key))
		if subtle.ConstantTimeCompare([]byte(strings.ToLower(hashedKey)), []byte(hex.EncodeToString(sum[:]))) != 1 {
			return bcrypt.ErrMismatchedHashAndPassword
		}
		return nil
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedKey), prehashKey(key))
}

// NeedsRehash reports whether hashedKey should be replaced by a fresh HashKey result.
func NeedsRehash(hashedKey string) bool {
	return isLegacyHash(hashedKey)
}

func isLegacyHash(hashedKey string) bool {
	if len(hashedKey) != hex.EncodedLen(sha256.Size) {
		return false
	}
	_, err := hex.DecodeString(hashedKey)
	return err == nil
}
