package common

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// MakeRandURLSafeString generates an opaque random token of size random bytes,
// encoded with the unpadded URL-safe base64 alphabet. It is used for the
// verification, reset, and refresh token values. size must be at least 32 so
// the result carries at least 256 bits of entropy.
func MakeRandURLSafeString(size int) (string, error) {
	if size < 32 {
		return "", fmt.Errorf("token size %d below minimum of 32: %w", size, ErrValidation)
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// TokenFingerprint returns the hex SHA-256 digest of a token value. Tokens
// are persisted and looked up by fingerprint only; raw values never reach
// the database.
func TokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
