package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Random token sizes in bytes, before base64url encoding.
const (
	TokenSize256 = 32
	TokenSize512 = 64
)

// GenerateToken returns size random bytes as unpadded base64url.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewPKCEVerifier returns a code_verifier for RFC 7636. 64 random bytes
// encode to 86 characters, inside the 43..128 range the RFC allows.
func NewPKCEVerifier() (string, error) {
	return GenerateToken(TokenSize512)
}

// S256Challenge derives the code_challenge for a verifier:
// BASE64URL-ENCODE(SHA256(ASCII(code_verifier))).
func S256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
