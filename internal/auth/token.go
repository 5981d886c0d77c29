package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DefaultTokenBytes yields the 40-character keys clients expect.
const DefaultTokenBytes = 20

// GenerateKey returns n random bytes as a lowercase hex string.
func GenerateKey(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
