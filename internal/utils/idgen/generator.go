package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// BranchTokenBytes is the number of random bytes in a branch token.
// Tokens are hex encoded, so the resulting string is twice this length.
const BranchTokenBytes = 8

// GenerateBranchToken generates a cryptographically random branch identifier.
// The token is lowercase hex, e.g. "b7f3a91c02d4e856".
func GenerateBranchToken() (string, error) {
	bytes := make([]byte, BranchTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// ValidateBranchToken reports whether s has the shape of a generated branch
// token: exactly 2*BranchTokenBytes lowercase hex characters.
func ValidateBranchToken(s string) bool {
	if len(s) != BranchTokenBytes*2 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
