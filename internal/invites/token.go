package invites

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// tokenBytes gives 256 bits of entropy.
const tokenBytes = 32

// NewToken returns a fresh unguessable invitation token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("invites: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the stored form of a token. Tokens are persisted hashed
// so a leaked invitations table does not leak redeemable tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
