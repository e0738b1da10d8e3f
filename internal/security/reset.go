package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// 32 bytes = 256 bits of entropy.
const resetTokenBytes = 32

// GenerateResetToken returns the plaintext handed to the user once and the digest
// that is the only thing persisted.
func GenerateResetToken() (string, string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)
	return token, HashResetToken(token), nil
}

// HashResetToken is a plain SHA-256; the token already carries enough entropy that a
// slow hash buys nothing.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
