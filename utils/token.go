package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewInviteToken returns a 64-character hex string from 32 random
// bytes. Tokens land in URLs, so hex keeps them copy-paste safe.
func NewInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token generation: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NewOTPCode returns a zero-padded 6-digit code from crypto/rand.
func NewOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("otp generation: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
