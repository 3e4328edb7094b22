package util

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomToken returns n random bytes hex encoded (2n characters).
// Used for session tokens and case share tokens.
func RandomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("util: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
