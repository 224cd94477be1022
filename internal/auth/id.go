package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// newJTI generates a random 16-byte token id, hex-encoded.
func newJTI() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
