package helpers

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateToken returns an opaque URL-safe token built from n random bytes.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
