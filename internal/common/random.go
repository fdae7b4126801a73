package common

import (
	"crypto/rand"
	"encoding/base64"
)

// RandomString returns size bytes from crypto/rand encoded as unpadded
// URL-safe base64.
func RandomString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RandomFunc generates random token values. Services accept it so tests can
// force collisions.
type RandomFunc func(size int) (string, error)
