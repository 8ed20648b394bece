package internal

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	csrfKeySize   = 16
	csrfTokenSize = 32
)

// NewCSRFKey returns the server-only half of a CSRF pair (128 bits, hex).
func NewCSRFKey() (string, error) {
	return randomHex(csrfKeySize)
}

// NewCSRFToken returns the client-visible half of a CSRF pair (256 bits, hex).
func NewCSRFToken() (string, error) {
	return randomHex(csrfTokenSize)
}

// IsCSRFToken reports whether s has the shape NewCSRFToken produces: 64
// lowercase hex characters.
func IsCSRFToken(s string) bool {
	if len(s) != hex.EncodedLen(csrfTokenSize) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func randomHex(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
