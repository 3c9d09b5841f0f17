package crypto

import (
	"crypto/rand"
	"encoding/base64"
)

// NewOneTimeToken returns a high-entropy opaque token for email confirmation
// and password recovery. It carries no embedded semantics: verification is
// always an exact-match lookup of the stored value.
func NewOneTimeToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
