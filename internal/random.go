package internal

import (
	"crypto/rand"
	"encoding/base64"
)

const opaqueTokenSize = 32

// NewOpaqueToken returns a cryptographically random token string suitable
// for single-use verification and reset flows. 256 bits, base64url without
// padding.
func NewOpaqueToken() (string, error) {
	var raw [opaqueTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
