package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"  // secure random number generation
	"encoding/hex" // hex encoding for token strings
)

// tokenBytes is the entropy of every issued token. 32 bytes of secure
// random data encoded as 64 hex characters; this width is part of the
// external contract for the Authorization header.
const tokenBytes = 32

// NewAuthToken returns a fresh opaque API token. Tokens are stored on
// the user row and compared by equality at authentication time, so
// each one must be unguessable.
func NewAuthToken() (string, error) {
	return randomHex(tokenBytes)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data. If the random number generator
// fails, an error is returned.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
