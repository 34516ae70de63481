package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	nonceLength = 32
	charset     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var noncePattern = regexp.MustCompile(`^[a-zA-Z0-9]{32}$`)

// NewNonce generates a 32 character cryptographically random alphanumeric
// string suitable for the oauth_nonce parameter.
func NewNonce() string {
	return randomAlphanumeric(nonceLength)
}

// ValidateNonce checks whether the given string has the shape produced by NewNonce.
func ValidateNonce(s string) bool {
	return noncePattern.MatchString(s)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
