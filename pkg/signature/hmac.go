package signature

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
)

// MethodHMACSHA1 is the only signature method accepted by HMAC.
const MethodHMACSHA1 = "HMAC-SHA1"

// Secrets holds the two halves of the signing key. Token is empty for
// two-legged requests.
type Secrets struct {
	Consumer string
	Token    string
}

// Key returns the RFC 5849 section 3.4.2 HMAC key.
func (s Secrets) Key() []byte {
	return []byte(Encode(s.Consumer) + "&" + Encode(s.Token))
}

// Verifier checks a provided signature against a signature base string.
//
// Verify returns false for unsupported methods and for mismatching
// signatures. A non-nil error means the verifier itself failed (for
// example a remote signing service was unreachable) and the signature
// could not be evaluated.
type Verifier interface {
	Verify(ctx context.Context, method string, base []byte, secrets Secrets, signature string) (bool, error)
}

// HMAC verifies HMAC-SHA1 signatures in process.
type HMAC struct{}

var _ Verifier = HMAC{}

// Verify implements Verifier using a constant-time comparison.
func (HMAC) Verify(_ context.Context, method string, base []byte, secrets Secrets, signature string) (bool, error) {
	if method != MethodHMACSHA1 {
		return false, nil
	}
	provided, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, nil
	}
	return hmac.Equal(provided, sum(base, secrets)), nil
}

// SignHMACSHA1 returns the base64 encoded HMAC-SHA1 signature of base.
func SignHMACSHA1(base []byte, secrets Secrets) string {
	return base64.StdEncoding.EncodeToString(sum(base, secrets))
}

func sum(base []byte, secrets Secrets) []byte {
	mac := hmac.New(sha1.New, secrets.Key())
	mac.Write(base)
	return mac.Sum(nil)
}
