package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rhuss/oauthfilter/pkg/api"
)

// Decision represents the three possible outcomes of a resolution.
type Decision int

const (
	// Yes means the credential is valid and an identity was resolved.
	Yes Decision = iota

	// No means a credential was presented but it is unknown, revoked or
	// carries a bad signature.
	No

	// Abstain means no applicable credential was presented.
	Abstain
)

// String returns the lowercase decision name used in logs and metrics.
func (d Decision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	case Abstain:
		return "abstain"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Version is the OAuth protocol version of a resolved identity.
type Version int

const (
	Version1 Version = 1
	Version2 Version = 2
)

// Strategy names a resolution path. The strategies of an identity document
// which checks succeeded, most specific first.
type Strategy string

const (
	StrategyTwoLegged           Strategy = "two_legged"
	StrategyOAuth10Token        Strategy = "oauth10_token"
	StrategyToken               Strategy = "token"
	StrategyOAuth10AccessToken  Strategy = "oauth10_access_token"
	StrategyOAuth10RequestToken Strategy = "oauth10_request_token"
	StrategyOAuth20Token        Strategy = "oauth20_token"
)

// Identity is the request-scoped result of a successful resolution. It
// references records owned by the storage layer and is never persisted.
type Identity struct {
	// Consumer is the client application. Nil for OAuth 2.0 tokens whose
	// owner could not be resolved.
	Consumer *api.Consumer

	// Token is the access or request token. Nil for two-legged requests.
	Token *api.Token

	Version    Version
	Strategies []Strategy
}

// Has reports whether s is one of the identity's strategies.
func (id *Identity) Has(s Strategy) bool {
	if id == nil {
		return false
	}
	for _, v := range id.Strategies {
		if v == s {
			return true
		}
	}
	return false
}

// Result carries the outcome of a resolution.
type Result struct {
	Decision Decision
	Identity *Identity // populated only when Decision == Yes
	Reason   error     // one of the reason sentinels when Decision != Yes
}

// Granted returns a Yes result for id.
func Granted(id *Identity) Result {
	return Result{Decision: Yes, Identity: id}
}

// Denied returns a No result with the given reason.
func Denied(reason error) Result {
	return Result{Decision: No, Reason: reason}
}

// Declined returns an Abstain result with the given reason.
func Declined(reason error) Result {
	return Result{Decision: Abstain, Reason: reason}
}

// Reasons a resolution did not produce an identity. They all have the same
// observable effect: nothing is published and the request passes through
// unauthenticated.
var (
	ErrNoCredential               = errors.New("no credential presented")
	ErrMalformedHeader            = errors.New("malformed authorization header")
	ErrUnknownConsumer            = errors.New("unknown consumer")
	ErrUnknownToken               = errors.New("unknown or revoked token")
	ErrSignatureMismatch          = errors.New("signature mismatch")
	ErrUnsupportedSignatureMethod = errors.New("unsupported signature method")
)

// ReasonLabel returns a short label for reason suitable for metrics.
func ReasonLabel(reason error) string {
	switch {
	case reason == nil:
		return "none"
	case errors.Is(reason, ErrNoCredential):
		return "no_credential"
	case errors.Is(reason, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(reason, ErrUnknownConsumer):
		return "unknown_consumer"
	case errors.Is(reason, ErrUnknownToken):
		return "unknown_token"
	case errors.Is(reason, ErrSignatureMismatch):
		return "signature_mismatch"
	case errors.Is(reason, ErrUnsupportedSignatureMethod):
		return "unsupported_signature_method"
	}
	return "other"
}

// SignedAuthenticator resolves OAuth 1.0 signed requests.
//
// A non-nil error means a collaborator failed and the credential could not
// be evaluated. It is never one of the reason sentinels.
type SignedAuthenticator interface {
	AuthenticateSigned(ctx context.Context, c OAuth1Signed) (Result, error)
}

// TokenAuthenticator resolves OAuth 2.0 tokens. Errors follow the same
// contract as SignedAuthenticator.
type TokenAuthenticator interface {
	AuthenticateToken(ctx context.Context, c OAuth2Token) (Result, error)
}
