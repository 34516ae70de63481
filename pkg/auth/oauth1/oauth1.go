// Package oauth1 resolves OAuth 1.0(a) signed requests: the consumer
// signature is verified and, when an oauth_token is present, the token is
// resolved within the consumer's tokens.
package oauth1

import (
	"context"
	"errors"
	"fmt"

	"github.com/rhuss/oauthfilter/pkg/api"
	"github.com/rhuss/oauthfilter/pkg/auth"
	"github.com/rhuss/oauthfilter/pkg/debug"
	"github.com/rhuss/oauthfilter/pkg/signature"
	"github.com/rhuss/oauthfilter/pkg/storage"
)

// Authenticator implements auth.SignedAuthenticator.
type Authenticator struct {
	finder   storage.Finder
	verifier signature.Verifier
}

var _ auth.SignedAuthenticator = (*Authenticator)(nil)

// New creates an authenticator. A nil verifier selects signature.HMAC.
func New(finder storage.Finder, verifier signature.Verifier) *Authenticator {
	if verifier == nil {
		verifier = signature.HMAC{}
	}
	return &Authenticator{finder: finder, verifier: verifier}
}

// AuthenticateSigned verifies c.
//
// The token, when present, is looked up before the signature is checked
// because its secret is half of the HMAC key. Token validity is not checked:
// a correct signature over a known token is sufficient for OAuth 1.0.
func (a *Authenticator) AuthenticateSigned(ctx context.Context, c auth.OAuth1Signed) (auth.Result, error) {
	consumer, err := a.finder.FindConsumerByKey(ctx, c.ConsumerKey())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return auth.Denied(auth.ErrUnknownConsumer), nil
		}
		return auth.Result{}, fmt.Errorf("looking up consumer: %w", err)
	}

	if c.SignatureMethod() != signature.MethodHMACSHA1 {
		return auth.Denied(auth.ErrUnsupportedSignatureMethod), nil
	}

	var token *api.Token
	if value, ok := c.Token(); ok {
		token, err = a.finder.FindToken(ctx, value, consumer)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return auth.Denied(auth.ErrUnknownToken), nil
			}
			return auth.Result{}, fmt.Errorf("looking up token: %w", err)
		}
	}

	secrets := signature.Secrets{Consumer: consumer.Secret}
	if token != nil {
		secrets.Token = token.Secret
	}
	base := c.Request.BaseString()
	ok, err := a.verifier.Verify(ctx, c.SignatureMethod(), base, secrets, c.Signature())
	if err != nil {
		return auth.Result{}, fmt.Errorf("verifying signature: %w", err)
	}
	if !ok {
		debug.Trace("auth", "signature mismatch", "consumer", consumer.Key, "base_string", string(base))
		return auth.Denied(auth.ErrSignatureMismatch), nil
	}

	id := &auth.Identity{Consumer: consumer, Token: token, Version: auth.Version1}
	switch {
	case token == nil:
		id.Strategies = []auth.Strategy{auth.StrategyTwoLegged}
	case token.Kind == api.TokenKindAccess:
		id.Strategies = []auth.Strategy{auth.StrategyOAuth10Token, auth.StrategyToken, auth.StrategyOAuth10AccessToken}
	case token.Kind == api.TokenKindRequest:
		// Request tokens only serve the authorization handshake, so the
		// generic token strategy is withheld.
		id.Strategies = []auth.Strategy{auth.StrategyOAuth10Token, auth.StrategyOAuth10RequestToken}
	default:
		return auth.Denied(auth.ErrUnknownToken), nil
	}
	return auth.Granted(id), nil
}
