// Package oauth2 resolves OAuth 2.0 bearer-style tokens. Tokens are looked
// up across all consumers and must be valid (authorized, not invalidated,
// not expired).
package oauth2

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rhuss/oauthfilter/pkg/api"
	"github.com/rhuss/oauthfilter/pkg/auth"
	"github.com/rhuss/oauthfilter/pkg/storage"
)

// Authenticator implements auth.TokenAuthenticator.
type Authenticator struct {
	finder storage.Finder

	// Now defaults to time.Now.
	Now func() time.Time
}

var _ auth.TokenAuthenticator = (*Authenticator)(nil)

// New creates an authenticator backed by finder.
func New(finder storage.Finder) *Authenticator {
	return &Authenticator{finder: finder, Now: time.Now}
}

// AuthenticateToken resolves c. Unknown and revoked tokens yield the same
// result so callers cannot tell them apart.
func (a *Authenticator) AuthenticateToken(ctx context.Context, c auth.OAuth2Token) (auth.Result, error) {
	token, err := a.finder.FindToken(ctx, c.Value, nil)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return auth.Denied(auth.ErrUnknownToken), nil
		}
		return auth.Result{}, fmt.Errorf("looking up token: %w", err)
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	if !token.Valid(now()) {
		return auth.Denied(auth.ErrUnknownToken), nil
	}

	owner, err := a.owner(ctx, token)
	if err != nil {
		return auth.Result{}, err
	}

	return auth.Granted(&auth.Identity{
		Consumer:   owner,
		Token:      token,
		Version:    auth.Version2,
		Strategies: []auth.Strategy{auth.StrategyOAuth20Token, auth.StrategyToken},
	}), nil
}

// owner resolves the token's consumer. A missing owner is not an error:
// the identity is published with the token alone.
func (a *Authenticator) owner(ctx context.Context, token *api.Token) (*api.Consumer, error) {
	if token.ConsumerKey == "" {
		return nil, nil
	}
	c, err := a.finder.FindConsumerByKey(ctx, token.ConsumerKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up token owner: %w", err)
	}
	return c, nil
}
