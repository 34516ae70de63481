package auth

import (
	"context"

	"github.com/rhuss/oauthfilter/pkg/api"
)

// identityKey is a private type for the identity context key.
type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id. A nil id leaves ctx
// unchanged, so absence is never represented by a placeholder.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the resolved identity.
// Returns nil if the request was not authenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}

// TokenFromContext returns the resolved token (oauth.token).
func TokenFromContext(ctx context.Context) (*api.Token, bool) {
	id := IdentityFromContext(ctx)
	if id == nil || id.Token == nil {
		return nil, false
	}
	return id.Token, true
}

// ConsumerFromContext returns the resolved client application
// (oauth.client_application).
func ConsumerFromContext(ctx context.Context) (*api.Consumer, bool) {
	id := IdentityFromContext(ctx)
	if id == nil || id.Consumer == nil {
		return nil, false
	}
	return id.Consumer, true
}

// VersionFromContext returns the protocol version (oauth.version).
func VersionFromContext(ctx context.Context) (Version, bool) {
	id := IdentityFromContext(ctx)
	if id == nil {
		return 0, false
	}
	return id.Version, true
}

// StrategiesFromContext returns a copy of the matched strategies
// (oauth.strategies).
func StrategiesFromContext(ctx context.Context) ([]Strategy, bool) {
	id := IdentityFromContext(ctx)
	if id == nil || len(id.Strategies) == 0 {
		return nil, false
	}
	return append([]Strategy(nil), id.Strategies...), true
}
