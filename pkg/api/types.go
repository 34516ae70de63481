package api

import (
	"fmt"
	"time"
)

// TokenKind distinguishes general-purpose access tokens from the request
// tokens used during the OAuth 1.0 authorization handshake.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRequest TokenKind = "request"
)

// Valid reports whether k is a known token kind.
func (k TokenKind) Valid() bool {
	return k == TokenKindAccess || k == TokenKindRequest
}

// ParseTokenKind converts a stored kind string into a TokenKind.
func ParseTokenKind(s string) (TokenKind, error) {
	k := TokenKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown token kind %q", s)
	}
	return k, nil
}

// Consumer is a registered client application.
type Consumer struct {
	// Key uniquely identifies the consumer (oauth_consumer_key).
	Key string `json:"key" yaml:"key"`

	// Secret is the shared secret used to sign OAuth 1.0 requests.
	Secret string `json:"-" yaml:"secret"`

	Name        string    `json:"name,omitempty" yaml:"name"`
	CallbackURL string    `json:"callback_url,omitempty" yaml:"callback_url"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Token is an access or request token. Every token belongs to exactly one
// consumer, referenced by key.
type Token struct {
	// Value is the opaque token string presented by clients.
	Value string `json:"token" yaml:"token"`

	// Secret is the token secret used as the second half of the OAuth 1.0
	// HMAC key. OAuth 2.0 tokens usually leave it empty.
	Secret string `json:"-" yaml:"secret"`

	Kind        TokenKind `json:"kind" yaml:"kind"`
	ConsumerKey string    `json:"client_application" yaml:"consumer_key"`
	Scope       string    `json:"scope,omitempty" yaml:"scope"`

	AuthorizedAt  *time.Time `json:"authorized_at,omitempty" yaml:"authorized_at"`
	InvalidatedAt *time.Time `json:"invalidated_at,omitempty" yaml:"invalidated_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" yaml:"expires_at"`
	CreatedAt     time.Time  `json:"created_at" yaml:"created_at"`
}

// Invalidated reports whether the token has been revoked.
func (t *Token) Invalidated() bool {
	return t.InvalidatedAt != nil
}

// Authorized reports whether the resource owner has authorized the token.
func (t *Token) Authorized() bool {
	return t.AuthorizedAt != nil
}

// Expired reports whether the token carries an expiry that lies at or
// before now.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// Valid reports whether the token is authorized, not invalidated and not
// expired at the given time.
func (t *Token) Valid(now time.Time) bool {
	return t.Authorized() && !t.Invalidated() && !t.Expired(now)
}

// ExpiresIn returns the number of whole seconds until the token expires,
// or 0 when the token has no expiry or has already expired.
func (t *Token) ExpiresIn(now time.Time) int64 {
	if t.ExpiresAt == nil {
		return 0
	}
	d := int64(t.ExpiresAt.Sub(now) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}
