package storage

import (
	"context"

	"github.com/rhuss/oauthfilter/pkg/api"
)

// Finder looks up the records needed to authenticate a request.
type Finder interface {
	// FindConsumerByKey returns the consumer with the given key or ErrNotFound.
	FindConsumerByKey(ctx context.Context, key string) (*api.Consumer, error)

	// FindToken returns the token with the given value. When consumer is
	// non-nil the search is limited to tokens owned by that consumer.
	// Returns ErrNotFound when no token matches.
	FindToken(ctx context.Context, value string, consumer *api.Consumer) (*api.Token, error)
}

// Writer persists consumers and tokens.
type Writer interface {
	// SaveConsumer stores a new consumer. Returns ErrConflict if the key exists.
	SaveConsumer(ctx context.Context, c *api.Consumer) error

	// SaveToken stores a new token. Returns ErrConflict if the value exists
	// and ErrNotFound if the owning consumer does not.
	SaveToken(ctx context.Context, t *api.Token) error
}

// Store is the full contract implemented by every storage adapter.
type Store interface {
	Finder
	Writer

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
