// Package redis provides a Redis implementation of storage.Store. Consumers
// and tokens are stored as JSON documents under prefixed keys.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rhuss/oauthfilter/pkg/api"
	"github.com/rhuss/oauthfilter/pkg/storage"
)

// Config contains configuration options for the Redis store.
type Config struct {
	// Client is the Redis client instance.
	Client *redis.Client

	// KeyPrefix is the prefix for all Redis keys.
	// Default: "oauthfilter:"
	KeyPrefix string
}

// Store implements storage.Store using Redis.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

var _ storage.Store = (*Store)(nil)

// storedConsumer and storedToken carry the secrets that the API types
// exclude from JSON.
type storedConsumer struct {
	Key         string    `json:"key"`
	Secret      string    `json:"secret"`
	Name        string    `json:"name,omitempty"`
	CallbackURL string    `json:"callback_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type storedToken struct {
	Value         string     `json:"token"`
	Secret        string     `json:"secret,omitempty"`
	Kind          string     `json:"kind"`
	ConsumerKey   string     `json:"consumer_key"`
	Scope         string     `json:"scope,omitempty"`
	AuthorizedAt  *time.Time `json:"authorized_at,omitempty"`
	InvalidatedAt *time.Time `json:"invalidated_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// New creates a Redis-backed store.
func New(config Config) (*Store, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "oauthfilter:"
	}
	return &Store{
		client:    config.Client,
		keyPrefix: config.KeyPrefix,
	}, nil
}

// Open connects with opts and verifies the server responds.
func Open(ctx context.Context, opts *redis.Options, keyPrefix string) (*Store, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return New(Config{Client: client, KeyPrefix: keyPrefix})
}

// OpenURL parses a redis:// URL and calls Open.
func OpenURL(ctx context.Context, url, keyPrefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	return Open(ctx, opts, keyPrefix)
}

// FindConsumerByKey loads a consumer by key.
func (s *Store) FindConsumerByKey(ctx context.Context, key string) (*api.Consumer, error) {
	var sc storedConsumer
	if err := s.get(ctx, s.consumerKey(key), &sc); err != nil {
		return nil, err
	}
	return &api.Consumer{
		Key:         sc.Key,
		Secret:      sc.Secret,
		Name:        sc.Name,
		CallbackURL: sc.CallbackURL,
		CreatedAt:   sc.CreatedAt,
	}, nil
}

// FindToken loads a token by value. A non-nil consumer restricts the match
// to tokens it owns.
func (s *Store) FindToken(ctx context.Context, value string, consumer *api.Consumer) (*api.Token, error) {
	var st storedToken
	if err := s.get(ctx, s.tokenKey(value), &st); err != nil {
		return nil, err
	}
	if consumer != nil && st.ConsumerKey != consumer.Key {
		return nil, storage.ErrNotFound
	}

	kind, err := api.ParseTokenKind(st.Kind)
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", value, err)
	}
	return &api.Token{
		Value:         st.Value,
		Secret:        st.Secret,
		Kind:          kind,
		ConsumerKey:   st.ConsumerKey,
		Scope:         st.Scope,
		AuthorizedAt:  st.AuthorizedAt,
		InvalidatedAt: st.InvalidatedAt,
		ExpiresAt:     st.ExpiresAt,
		CreatedAt:     st.CreatedAt,
	}, nil
}

// SaveConsumer stores a consumer unless the key is already taken.
func (s *Store) SaveConsumer(ctx context.Context, c *api.Consumer) error {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return s.setNX(ctx, s.consumerKey(c.Key), storedConsumer{
		Key:         c.Key,
		Secret:      c.Secret,
		Name:        c.Name,
		CallbackURL: c.CallbackURL,
		CreatedAt:   createdAt,
	})
}

// SaveToken stores a token. The owning consumer must exist.
func (s *Store) SaveToken(ctx context.Context, t *api.Token) error {
	n, err := s.client.Exists(ctx, s.consumerKey(t.ConsumerKey)).Result()
	if err != nil {
		return fmt.Errorf("checking consumer %s: %w", t.ConsumerKey, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	kind := t.Kind
	if kind == "" {
		kind = api.TokenKindAccess
	}
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return s.setNX(ctx, s.tokenKey(t.Value), storedToken{
		Value:         t.Value,
		Secret:        t.Secret,
		Kind:          string(kind),
		ConsumerKey:   t.ConsumerKey,
		Scope:         t.Scope,
		AuthorizedAt:  t.AuthorizedAt,
		InvalidatedAt: t.InvalidatedAt,
		ExpiresAt:     t.ExpiresAt,
		CreatedAt:     createdAt,
	})
}

// HealthCheck pings the Redis server.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) get(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (s *Store) setNX(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	ok, err := s.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	if !ok {
		return storage.ErrConflict
	}
	return nil
}

func (s *Store) consumerKey(key string) string {
	return s.keyPrefix + "consumer:" + key
}

func (s *Store) tokenKey(value string) string {
	return s.keyPrefix + "token:" + value
}
