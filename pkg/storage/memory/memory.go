// Package memory provides an in-memory implementation of storage.Store for
// tests, demos and fixture-driven deployments. Records are lost when the
// process restarts unless they are reloaded from a fixture file.
package memory

import (
	"context"
	"sync"

	"github.com/rhuss/oauthfilter/pkg/api"
	"github.com/rhuss/oauthfilter/pkg/debug"
	"github.com/rhuss/oauthfilter/pkg/storage"
)

// Store is an in-memory storage.Store. All reads return copies so callers
// cannot mutate stored records.
type Store struct {
	mu        sync.RWMutex
	consumers map[string]*api.Consumer
	tokens    map[string]*api.Token
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		consumers: make(map[string]*api.Consumer),
		tokens:    make(map[string]*api.Token),
	}
}

// FindConsumerByKey returns a copy of the consumer with the given key.
func (s *Store) FindConsumerByKey(_ context.Context, key string) (*api.Consumer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.consumers[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// FindToken returns a copy of the token with the given value. A non-nil
// consumer restricts the match to tokens owned by that consumer.
func (s *Store) FindToken(_ context.Context, value string, consumer *api.Consumer) (*api.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[value]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if consumer != nil && t.ConsumerKey != consumer.Key {
		return nil, storage.ErrNotFound
	}
	return copyToken(t), nil
}

// SaveConsumer stores a copy of c.
func (s *Store) SaveConsumer(_ context.Context, c *api.Consumer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.consumers[c.Key]; exists {
		return storage.ErrConflict
	}
	cp := *c
	s.consumers[c.Key] = &cp
	return nil
}

// SaveToken stores a copy of t. The owning consumer must already exist.
func (s *Store) SaveToken(_ context.Context, t *api.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[t.Value]; exists {
		return storage.ErrConflict
	}
	if _, ok := s.consumers[t.ConsumerKey]; !ok {
		return storage.ErrNotFound
	}
	s.tokens[t.Value] = copyToken(t)
	return nil
}

// Replace swaps the full contents of the store in one step. Readers never
// observe a partially loaded data set.
func (s *Store) Replace(consumers []api.Consumer, tokens []api.Token) {
	cm := make(map[string]*api.Consumer, len(consumers))
	for i := range consumers {
		c := consumers[i]
		cm[c.Key] = &c
	}
	tm := make(map[string]*api.Token, len(tokens))
	for i := range tokens {
		tm[tokens[i].Value] = copyToken(&tokens[i])
	}

	s.mu.Lock()
	s.consumers = cm
	s.tokens = tm
	s.mu.Unlock()

	debug.Log("storage", "store contents replaced", "consumers", len(cm), "tokens", len(tm))
}

// Len returns the number of stored consumers and tokens.
func (s *Store) Len() (consumers, tokens int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.consumers), len(s.tokens)
}

// HealthCheck always succeeds for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func copyToken(t *api.Token) *api.Token {
	cp := *t
	cp.AuthorizedAt = copyTime(t.AuthorizedAt)
	cp.InvalidatedAt = copyTime(t.InvalidatedAt)
	cp.ExpiresAt = copyTime(t.ExpiresAt)
	return &cp
}
