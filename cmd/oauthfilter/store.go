package main

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rhuss/oauthfilter/pkg/auth"
	"github.com/rhuss/oauthfilter/pkg/auth/oauth1"
	"github.com/rhuss/oauthfilter/pkg/auth/oauth2"
	"github.com/rhuss/oauthfilter/pkg/config"
	"github.com/rhuss/oauthfilter/pkg/storage"
	"github.com/rhuss/oauthfilter/pkg/storage/memory"
	"github.com/rhuss/oauthfilter/pkg/storage/postgres"
	"github.com/rhuss/oauthfilter/pkg/storage/redis"
)

// openStore creates the store selected by cfg.Storage.Type. For the memory
// backend the concrete store is returned as well so the caller can watch
// its fixture file.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, *memory.Store, error) {
	switch cfg.Type {
	case "memory":
		s := memory.New()
		if cfg.Memory.Fixtures != "" {
			if err := s.LoadFixtures(cfg.Memory.Fixtures); err != nil {
				return nil, nil, fmt.Errorf("loading fixtures: %w", err)
			}
			consumers, tokens := s.Len()
			slog.Info("fixtures loaded", "path", cfg.Memory.Fixtures, "consumers", consumers, "tokens", tokens)
		}
		return s, s, nil

	case "postgres":
		s, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil

	case "redis":
		s, err := redis.Open(ctx, &goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.KeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Type)
}

// newResolver wires the authenticators enabled in cfg. A disabled scheme
// has no authenticator and therefore always abstains.
func newResolver(cfg config.OAuthConfig, finder storage.Finder) *auth.Resolver {
	r := &auth.Resolver{}
	if cfg.OAuth1Enabled {
		r.Signed = oauth1.New(finder, nil)
	}
	if cfg.OAuth2Enabled {
		r.Bearer = oauth2.New(finder)
	}
	return r
}
