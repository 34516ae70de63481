package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/rhuss/oauthfilter/pkg/api"
)

// Fixtures is the YAML document used to seed the in-memory store.
//
//	consumers:
//	  - key: dpf43f3p2l4k3l03
//	    secret: kd94hf93k423kf44
//	tokens:
//	  - token: nnch734d00sl2jdk
//	    secret: pfkkdhi9sl3r4s00
//	    kind: access
//	    consumer_key: dpf43f3p2l4k3l03
//	    authorized_at: 2024-01-01T00:00:00Z
type Fixtures struct {
	Consumers []api.Consumer `yaml:"consumers"`
	Tokens    []api.Token    `yaml:"tokens"`
}

// Validate checks that keys are unique, tokens reference known consumers
// and every token kind is recognized. Tokens without a kind default to
// access tokens.
func (f *Fixtures) Validate() error {
	var errs []error

	consumers := make(map[string]bool, len(f.Consumers))
	for i, c := range f.Consumers {
		if c.Key == "" {
			errs = append(errs, fmt.Errorf("consumers[%d]: key is required", i))
			continue
		}
		if consumers[c.Key] {
			errs = append(errs, fmt.Errorf("consumers[%d]: duplicate key %q", i, c.Key))
		}
		consumers[c.Key] = true
	}

	tokens := make(map[string]bool, len(f.Tokens))
	for i := range f.Tokens {
		t := &f.Tokens[i]
		if t.Value == "" {
			errs = append(errs, fmt.Errorf("tokens[%d]: token is required", i))
			continue
		}
		if tokens[t.Value] {
			errs = append(errs, fmt.Errorf("tokens[%d]: duplicate token %q", i, t.Value))
		}
		tokens[t.Value] = true
		if t.Kind == "" {
			t.Kind = api.TokenKindAccess
		}
		if !t.Kind.Valid() {
			errs = append(errs, fmt.Errorf("tokens[%d]: unknown kind %q", i, t.Kind))
		}
		if !consumers[t.ConsumerKey] {
			errs = append(errs, fmt.Errorf("tokens[%d]: unknown consumer %q", i, t.ConsumerKey))
		}
	}

	return errors.Join(errs...)
}

// ReadFixtures parses and validates a fixture file.
func ReadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures %s: %w", path, err)
	}

	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixtures %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fixtures %s: %w", path, err)
	}
	return &f, nil
}

// LoadFixtures replaces the store contents with the records in path.
// On error the current contents are kept.
func (s *Store) LoadFixtures(path string) error {
	f, err := ReadFixtures(path)
	if err != nil {
		return err
	}
	s.Replace(f.Consumers, f.Tokens)
	return nil
}

// Watch reloads the fixture file whenever it changes until ctx is done.
// The parent directory is watched so editors that replace the file by
// rename are picked up as well. A failed reload is logged and the previous
// contents stay active.
func (s *Store) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	slog.Debug("watching fixtures", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := s.LoadFixtures(abs); err != nil {
				// A rename leaves the path missing until the new file lands.
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				slog.Warn("fixture reload failed", "path", abs, "error", err)
				continue
			}
			consumers, tokens := s.Len()
			slog.Info("fixtures reloaded", "path", abs, "consumers", consumers, "tokens", tokens)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("fixture watcher error", "error", err)
		}
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
